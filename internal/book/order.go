package book

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "BID"
	}
	return "ASK"
}

// Order is the caller-supplied description of a resting order. The ID is the
// lookup key and must not be reused while the order is live. Timestamp is a
// nanosecond value used for audit only; queue priority comes from insertion
// order, never from the timestamp.
type Order struct {
	ID        uint64
	Side      Side
	Price     float64
	Quantity  uint64
	Timestamp int64
}

// orderNode is the in-book record of one resting order. The prev/next links
// and the level back-reference are what make removal O(1): a node can be
// unlinked from its FIFO queue without scanning it.
type orderNode struct {
	order Order

	level *priceLevel
	prev  *orderNode
	next  *orderNode
}
