package domain

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is the external representation of a resting order as it crosses the
// engine boundary and the journal. The id is caller-assigned and unique
// among live orders; the timestamp is a nanosecond value kept for audit.
type Order struct {
	ID        uint64  `json:"id"`
	Side      Side    `json:"side"`
	Price     float64 `json:"price"`
	Quantity  uint64  `json:"quantity"`
	Timestamp int64   `json:"timestamp_ns"`
}
