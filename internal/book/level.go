package book

// priceLevel is a FIFO queue of resting orders at a single price, plus the
// running sum of their quantities. totalQty always equals the sum over the
// queue; callers erase the level from its side index the moment it empties.
type priceLevel struct {
	price    float64
	totalQty uint64

	head *orderNode
	tail *orderNode

	count int
}

// enqueue appends at the tail: a new order is always lowest priority at its
// price.
func (l *priceLevel) enqueue(n *orderNode) {
	if l.head == nil {
		l.head = n
		l.tail = n
	} else {
		l.tail.next = n
		n.prev = l.tail
		l.tail = n
	}
	n.level = l
	l.totalQty += n.order.Quantity
	l.count++
}

// unlink removes n from the queue in O(1) using its stored links.
func (l *priceLevel) unlink(n *orderNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
	n.level = nil
	l.totalQty -= n.order.Quantity
	l.count--
}

func (l *priceLevel) empty() bool {
	return l.head == nil
}
