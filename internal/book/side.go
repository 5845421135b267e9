package book

import (
	"math"

	"github.com/tidwall/btree"
)

// priceTolerance collapses near-equal floating prices into one level: two
// prices are the same level if they differ by less than this.
const priceTolerance = 1e-9

func samePrice(a, b float64) bool {
	return math.Abs(a-b) < priceTolerance
}

// SamePrice reports whether two prices fall within the level-collapsing
// tolerance, i.e. whether an amend to the second price keeps queue priority.
func SamePrice(a, b float64) bool {
	return samePrice(a, b)
}

// sideIndex keeps one side's price levels ordered best-first: descending for
// bids, ascending for asks. The comparator treats prices within
// priceTolerance as equal, which is what collapses them into a single level.
// The tree runs lock-free; the book is a single-threaded engine and callers
// serialize externally.
type sideIndex struct {
	levels *btree.BTreeG[*priceLevel]
}

func newSideIndex(side Side) *sideIndex {
	less := func(a, b *priceLevel) bool { return a.price < b.price-priceTolerance }
	if side == Bid {
		less = func(a, b *priceLevel) bool { return a.price > b.price+priceTolerance }
	}
	return &sideIndex{
		levels: btree.NewBTreeGOptions(less, btree.Options{NoLocks: true}),
	}
}

func (s *sideIndex) getOrCreate(price float64) *priceLevel {
	if lvl, ok := s.levels.Get(&priceLevel{price: price}); ok {
		return lvl
	}
	lvl := &priceLevel{price: price}
	s.levels.Set(lvl)
	return lvl
}

// add links a record into the level for its price, creating the level on
// first use, and records the queue position inside the node.
func (s *sideIndex) add(n *orderNode) {
	s.getOrCreate(n.order.Price).enqueue(n)
}

// remove unlinks a record from its level and erases the level when the queue
// empties. No side index ever holds an empty level.
func (s *sideIndex) remove(n *orderNode) {
	lvl := n.level
	lvl.unlink(n)
	if lvl.empty() {
		s.levels.Delete(lvl)
	}
}

// best returns the top-of-book level for this side.
func (s *sideIndex) best() (*priceLevel, bool) {
	return s.levels.Min()
}

// walk visits levels best-first until fn returns false.
func (s *sideIndex) walk(fn func(*priceLevel) bool) {
	s.levels.Scan(fn)
}

func (s *sideIndex) len() int {
	return s.levels.Len()
}
