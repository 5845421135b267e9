// Package book implements the resting-order store of a limit order book: per
// instrument, both sides' price levels with price-time priority, an O(1) id
// lookup for cancellation, and arena-backed record storage. It performs no
// matching and no I/O, and it is deliberately single-threaded: every
// operation is a bounded synchronous computation, and concurrent callers
// must serialize access themselves (internal/core does exactly that).
package book

import (
	"errors"
	"math"
	"time"
)

// ErrDuplicateID is returned by Add when the id already names a live order.
// The id is the lookup key; accepting a duplicate would orphan the earlier
// record inside its level forever.
var ErrDuplicateID = errors.New("book: duplicate order id")

// LevelSnapshot is one (price, aggregate quantity) pair of a depth snapshot.
type LevelSnapshot struct {
	Price    float64 `json:"price"`
	Quantity uint64  `json:"quantity"`
}

// Stats are per-instance monotonic operation counters. They never reset for
// the lifetime of the book.
type Stats struct {
	OrdersAdded     uint64 `json:"orders_added"`
	OrdersCancelled uint64 `json:"orders_cancelled"`
	OrdersAmended   uint64 `json:"orders_amended"`
}

// Book is the sole entry point to the structure. The id table, both side
// indices and the arena are mutated in lockstep within each operation and
// must never be observed mid-update from another goroutine.
type Book struct {
	bids *sideIndex
	asks *sideIndex
	byID map[uint64]*orderNode
	pool *arena

	// now supplies the fresh timestamp taken when a price-changing amend
	// re-enqueues an order. Overridable in tests; this is the only place
	// the book reads a clock.
	now func() int64

	stats Stats
}

func New() *Book {
	return &Book{
		bids: newSideIndex(Bid),
		asks: newSideIndex(Ask),
		byID: make(map[uint64]*orderNode),
		pool: newArena(),
		now:  func() int64 { return time.Now().UnixNano() },
	}
}

func (b *Book) side(s Side) *sideIndex {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

// Add inserts a resting order. It fails only on a live duplicate id.
func (b *Book) Add(o Order) error {
	if _, live := b.byID[o.ID]; live {
		return ErrDuplicateID
	}
	n := b.pool.allocate()
	n.order = o
	b.byID[o.ID] = n
	b.side(o.Side).add(n)
	b.stats.OrdersAdded++
	return nil
}

// Cancel removes the order with the given id. It reports false, with no side
// effects, when the id has no live order.
func (b *Book) Cancel(id uint64) bool {
	n, ok := b.byID[id]
	if !ok {
		return false
	}
	b.side(n.order.Side).remove(n)
	delete(b.byID, id)
	b.pool.release(n)
	b.stats.OrdersCancelled++
	return true
}

// Amend changes an order's price and quantity. A quantity-only change (new
// price within tolerance of the old) is applied in place and keeps the
// order's time priority. A price change is a cancel followed by an add with
// a fresh timestamp, so the order joins the back of its new level's queue.
// The cancel+add path counts in the cancelled/added statistics as well as
// the amended one.
func (b *Book) Amend(id uint64, newPrice float64, newQty uint64) bool {
	n, ok := b.byID[id]
	if !ok {
		return false
	}
	if samePrice(n.order.Price, newPrice) {
		lvl := n.level
		lvl.totalQty = lvl.totalQty - n.order.Quantity + newQty
		n.order.Quantity = newQty
	} else {
		amended := n.order
		amended.Price = newPrice
		amended.Quantity = newQty
		amended.Timestamp = b.now()
		b.Cancel(id)
		// Cannot collide: the id was just removed from the table.
		_ = b.Add(amended)
	}
	b.stats.OrdersAmended++
	return true
}

// Get returns a copy of the live order with the given id.
func (b *Book) Get(id uint64) (Order, bool) {
	n, ok := b.byID[id]
	if !ok {
		return Order{}, false
	}
	return n.order, true
}

// Snapshot returns up to depth levels per side as (price, aggregate
// quantity) pairs, best price first. Sides with fewer levels return what
// they have. Pure read, O(depth) per side.
func (b *Book) Snapshot(depth int) (bids, asks []LevelSnapshot) {
	if depth < 0 {
		depth = 0
	}
	bids = make([]LevelSnapshot, 0, depth)
	asks = make([]LevelSnapshot, 0, depth)
	b.bids.walk(func(l *priceLevel) bool {
		if len(bids) >= depth {
			return false
		}
		bids = append(bids, LevelSnapshot{Price: l.price, Quantity: l.totalQty})
		return len(bids) < depth
	})
	b.asks.walk(func(l *priceLevel) bool {
		if len(asks) >= depth {
			return false
		}
		asks = append(asks, LevelSnapshot{Price: l.price, Quantity: l.totalQty})
		return len(asks) < depth
	})
	return bids, asks
}

// BestBid returns the highest bid price, if any bids rest.
func (b *Book) BestBid() (float64, bool) {
	if lvl, ok := b.bids.best(); ok {
		return lvl.price, true
	}
	return 0, false
}

// BestAsk returns the lowest ask price, if any asks rest.
func (b *Book) BestAsk() (float64, bool) {
	if lvl, ok := b.asks.best(); ok {
		return lvl.price, true
	}
	return 0, false
}

// BestPrices returns the classic sentinel pair: 0 when the bid side is
// empty, math.MaxFloat64 when the ask side is empty. The sentinels mean "no
// liquidity", not real prices; prefer BestBid/BestAsk, which report absence
// explicitly.
func (b *Book) BestPrices() (bestBid, bestAsk float64) {
	bestBid = 0
	bestAsk = math.MaxFloat64
	if p, ok := b.BestBid(); ok {
		bestBid = p
	}
	if p, ok := b.BestAsk(); ok {
		bestAsk = p
	}
	return bestBid, bestAsk
}

// Len is the number of live orders.
func (b *Book) Len() int {
	return len(b.byID)
}

// Depths returns the number of populated price levels per side.
func (b *Book) Depths() (bidLevels, askLevels int) {
	return b.bids.len(), b.asks.len()
}

func (b *Book) Stats() Stats {
	return b.stats
}
