package book

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants verifies, after any operation: every level's aggregate
// equals the sum of its queued quantities, no side index holds an empty
// level, and the id table is exactly the set of orders reachable through
// both side indices.
func checkInvariants(t *testing.T, b *Book) {
	t.Helper()

	seen := make(map[uint64]bool)
	for _, s := range []*sideIndex{b.bids, b.asks} {
		s.walk(func(l *priceLevel) bool {
			require.False(t, l.empty(), "side index holds an empty level at %v", l.price)
			var sum uint64
			n := 0
			for node := l.head; node != nil; node = node.next {
				sum += node.order.Quantity
				require.Same(t, l, node.level)
				require.False(t, seen[node.order.ID], "order %d linked twice", node.order.ID)
				seen[node.order.ID] = true
				n++
			}
			require.Equal(t, l.totalQty, sum, "aggregate mismatch at level %v", l.price)
			require.Equal(t, l.count, n)
			return true
		})
	}

	require.Equal(t, len(b.byID), len(seen))
	for id := range b.byID {
		require.True(t, seen[id], "order %d in lookup table but not in any queue", id)
	}
}

func levelIDs(l *priceLevel) []uint64 {
	var ids []uint64
	for n := l.head; n != nil; n = n.next {
		ids = append(ids, n.order.ID)
	}
	return ids
}

func bidLevel(t *testing.T, b *Book, price float64) *priceLevel {
	t.Helper()
	lvl, ok := b.bids.levels.Get(&priceLevel{price: price})
	require.True(t, ok, "no bid level at %v", price)
	return lvl
}

func askLevel(t *testing.T, b *Book, price float64) *priceLevel {
	t.Helper()
	lvl, ok := b.asks.levels.Get(&priceLevel{price: price})
	require.True(t, ok, "no ask level at %v", price)
	return lvl
}

// Scenario: three buys, two at the same price, build two levels with FIFO
// queues.
func seedBids(t *testing.T, b *Book) {
	t.Helper()
	require.NoError(t, b.Add(Order{ID: 1001, Side: Bid, Price: 100.00, Quantity: 100, Timestamp: 1}))
	require.NoError(t, b.Add(Order{ID: 1002, Side: Bid, Price: 99.50, Quantity: 200, Timestamp: 2}))
	require.NoError(t, b.Add(Order{ID: 1003, Side: Bid, Price: 100.00, Quantity: 150, Timestamp: 3}))
}

func TestAddBuildsLevels(t *testing.T) {
	b := New()
	seedBids(t, b)

	bidLevels, askLevels := b.Depths()
	assert.Equal(t, 2, bidLevels)
	assert.Equal(t, 0, askLevels)

	bids, _ := b.Snapshot(10)
	require.Len(t, bids, 2)
	assert.Equal(t, LevelSnapshot{Price: 100.00, Quantity: 250}, bids[0])
	assert.Equal(t, LevelSnapshot{Price: 99.50, Quantity: 200}, bids[1])

	assert.Equal(t, []uint64{1001, 1003}, levelIDs(bidLevel(t, b, 100.00)))
	checkInvariants(t, b)
}

func TestCancelRemovesEmptyLevel(t *testing.T) {
	b := New()
	seedBids(t, b)

	assert.True(t, b.Cancel(1002))

	bidLevels, _ := b.Depths()
	assert.Equal(t, 1, bidLevels)
	best, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, 100.00, best)

	bids, _ := b.Snapshot(10)
	require.Len(t, bids, 1)
	assert.Equal(t, LevelSnapshot{Price: 100.00, Quantity: 250}, bids[0])
	checkInvariants(t, b)
}

func TestQuantityAmendKeepsPriority(t *testing.T) {
	b := New()
	seedBids(t, b)

	assert.True(t, b.Amend(1003, 100.00, 500))

	lvl := bidLevel(t, b, 100.00)
	assert.Equal(t, uint64(600), lvl.totalQty)
	assert.Equal(t, []uint64{1001, 1003}, levelIDs(lvl), "quantity amend must not move the order")

	o, ok := b.Get(1003)
	require.True(t, ok)
	assert.Equal(t, uint64(500), o.Quantity)
	checkInvariants(t, b)
}

func TestPriceAmendMovesToBackOfNewLevel(t *testing.T) {
	b := New()
	b.now = func() int64 { return 777 }

	require.NoError(t, b.Add(Order{ID: 2000, Side: Ask, Price: 100.50, Quantity: 50, Timestamp: 1}))
	require.NoError(t, b.Add(Order{ID: 2001, Side: Ask, Price: 101.00, Quantity: 100, Timestamp: 2}))

	assert.True(t, b.Amend(2001, 100.50, 100))

	// The old level emptied out and is gone.
	_, ok := b.asks.levels.Get(&priceLevel{price: 101.00})
	assert.False(t, ok)

	lvl := askLevel(t, b, 100.50)
	assert.Equal(t, []uint64{2000, 2001}, levelIDs(lvl), "price amend forfeits time priority")
	assert.Equal(t, uint64(150), lvl.totalQty)

	o, _ := b.Get(2001)
	assert.Equal(t, int64(777), o.Timestamp, "price amend assigns a fresh timestamp")
	checkInvariants(t, b)
}

func TestCancelUnknownIDLeavesStateUntouched(t *testing.T) {
	b := New()
	seedBids(t, b)
	before := b.Stats()

	assert.False(t, b.Cancel(424242))
	assert.False(t, b.Amend(424242, 1, 1))

	assert.Equal(t, before.OrdersCancelled, b.Stats().OrdersCancelled)
	assert.Equal(t, before.OrdersAmended, b.Stats().OrdersAmended)
	assert.Equal(t, 3, b.Len())
	checkInvariants(t, b)
}

func TestAddCancelRoundTrip(t *testing.T) {
	b := New()
	seedBids(t, b)

	require.NoError(t, b.Add(Order{ID: 5000, Side: Bid, Price: 100.00, Quantity: 75, Timestamp: 9}))
	require.True(t, b.Cancel(5000))

	// Back to the exact prior shape.
	assert.Equal(t, 3, b.Len())
	lvl := bidLevel(t, b, 100.00)
	assert.Equal(t, uint64(250), lvl.totalQty)
	assert.Equal(t, []uint64{1001, 1003}, levelIDs(lvl))
	bidLevels, _ := b.Depths()
	assert.Equal(t, 2, bidLevels)
	checkInvariants(t, b)
}

func TestDuplicateIDRejected(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(Order{ID: 7, Side: Bid, Price: 10, Quantity: 1}))

	err := b.Add(Order{ID: 7, Side: Bid, Price: 11, Quantity: 2})
	assert.ErrorIs(t, err, ErrDuplicateID)

	// The original order is untouched.
	o, ok := b.Get(7)
	require.True(t, ok)
	assert.Equal(t, 10.0, o.Price)
	assert.Equal(t, uint64(1), b.Stats().OrdersAdded)
	checkInvariants(t, b)

	// The id frees up after cancel.
	require.True(t, b.Cancel(7))
	assert.NoError(t, b.Add(Order{ID: 7, Side: Ask, Price: 12, Quantity: 3}))
}

func TestTolerantPricesCollapseIntoOneLevel(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(Order{ID: 1, Side: Ask, Price: 101.00, Quantity: 10}))
	require.NoError(t, b.Add(Order{ID: 2, Side: Ask, Price: 101.00 + 1e-10, Quantity: 20}))

	_, askLevels := b.Depths()
	assert.Equal(t, 1, askLevels)
	_, asks := b.Snapshot(10)
	require.Len(t, asks, 1)
	assert.Equal(t, uint64(30), asks[0].Quantity)
	checkInvariants(t, b)
}

func TestSnapshotOrderingAndDepthClamp(t *testing.T) {
	b := New()
	for i, p := range []float64{99, 101, 98, 100} {
		require.NoError(t, b.Add(Order{ID: uint64(i + 1), Side: Bid, Price: p, Quantity: 10}))
		require.NoError(t, b.Add(Order{ID: uint64(i + 100), Side: Ask, Price: p + 10, Quantity: 10}))
	}

	bids, asks := b.Snapshot(3)
	assert.Equal(t, []float64{101, 100, 99}, []float64{bids[0].Price, bids[1].Price, bids[2].Price})
	assert.Equal(t, []float64{108, 109, 110}, []float64{asks[0].Price, asks[1].Price, asks[2].Price})

	bids, asks = b.Snapshot(64)
	assert.Len(t, bids, 4, "short side returns all of its levels")
	assert.Len(t, asks, 4)

	bids, asks = b.Snapshot(0)
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func TestEmptyBookBoundaries(t *testing.T) {
	b := New()

	bestBid, bestAsk := b.BestPrices()
	assert.Equal(t, 0.0, bestBid)
	assert.Equal(t, math.MaxFloat64, bestAsk)

	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)

	bids, asks := b.Snapshot(10)
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func TestBestPricesTrackMutations(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(Order{ID: 1, Side: Bid, Price: 100, Quantity: 1}))
	require.NoError(t, b.Add(Order{ID: 2, Side: Bid, Price: 101, Quantity: 1}))
	require.NoError(t, b.Add(Order{ID: 3, Side: Ask, Price: 103, Quantity: 1}))
	require.NoError(t, b.Add(Order{ID: 4, Side: Ask, Price: 102, Quantity: 1}))

	bid, ask := b.BestPrices()
	assert.Equal(t, 101.0, bid)
	assert.Equal(t, 102.0, ask)

	b.Cancel(2)
	b.Cancel(4)
	bid, ask = b.BestPrices()
	assert.Equal(t, 100.0, bid)
	assert.Equal(t, 103.0, ask)
}

func TestStatsCounters(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(Order{ID: 1, Side: Bid, Price: 100, Quantity: 10}))
	require.NoError(t, b.Add(Order{ID: 2, Side: Ask, Price: 101, Quantity: 10}))
	b.Cancel(1)
	b.Amend(2, 101, 20) // in place

	s := b.Stats()
	assert.Equal(t, Stats{OrdersAdded: 2, OrdersCancelled: 1, OrdersAmended: 1}, s)

	// A price amend runs through cancel+add, and all three counters see it.
	b.Amend(2, 102, 20)
	s = b.Stats()
	assert.Equal(t, Stats{OrdersAdded: 3, OrdersCancelled: 2, OrdersAmended: 2}, s)
}

func TestHeavyChurnKeepsInvariants(t *testing.T) {
	b := New()
	id := uint64(1)
	for round := 0; round < 50; round++ {
		for i := 0; i < 20; i++ {
			side := Bid
			if i%2 == 1 {
				side = Ask
			}
			price := 95.0 + float64((round+i)%13)
			require.NoError(t, b.Add(Order{ID: id, Side: side, Price: price, Quantity: uint64(1 + i)}))
			id++
		}
		// cancel some, amend some
		for i := uint64(0); i < 10; i++ {
			target := id - 1 - i*2
			if i%3 == 0 {
				b.Cancel(target)
			} else {
				b.Amend(target, 95.0+float64(i), 5)
			}
		}
		checkInvariants(t, b)
	}
}
