// Package core wires the single-threaded book to the outside world: it
// serializes access behind a mutex, stamps timestamps, journals mutations to
// the repository, keeps the depth cache warm and reports metrics. The journal
// and cache are best-effort collaborators; their failures are logged, never
// propagated into order flow.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookcore/internal/book"
	"bookcore/internal/domain"
	"bookcore/internal/metrics"
	"bookcore/internal/port"
)

var (
	ErrInvalidOrder = errors.New("core: invalid order")
	ErrDuplicateID  = book.ErrDuplicateID
)

type Engine struct {
	symbol        string
	snapshotDepth int

	mu   sync.Mutex
	book *book.Book

	repo    port.Repository
	cache   port.Cache
	log     *zap.Logger
	metrics *metrics.Set
}

func NewEngine(symbol string, repo port.Repository, cache port.Cache, log *zap.Logger, m *metrics.Set, snapshotDepth int) *Engine {
	if snapshotDepth <= 0 {
		snapshotDepth = 10
	}
	return &Engine{
		symbol:        symbol,
		snapshotDepth: snapshotDepth,
		book:          book.New(),
		repo:          repo,
		cache:         cache,
		log:           log,
		metrics:       m,
	}
}

func (e *Engine) Symbol() string { return e.symbol }

func toBookSide(s domain.Side) (book.Side, error) {
	switch s {
	case domain.Buy:
		return book.Bid, nil
	case domain.Sell:
		return book.Ask, nil
	default:
		return 0, fmt.Errorf("%w: side %q", ErrInvalidOrder, s)
	}
}

func toDomainSide(s book.Side) domain.Side {
	if s == book.Bid {
		return domain.Buy
	}
	return domain.Sell
}

// SubmitOrder validates and rests a new order. The order's Timestamp is
// stamped here when the caller left it zero, so arrival order at the engine
// is queue order in the book.
func (e *Engine) SubmitOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return fmt.Errorf("%w: nil order", ErrInvalidOrder)
	}
	if o.Quantity == 0 {
		e.metrics.OrdersRejected.Inc()
		return fmt.Errorf("%w: zero quantity", ErrInvalidOrder)
	}
	if o.Price <= 0 {
		e.metrics.OrdersRejected.Inc()
		return fmt.Errorf("%w: non-positive price", ErrInvalidOrder)
	}
	side, err := toBookSide(o.Side)
	if err != nil {
		e.metrics.OrdersRejected.Inc()
		return err
	}
	if o.Timestamp == 0 {
		o.Timestamp = time.Now().UnixNano()
	}

	e.mu.Lock()
	err = e.book.Add(book.Order{
		ID:        o.ID,
		Side:      side,
		Price:     o.Price,
		Quantity:  o.Quantity,
		Timestamp: o.Timestamp,
	})
	e.mu.Unlock()
	if err != nil {
		e.metrics.OrdersRejected.Inc()
		return err
	}
	e.metrics.OrdersAdded.Inc()

	if err := e.repo.SaveOrder(ctx, o); err != nil {
		e.log.Warn("journal save failed", zap.Uint64("order_id", o.ID), zap.Error(err))
	}
	e.refreshCache(ctx)
	return nil
}

// CancelOrder removes a resting order. The first return value reports whether
// the id named a live order.
func (e *Engine) CancelOrder(ctx context.Context, id uint64) (bool, error) {
	e.mu.Lock()
	ok := e.book.Cancel(id)
	e.mu.Unlock()
	if !ok {
		return false, nil
	}
	e.metrics.OrdersCancelled.Inc()

	if err := e.repo.MarkCancelled(ctx, id); err != nil {
		e.log.Warn("journal cancel failed", zap.Uint64("order_id", id), zap.Error(err))
	}
	e.refreshCache(ctx)
	return true, nil
}

// AmendOrder changes a resting order's price and quantity. A price change
// loses queue priority, and is journalled as a cancel plus a fresh insert so
// that replaying the journal rebuilds the same queue order.
func (e *Engine) AmendOrder(ctx context.Context, id uint64, price float64, qty uint64) (bool, error) {
	if qty == 0 {
		return false, fmt.Errorf("%w: zero quantity", ErrInvalidOrder)
	}
	if price <= 0 {
		return false, fmt.Errorf("%w: non-positive price", ErrInvalidOrder)
	}

	e.mu.Lock()
	prev, live := e.book.Get(id)
	if !live {
		e.mu.Unlock()
		return false, nil
	}
	priceMoved := !book.SamePrice(prev.Price, price)
	e.book.Amend(id, price, qty)
	after, _ := e.book.Get(id)
	e.mu.Unlock()

	e.metrics.OrdersAmended.Inc()
	if priceMoved {
		e.metrics.OrdersCancelled.Inc()
		e.metrics.OrdersAdded.Inc()
		if err := e.repo.MarkCancelled(ctx, id); err != nil {
			e.log.Warn("journal cancel failed", zap.Uint64("order_id", id), zap.Error(err))
		}
		reinserted := domain.Order{
			ID:        id,
			Side:      toDomainSide(after.Side),
			Price:     after.Price,
			Quantity:  after.Quantity,
			Timestamp: after.Timestamp,
		}
		if err := e.repo.SaveOrder(ctx, &reinserted); err != nil {
			e.log.Warn("journal save failed", zap.Uint64("order_id", id), zap.Error(err))
		}
	} else {
		if err := e.repo.MarkAmended(ctx, id, price, qty); err != nil {
			e.log.Warn("journal amend failed", zap.Uint64("order_id", id), zap.Error(err))
		}
	}
	e.refreshCache(ctx)
	return true, nil
}

// GetOrder returns a copy of a live order.
func (e *Engine) GetOrder(id uint64) (domain.Order, bool) {
	e.mu.Lock()
	o, ok := e.book.Get(id)
	e.mu.Unlock()
	if !ok {
		return domain.Order{}, false
	}
	return domain.Order{
		ID:        o.ID,
		Side:      toDomainSide(o.Side),
		Price:     o.Price,
		Quantity:  o.Quantity,
		Timestamp: o.Timestamp,
	}, true
}

// Depth returns up to depth levels per side, best price first. Requests at
// the configured snapshot depth are answered from the cache when possible.
func (e *Engine) Depth(ctx context.Context, depth int) (*domain.DepthSnapshot, error) {
	e.metrics.DepthRequests.Inc()
	if depth == e.snapshotDepth {
		if snap, err := e.cache.GetDepth(ctx, e.symbol); err != nil {
			e.log.Warn("depth cache read failed", zap.Error(err))
		} else if snap != nil {
			e.metrics.DepthCacheHits.Inc()
			return snap, nil
		}
	}
	e.mu.Lock()
	snap := e.snapshotLocked(depth)
	e.mu.Unlock()
	return snap, nil
}

// snapshotLocked builds a depth snapshot; e.mu must be held.
func (e *Engine) snapshotLocked(depth int) *domain.DepthSnapshot {
	bids, asks := e.book.Snapshot(depth)
	snap := &domain.DepthSnapshot{
		Symbol:    e.symbol,
		Depth:     depth,
		Bids:      make([]domain.BookLevel, 0, len(bids)),
		Asks:      make([]domain.BookLevel, 0, len(asks)),
		Timestamp: time.Now(),
	}
	for _, l := range bids {
		snap.Bids = append(snap.Bids, domain.BookLevel{Price: l.Price, Quantity: l.Quantity})
	}
	for _, l := range asks {
		snap.Asks = append(snap.Asks, domain.BookLevel{Price: l.Price, Quantity: l.Quantity})
	}
	return snap
}

func (e *Engine) refreshCache(ctx context.Context) {
	e.mu.Lock()
	snap := e.snapshotLocked(e.snapshotDepth)
	e.mu.Unlock()
	if err := e.cache.SetDepth(ctx, e.symbol, snap); err != nil {
		e.log.Warn("depth cache write failed", zap.Error(err))
	}
}

// BestPrices reports the top of the book with explicit presence flags.
func (e *Engine) BestPrices() domain.BestPrices {
	e.mu.Lock()
	defer e.mu.Unlock()
	var bp domain.BestPrices
	bp.Bid, bp.HasBid = e.book.BestBid()
	bp.Ask, bp.HasAsk = e.book.BestAsk()
	return bp
}

// Stats returns the book's lifetime operation counters.
func (e *Engine) Stats() book.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Stats()
}

// Len is the number of resting orders.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Len()
}

// LoadRestingOrders replays the journal into an empty book at startup. The
// repository returns orders oldest first, so replay restores queue priority.
func (e *Engine) LoadRestingOrders(ctx context.Context) (int, error) {
	orders, err := e.repo.LoadRestingOrders(ctx, e.symbol)
	if err != nil {
		return 0, fmt.Errorf("load resting orders: %w", err)
	}
	e.mu.Lock()
	loaded := 0
	for _, o := range orders {
		side, err := toBookSide(o.Side)
		if err != nil {
			e.log.Warn("skipping journalled order with bad side", zap.Uint64("order_id", o.ID), zap.String("side", string(o.Side)))
			continue
		}
		if err := e.book.Add(book.Order{
			ID:        o.ID,
			Side:      side,
			Price:     o.Price,
			Quantity:  o.Quantity,
			Timestamp: o.Timestamp,
		}); err != nil {
			e.log.Warn("skipping journalled order", zap.Uint64("order_id", o.ID), zap.Error(err))
			continue
		}
		loaded++
	}
	e.mu.Unlock()
	e.refreshCache(ctx)
	e.log.Info("journal replayed", zap.String("symbol", e.symbol), zap.Int("orders", loaded))
	return loaded, nil
}

// SaveDepthSnapshot persists the current depth under a fresh id and returns
// the id.
func (e *Engine) SaveDepthSnapshot(ctx context.Context) (string, error) {
	e.mu.Lock()
	snap := e.snapshotLocked(e.snapshotDepth)
	e.mu.Unlock()
	id := uuid.NewString()
	if err := e.repo.SaveSnapshot(ctx, id, snap); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

func (e *Engine) LoadDepthSnapshot(ctx context.Context, id string) (*domain.DepthSnapshot, error) {
	return e.repo.LoadSnapshot(ctx, id)
}
