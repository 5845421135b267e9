package in_memory

import (
	"context"
	"errors"
	"sync"

	"bookcore/internal/domain"
	"bookcore/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

// MemoryRepo is the map-backed Repository used by tests and infrastructure-free
// runs.
type MemoryRepo struct {
	mu        sync.Mutex
	orders    []*domain.Order // arrival order preserved
	byID      map[uint64]*domain.Order
	cancelled map[uint64]bool
	snapshots map[string]*domain.DepthSnapshot
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[uint64]*domain.Order),
		cancelled: make(map[uint64]bool),
		snapshots: make(map[string]*domain.DepthSnapshot),
	}
}

func (r *MemoryRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders = append(r.orders, &cp)
	r.byID[o.ID] = &cp
	delete(r.cancelled, o.ID)
	return nil
}

func (r *MemoryRepo) MarkCancelled(ctx context.Context, orderID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[orderID]; !ok {
		return errors.New("order not found")
	}
	r.cancelled[orderID] = true
	return nil
}

func (r *MemoryRepo) MarkAmended(ctx context.Context, orderID uint64, price float64, qty uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[orderID]
	if !ok {
		return errors.New("order not found")
	}
	o.Price = price
	o.Quantity = qty
	return nil
}

func (r *MemoryRepo) LoadRestingOrders(ctx context.Context, symbol string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Order
	for _, o := range r.orders {
		if r.cancelled[o.ID] || r.byID[o.ID] != o {
			continue
		}
		cp := *o
		res = append(res, &cp)
	}
	return res, nil
}

func (r *MemoryRepo) SaveSnapshot(ctx context.Context, snapshotID string, snap *domain.DepthSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snapshotID] = snap.DeepCopy()
	return nil
}

func (r *MemoryRepo) LoadSnapshot(ctx context.Context, snapshotID string) (*domain.DepthSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snapshots[snapshotID]
	if !ok {
		return nil, errors.New("snapshot not found")
	}
	return snap.DeepCopy(), nil
}
