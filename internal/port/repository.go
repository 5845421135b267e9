package port

import (
	"context"

	"bookcore/internal/domain"
)

// Repository journals book mutations and stores named depth snapshots. The
// engine treats it as best-effort: the in-memory book is the source of
// truth, the journal is for restart recovery and audit.
type Repository interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	MarkCancelled(ctx context.Context, orderID uint64) error
	MarkAmended(ctx context.Context, orderID uint64, price float64, qty uint64) error

	// LoadRestingOrders returns live orders in arrival order, oldest first,
	// so a restart can rebuild queue priority by re-adding them in sequence.
	LoadRestingOrders(ctx context.Context, symbol string) ([]*domain.Order, error)

	SaveSnapshot(ctx context.Context, snapshotID string, snap *domain.DepthSnapshot) error
	LoadSnapshot(ctx context.Context, snapshotID string) (*domain.DepthSnapshot, error)
}
