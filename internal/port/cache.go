package port

import (
	"context"

	"bookcore/internal/domain"
)

// Cache holds the most recent depth snapshot per symbol. GetDepth returns
// (nil, nil) on a miss.
type Cache interface {
	SetDepth(ctx context.Context, symbol string, snap *domain.DepthSnapshot) error
	GetDepth(ctx context.Context, symbol string) (*domain.DepthSnapshot, error)
}
