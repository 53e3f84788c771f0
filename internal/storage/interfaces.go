package storage

import (
	"context"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// MarketCatalog provides access to the market catalog. The catalog mirrors
// the venue's market list so restarts and auxiliary tooling can read it
// without hitting the venue; it never holds pipeline state.
type MarketCatalog interface {
	// Upsert inserts or replaces a market by its ID.
	Upsert(ctx context.Context, m *domain.Market) error

	// UpsertBulk inserts or replaces multiple markets.
	UpsertBulk(ctx context.Context, markets []*domain.Market) error

	// GetByID retrieves a market by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, marketID string) (*domain.Market, error)

	// GetActive retrieves all markets with active status, ordered by volume DESC.
	GetActive(ctx context.Context) ([]*domain.Market, error)

	// GetByCategory retrieves all markets in a category, ordered by volume DESC.
	GetByCategory(ctx context.Context, category string) ([]*domain.Market, error)
}
