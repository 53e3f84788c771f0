package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/storage"
	"github.com/SparkssL/Seer-Engine/internal/storage/postgres"
)

func testMarket(id string, volume float64) *domain.Market {
	return &domain.Market{
		ID:        id,
		Question:  "Will BTC close above $100k this year?",
		Category:  "Crypto",
		Volume:    volume,
		Liquidity: volume / 10,
		Status:    domain.MarketStatusActive,
		EndDate:   "2026-12-31",
		YesLabel:  "YES",
		NoLabel:   "NO",
		Outcomes: []domain.Outcome{
			{ID: id + "-yes", Name: "YES", Probability: 0.62, Change24h: 1.5},
			{ID: id + "-no", Name: "NO", Probability: 0.38, Change24h: -1.5},
		},
	}
}

func TestMarketCatalog_UpsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	catalog := postgres.NewMarketCatalog(pool)
	ctx := context.Background()

	market := testMarket("market-001", 125000)

	err := catalog.Upsert(ctx, market)
	require.NoError(t, err)

	retrieved, err := catalog.GetByID(ctx, "market-001")
	require.NoError(t, err)

	assert.Equal(t, market.ID, retrieved.ID)
	assert.Equal(t, market.Question, retrieved.Question)
	assert.Equal(t, market.Category, retrieved.Category)
	assert.Equal(t, market.Volume, retrieved.Volume)
	assert.Equal(t, market.Liquidity, retrieved.Liquidity)
	assert.Equal(t, market.Status, retrieved.Status)
	assert.Equal(t, market.EndDate, retrieved.EndDate)
	require.Len(t, retrieved.Outcomes, 2)
	assert.Equal(t, market.Outcomes[0].Probability, retrieved.Outcomes[0].Probability)
}

func TestMarketCatalog_UpsertReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	catalog := postgres.NewMarketCatalog(pool)
	ctx := context.Background()

	market := testMarket("market-upd", 50000)
	require.NoError(t, catalog.Upsert(ctx, market))

	market.Volume = 75000
	market.Status = domain.MarketStatusResolved
	market.Outcomes[0].Probability = 1.0
	require.NoError(t, catalog.Upsert(ctx, market))

	retrieved, err := catalog.GetByID(ctx, "market-upd")
	require.NoError(t, err)

	assert.Equal(t, 75000.0, retrieved.Volume)
	assert.Equal(t, domain.MarketStatusResolved, retrieved.Status)
	assert.Equal(t, 1.0, retrieved.Outcomes[0].Probability)
}

func TestMarketCatalog_UpsertInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	catalog := postgres.NewMarketCatalog(pool)
	ctx := context.Background()

	err := catalog.Upsert(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = catalog.Upsert(ctx, &domain.Market{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestMarketCatalog_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	catalog := postgres.NewMarketCatalog(pool)
	ctx := context.Background()

	_, err := catalog.GetByID(ctx, "nonexistent-market")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMarketCatalog_UpsertBulkAndGetActive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	catalog := postgres.NewMarketCatalog(pool)
	ctx := context.Background()

	resolved := testMarket("market-done", 900000)
	resolved.Status = domain.MarketStatusResolved

	markets := []*domain.Market{
		testMarket("market-a", 10000),
		testMarket("market-b", 30000),
		testMarket("market-c", 20000),
		resolved,
	}
	require.NoError(t, catalog.UpsertBulk(ctx, markets))

	active, err := catalog.GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)

	// Ordered by volume DESC.
	assert.Equal(t, "market-b", active[0].ID)
	assert.Equal(t, "market-c", active[1].ID)
	assert.Equal(t, "market-a", active[2].ID)
}

func TestMarketCatalog_UpsertBulkRollsBackOnInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	catalog := postgres.NewMarketCatalog(pool)
	ctx := context.Background()

	markets := []*domain.Market{
		testMarket("market-good", 10000),
		{}, // missing ID
	}
	err := catalog.UpsertBulk(ctx, markets)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	// The valid market must not have been committed.
	_, err = catalog.GetByID(ctx, "market-good")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMarketCatalog_GetByCategory(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	catalog := postgres.NewMarketCatalog(pool)
	ctx := context.Background()

	politics := testMarket("market-pol", 40000)
	politics.Category = "Politics"

	require.NoError(t, catalog.UpsertBulk(ctx, []*domain.Market{
		testMarket("market-cr-1", 10000),
		testMarket("market-cr-2", 20000),
		politics,
	}))

	crypto, err := catalog.GetByCategory(ctx, "Crypto")
	require.NoError(t, err)
	require.Len(t, crypto, 2)
	assert.Equal(t, "market-cr-2", crypto[0].ID)

	pol, err := catalog.GetByCategory(ctx, "Politics")
	require.NoError(t, err)
	require.Len(t, pol, 1)

	none, err := catalog.GetByCategory(ctx, "Sports")
	require.NoError(t, err)
	assert.Empty(t, none)
}
