package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/storage"
)

// MarketCatalog implements storage.MarketCatalog using PostgreSQL.
// Outcomes are stored as a JSONB column; the catalog is a mirror of the
// venue market list, so every write is an upsert.
type MarketCatalog struct {
	pool *Pool
}

// NewMarketCatalog creates a new MarketCatalog.
func NewMarketCatalog(pool *Pool) *MarketCatalog {
	return &MarketCatalog{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketCatalog = (*MarketCatalog)(nil)

const upsertMarketQuery = `
	INSERT INTO markets (
		market_id, question, category, volume, liquidity, status, end_date, yes_label, no_label, outcomes, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
	ON CONFLICT (market_id) DO UPDATE SET
		question = EXCLUDED.question,
		category = EXCLUDED.category,
		volume = EXCLUDED.volume,
		liquidity = EXCLUDED.liquidity,
		status = EXCLUDED.status,
		end_date = EXCLUDED.end_date,
		yes_label = EXCLUDED.yes_label,
		no_label = EXCLUDED.no_label,
		outcomes = EXCLUDED.outcomes,
		updated_at = now()
`

// Upsert inserts or replaces a market by its ID.
func (s *MarketCatalog) Upsert(ctx context.Context, m *domain.Market) error {
	if m == nil || m.ID == "" {
		return storage.ErrInvalidInput
	}

	outcomes, err := json.Marshal(m.Outcomes)
	if err != nil {
		return fmt.Errorf("marshal outcomes: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertMarketQuery,
		m.ID,
		m.Question,
		m.Category,
		m.Volume,
		m.Liquidity,
		m.Status,
		m.EndDate,
		m.YesLabel,
		m.NoLabel,
		outcomes,
	)
	if err != nil {
		return fmt.Errorf("upsert market: %w", err)
	}
	return nil
}

// UpsertBulk inserts or replaces multiple markets in one transaction.
func (s *MarketCatalog) UpsertBulk(ctx context.Context, markets []*domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert bulk: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range markets {
		if m == nil || m.ID == "" {
			return storage.ErrInvalidInput
		}

		outcomes, err := json.Marshal(m.Outcomes)
		if err != nil {
			return fmt.Errorf("marshal outcomes: %w", err)
		}

		_, err = tx.Exec(ctx, upsertMarketQuery,
			m.ID,
			m.Question,
			m.Category,
			m.Volume,
			m.Liquidity,
			m.Status,
			m.EndDate,
			m.YesLabel,
			m.NoLabel,
			outcomes,
		)
		if err != nil {
			return fmt.Errorf("upsert market %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert bulk: %w", err)
	}
	return nil
}

// GetByID retrieves a market by its ID. Returns ErrNotFound if not exists.
func (s *MarketCatalog) GetByID(ctx context.Context, marketID string) (*domain.Market, error) {
	query := `
		SELECT market_id, question, category, volume, liquidity, status, end_date, yes_label, no_label, outcomes
		FROM markets
		WHERE market_id = $1
	`

	row := s.pool.QueryRow(ctx, query, marketID)
	m, err := scanMarket(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get market by id: %w", err)
	}
	return m, nil
}

// GetActive retrieves all markets with active status, ordered by volume DESC.
func (s *MarketCatalog) GetActive(ctx context.Context) ([]*domain.Market, error) {
	query := `
		SELECT market_id, question, category, volume, liquidity, status, end_date, yes_label, no_label, outcomes
		FROM markets
		WHERE status = $1
		ORDER BY volume DESC, market_id ASC
	`

	rows, err := s.pool.Query(ctx, query, domain.MarketStatusActive)
	if err != nil {
		return nil, fmt.Errorf("get active markets: %w", err)
	}
	defer rows.Close()

	return scanMarkets(rows)
}

// GetByCategory retrieves all markets in a category, ordered by volume DESC.
func (s *MarketCatalog) GetByCategory(ctx context.Context, category string) ([]*domain.Market, error) {
	query := `
		SELECT market_id, question, category, volume, liquidity, status, end_date, yes_label, no_label, outcomes
		FROM markets
		WHERE category = $1
		ORDER BY volume DESC, market_id ASC
	`

	rows, err := s.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("get markets by category: %w", err)
	}
	defer rows.Close()

	return scanMarkets(rows)
}

// scanMarket scans a single market row.
func scanMarket(row pgx.Row) (*domain.Market, error) {
	var m domain.Market
	var outcomes []byte

	err := row.Scan(
		&m.ID,
		&m.Question,
		&m.Category,
		&m.Volume,
		&m.Liquidity,
		&m.Status,
		&m.EndDate,
		&m.YesLabel,
		&m.NoLabel,
		&outcomes,
	)
	if err != nil {
		return nil, err
	}

	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &m.Outcomes); err != nil {
			return nil, fmt.Errorf("unmarshal outcomes: %w", err)
		}
	}

	return &m, nil
}

// scanMarkets scans all market rows.
func scanMarkets(rows pgx.Rows) ([]*domain.Market, error) {
	var result []*domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markets: %w", err)
	}
	return result, nil
}
