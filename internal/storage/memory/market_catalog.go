package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/storage"
)

// MarketCatalog is an in-memory implementation of storage.MarketCatalog.
type MarketCatalog struct {
	mu   sync.RWMutex
	data map[string]*domain.Market // keyed by market id
}

// NewMarketCatalog creates a new in-memory market catalog.
func NewMarketCatalog() *MarketCatalog {
	return &MarketCatalog{
		data: make(map[string]*domain.Market),
	}
}

// Upsert inserts or replaces a market by its ID.
func (s *MarketCatalog) Upsert(_ context.Context, m *domain.Market) error {
	if m == nil || m.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[m.ID] = copyMarket(m)
	return nil
}

// UpsertBulk inserts or replaces multiple markets.
func (s *MarketCatalog) UpsertBulk(_ context.Context, markets []*domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	for _, m := range markets {
		if m == nil || m.ID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range markets {
		s.data[m.ID] = copyMarket(m)
	}
	return nil
}

// GetByID retrieves a market by its ID. Returns ErrNotFound if not exists.
func (s *MarketCatalog) GetByID(_ context.Context, marketID string) (*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[marketID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyMarket(m), nil
}

// GetActive retrieves all markets with active status, ordered by volume DESC.
func (s *MarketCatalog) GetActive(_ context.Context) ([]*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Market
	for _, m := range s.data {
		if m.Status == domain.MarketStatusActive {
			result = append(result, copyMarket(m))
		}
	}

	sortByVolume(result)
	return result, nil
}

// GetByCategory retrieves all markets in a category, ordered by volume DESC.
func (s *MarketCatalog) GetByCategory(_ context.Context, category string) ([]*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Market
	for _, m := range s.data {
		if m.Category == category {
			result = append(result, copyMarket(m))
		}
	}

	sortByVolume(result)
	return result, nil
}

func sortByVolume(markets []*domain.Market) {
	sort.Slice(markets, func(i, j int) bool {
		if markets[i].Volume != markets[j].Volume {
			return markets[i].Volume > markets[j].Volume
		}
		return markets[i].ID < markets[j].ID
	})
}

func copyMarket(m *domain.Market) *domain.Market {
	c := *m
	c.Outcomes = append([]domain.Outcome(nil), m.Outcomes...)
	return &c
}

var _ storage.MarketCatalog = (*MarketCatalog)(nil)
