// Package markets maintains the in-memory pool of tradeable markets the
// pipeline filters against. The pool is refreshed from the venue and
// mirrored into the market catalog; readers always see a consistent
// snapshot.
package markets

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/storage"
)

// Fetcher lists tradeable markets from the venue.
type Fetcher interface {
	FetchMarkets(ctx context.Context) ([]*domain.Market, error)
}

// Pool is a read-mostly cache of tradeable markets.
type Pool struct {
	fetcher Fetcher
	catalog storage.MarketCatalog
	logger  *log.Logger

	mu      sync.RWMutex
	markets []*domain.Market
	byID    map[string]*domain.Market
}

// PoolOption configures Pool.
type PoolOption func(*Pool)

// WithCatalog mirrors every refresh into the given catalog store.
func WithCatalog(catalog storage.MarketCatalog) PoolOption {
	return func(p *Pool) {
		p.catalog = catalog
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates an empty pool backed by the fetcher.
func NewPool(fetcher Fetcher, opts ...PoolOption) *Pool {
	p := &Pool{
		fetcher: fetcher,
		logger:  log.New(io.Discard, "", 0),
		byID:    make(map[string]*domain.Market),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh replaces the pool contents with the venue's current market list.
// On fetch failure the previous contents are kept. Catalog mirror failures
// are logged but do not fail the refresh.
func (p *Pool) Refresh(ctx context.Context) error {
	fetched, err := p.fetcher.FetchMarkets(ctx)
	if err != nil {
		return fmt.Errorf("refresh markets: %w", err)
	}

	byID := make(map[string]*domain.Market, len(fetched))
	for _, m := range fetched {
		byID[m.ID] = m
	}

	p.mu.Lock()
	p.markets = fetched
	p.byID = byID
	p.mu.Unlock()

	if p.catalog != nil {
		if err := p.catalog.UpsertBulk(ctx, fetched); err != nil {
			p.logger.Printf("[markets] catalog mirror failed: %v", err)
		}
	}

	p.logger.Printf("[markets] pool refreshed: %d markets", len(fetched))
	return nil
}

// RunRefreshLoop refreshes the pool on the given interval until ctx ends.
func (p *Pool) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.logger.Printf("[markets] refresh failed: %v", err)
			}
		}
	}
}

// Active returns the current markets in venue order.
func (p *Pool) Active() []*domain.Market {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*domain.Market(nil), p.markets...)
}

// Summaries returns the compact form of every pooled market, used by the
// relevance filter.
func (p *Pool) Summaries() []domain.MarketSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summaries := make([]domain.MarketSummary, len(p.markets))
	for i, m := range p.markets {
		summaries[i] = m.Summarize()
	}
	return summaries
}

// Get returns the pooled market with the given ID.
func (p *Pool) Get(id string) (*domain.Market, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.byID[id]
	return m, ok
}

// Len returns the number of pooled markets.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.markets)
}
