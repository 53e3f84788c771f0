package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/storage"
)

func TestMarketCatalog_UpsertAndGet(t *testing.T) {
	catalog := NewMarketCatalog()
	ctx := context.Background()

	m := &domain.Market{
		ID:       "101",
		Question: "Will the Fed cut rates in September?",
		Category: "Economics",
		Volume:   125000,
		Status:   domain.MarketStatusActive,
		YesLabel: "YES",
		NoLabel:  "NO",
		Outcomes: []domain.Outcome{
			{ID: "101-yes", Name: "YES", Probability: 0.62},
			{ID: "101-no", Name: "NO", Probability: 0.38},
		},
	}

	if err := catalog.Upsert(ctx, m); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := catalog.GetByID(ctx, "101")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Question != m.Question {
		t.Errorf("Question mismatch: got %q, want %q", got.Question, m.Question)
	}
	if len(got.Outcomes) != 2 {
		t.Errorf("Expected 2 outcomes, got %d", len(got.Outcomes))
	}
}

func TestMarketCatalog_UpsertReplaces(t *testing.T) {
	catalog := NewMarketCatalog()
	ctx := context.Background()

	first := &domain.Market{ID: "101", Question: "Old question", Status: domain.MarketStatusActive}
	if err := catalog.Upsert(ctx, first); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}

	second := &domain.Market{ID: "101", Question: "New question", Status: domain.MarketStatusResolved}
	if err := catalog.Upsert(ctx, second); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, err := catalog.GetByID(ctx, "101")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Question != "New question" {
		t.Errorf("Expected replaced question, got %q", got.Question)
	}
}

func TestMarketCatalog_NotFound(t *testing.T) {
	catalog := NewMarketCatalog()

	_, err := catalog.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMarketCatalog_InvalidInput(t *testing.T) {
	catalog := NewMarketCatalog()
	ctx := context.Background()

	if err := catalog.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}

	if err := catalog.Upsert(ctx, &domain.Market{ID: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}

func TestMarketCatalog_GetActiveOrdering(t *testing.T) {
	catalog := NewMarketCatalog()
	ctx := context.Background()

	markets := []*domain.Market{
		{ID: "1", Category: "Crypto", Volume: 100, Status: domain.MarketStatusActive},
		{ID: "2", Category: "Crypto", Volume: 5000, Status: domain.MarketStatusActive},
		{ID: "3", Category: "Politics", Volume: 900, Status: domain.MarketStatusResolved},
		{ID: "4", Category: "Politics", Volume: 300, Status: domain.MarketStatusActive},
	}

	if err := catalog.UpsertBulk(ctx, markets); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	active, err := catalog.GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}

	if len(active) != 3 {
		t.Fatalf("Expected 3 active markets, got %d", len(active))
	}

	// Ordered by volume DESC
	if active[0].ID != "2" || active[1].ID != "4" || active[2].ID != "1" {
		t.Errorf("Wrong ordering: got %s, %s, %s", active[0].ID, active[1].ID, active[2].ID)
	}
}

func TestMarketCatalog_GetByCategory(t *testing.T) {
	catalog := NewMarketCatalog()
	ctx := context.Background()

	markets := []*domain.Market{
		{ID: "1", Category: "Crypto", Volume: 100, Status: domain.MarketStatusActive},
		{ID: "2", Category: "Politics", Volume: 5000, Status: domain.MarketStatusActive},
		{ID: "3", Category: "Crypto", Volume: 900, Status: domain.MarketStatusActive},
	}

	if err := catalog.UpsertBulk(ctx, markets); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	crypto, err := catalog.GetByCategory(ctx, "Crypto")
	if err != nil {
		t.Fatalf("GetByCategory failed: %v", err)
	}

	if len(crypto) != 2 {
		t.Fatalf("Expected 2 crypto markets, got %d", len(crypto))
	}
	if crypto[0].ID != "3" {
		t.Errorf("Expected highest-volume first, got %s", crypto[0].ID)
	}
}

func TestMarketCatalog_SnapshotIsolation(t *testing.T) {
	catalog := NewMarketCatalog()
	ctx := context.Background()

	m := &domain.Market{
		ID:       "101",
		Question: "Original",
		Status:   domain.MarketStatusActive,
		Outcomes: []domain.Outcome{{ID: "101-yes", Name: "YES", Probability: 0.5}},
	}
	if err := catalog.Upsert(ctx, m); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Mutating the caller's value must not affect the stored copy
	m.Question = "Mutated"
	m.Outcomes[0].Probability = 0.99

	got, _ := catalog.GetByID(ctx, "101")
	if got.Question != "Original" {
		t.Errorf("Stored market mutated via caller reference: %q", got.Question)
	}
	if got.Outcomes[0].Probability != 0.5 {
		t.Errorf("Stored outcome mutated via caller reference: %f", got.Outcomes[0].Probability)
	}
}
