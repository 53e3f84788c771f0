package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

func recordedSession(id string, status string, start time.Time) *domain.Session {
	return &domain.Session{
		ID: id,
		Event: domain.Event{
			ID:   "event-" + id,
			Text: "Fed cuts rates",
			Author: domain.EventAuthor{
				Name:   "Breaking News",
				Handle: "breaking",
			},
		},
		Status:    status,
		StartTime: start,
	}
}

func TestStore_RecordNewestFirst(t *testing.T) {
	store := NewStore(10)
	now := time.Now()

	store.Record(recordedSession("s-1", domain.SessionStatusComplete, now))
	store.Record(recordedSession("s-2", domain.SessionStatusComplete, now))

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}
	if all[0].ID != "s-2" || all[1].ID != "s-1" {
		t.Errorf("expected newest first, got %s then %s", all[0].ID, all[1].ID)
	}
}

func TestStore_EvictsAtCapacity(t *testing.T) {
	store := NewStore(3)
	now := time.Now()

	for i := 1; i <= 5; i++ {
		store.Record(recordedSession(fmt.Sprintf("s-%d", i), domain.SessionStatusComplete, now))
	}

	if store.Len() != 3 {
		t.Fatalf("expected capacity 3, got %d", store.Len())
	}
	all := store.All()
	if all[0].ID != "s-5" || all[2].ID != "s-3" {
		t.Errorf("oldest entries should be evicted, got %s..%s", all[0].ID, all[2].ID)
	}
	if _, ok := store.Get("s-1"); ok {
		t.Error("s-1 should have been evicted")
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := NewStore(10)
	live := recordedSession("s-1", domain.SessionStatusActive, time.Now())
	live.Steps = []domain.Step{{ID: "step-1", Type: domain.StepReceiving}}

	store.Record(live)

	// Mutate the live session after recording.
	live.Status = domain.SessionStatusError
	live.Steps[0].Status = domain.StepStatusError
	live.Trades = append(live.Trades, domain.TradeExecution{ID: "t-1"})

	stored, ok := store.Get("s-1")
	if !ok {
		t.Fatal("session not found")
	}
	if stored.Status != domain.SessionStatusActive {
		t.Error("stored status must not follow live mutation")
	}
	if stored.Steps[0].Status == domain.StepStatusError {
		t.Error("stored steps must not follow live mutation")
	}
	if len(stored.Trades) != 0 {
		t.Error("stored trades must not follow live mutation")
	}

	// Mutating a returned snapshot must not change the store either.
	stored.Status = domain.SessionStatusError
	again, _ := store.Get("s-1")
	if again.Status != domain.SessionStatusActive {
		t.Error("returned snapshots must be independent copies")
	}
}

func TestStore_QueryFilters(t *testing.T) {
	store := NewStore(50)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	complete := recordedSession("s-ok", domain.SessionStatusComplete, now)
	complete.Impacts = []domain.MarketImpact{
		{MarketID: "m-1", MarketCategory: "Crypto", Confidence: 0.85},
	}
	complete.Trades = []domain.TradeExecution{
		{ID: "t-1", Status: domain.TradeStatusConfirmed, Amount: 5},
	}

	errored := recordedSession("s-err", domain.SessionStatusError, now.AddDate(0, 0, -10))
	errored.Event.Author = domain.EventAuthor{Name: "Other Account", Handle: "other"}
	errored.Event.Text = "unrelated chatter"
	errored.Impacts = []domain.MarketImpact{
		{MarketID: "m-2", MarketCategory: "Politics", Confidence: 0.3},
	}

	store.Record(errored)
	store.Record(complete)

	cases := []struct {
		name   string
		filter domain.HistoryFilter
		want   []string
	}{
		{"no constraints", domain.HistoryFilter{}, []string{"s-ok", "s-err"}},
		{"status", domain.HistoryFilter{Statuses: []string{domain.SessionStatusError}}, []string{"s-err"}},
		{"date from", domain.HistoryFilter{DateFrom: timePtr(now.AddDate(0, 0, -1))}, []string{"s-ok"}},
		{"date to", domain.HistoryFilter{DateTo: timePtr(now.AddDate(0, 0, -1))}, []string{"s-err"}},
		{"category", domain.HistoryFilter{MarketCategory: []string{"Crypto"}}, []string{"s-ok"}},
		{"author substring", domain.HistoryFilter{Author: "BREAK"}, []string{"s-ok"}},
		{"author by name", domain.HistoryFilter{Author: "other account"}, []string{"s-err"}},
		{"event text", domain.HistoryFilter{EventText: "fed cuts"}, []string{"s-ok"}},
		{"min trades", domain.HistoryFilter{MinTrades: intPtr(1)}, []string{"s-ok"}},
		{"max trades", domain.HistoryFilter{MaxTrades: intPtr(0)}, []string{"s-err"}},
		{"min confidence percent", domain.HistoryFilter{MinConfidence: floatPtr(80)}, []string{"s-ok"}},
		{"conjunctive", domain.HistoryFilter{
			Statuses:      []string{domain.SessionStatusComplete},
			MinConfidence: floatPtr(90),
		}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := store.Query(tc.filter)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d results, got %d", len(tc.want), len(got))
			}
			for i, want := range tc.want {
				if got[i].ID != want {
					t.Errorf("result %d: expected %s, got %s", i, want, got[i].ID)
				}
			}
		})
	}
}

func TestAnalytics_Empty(t *testing.T) {
	store := NewStore(10)
	a := store.Analytics()

	if a.TotalSessions != 0 || a.TotalTrades != 0 {
		t.Errorf("expected zero counts, got %+v", a)
	}
	if a.SuccessRate != 0 {
		t.Errorf("success rate must be 0 with no trades, got %v", a.SuccessRate)
	}
	if len(a.TimeSeries) != timeSeriesDays {
		t.Errorf("time series must span %d days even when empty, got %d", timeSeriesDays, len(a.TimeSeries))
	}
}

func TestAnalytics_Aggregates(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	s1 := recordedSession("s-1", domain.SessionStatusComplete, now)
	s1.Impacts = []domain.MarketImpact{
		{MarketCategory: "Crypto", Sentiment: domain.SentimentPositive, Confidence: 0.8},
		{MarketCategory: "Crypto", Sentiment: domain.SentimentNeutral, Confidence: 0.4},
	}
	s1.Trades = []domain.TradeExecution{
		{Status: domain.TradeStatusConfirmed, Amount: 5},
		{Status: domain.TradeStatusFailed},
	}

	s2 := recordedSession("s-2", domain.SessionStatusError, now.AddDate(0, 0, -1))
	s2.Impacts = []domain.MarketImpact{
		{MarketCategory: "Politics", Sentiment: domain.SentimentNegative, Confidence: 0.6},
	}

	s3 := recordedSession("s-3", domain.SessionStatusComplete, now)
	s3.Event.Author = domain.EventAuthor{Name: "Other", Handle: "other"}
	s3.Trades = []domain.TradeExecution{
		{Status: domain.TradeStatusConfirmed, Amount: 3},
	}

	sessions := []*domain.Session{s3, s2, s1}
	a := computeAnalytics(sessions, now)

	if a.TotalSessions != 3 || a.CompletedSessions != 2 || a.ErroredSessions != 1 {
		t.Errorf("unexpected session counts: %+v", a)
	}
	if a.TotalTrades != 3 || a.ConfirmedTrades != 2 || a.FailedTrades != 1 {
		t.Errorf("unexpected trade counts: %+v", a)
	}
	if a.SuccessRate < 0.66 || a.SuccessRate > 0.67 {
		t.Errorf("expected success rate 2/3, got %v", a.SuccessRate)
	}
	if a.TotalVolume != 8 {
		t.Errorf("expected confirmed volume 8, got %v", a.TotalVolume)
	}
	if a.CategoryBreakdown["Crypto"] != 2 || a.CategoryBreakdown["Politics"] != 1 {
		t.Errorf("unexpected category breakdown: %v", a.CategoryBreakdown)
	}
	if a.SentimentDistribution[domain.SentimentPositive] != 1 {
		t.Errorf("unexpected sentiment distribution: %v", a.SentimentDistribution)
	}
	// (0.8 + 0.4 + 0.6) / 3 * 100
	if a.AverageConfidence < 59.9 || a.AverageConfidence > 60.1 {
		t.Errorf("expected average confidence ~60, got %v", a.AverageConfidence)
	}

	if len(a.TopAuthors) != 2 {
		t.Fatalf("expected 2 authors, got %d", len(a.TopAuthors))
	}
	if a.TopAuthors[0].Handle != "breaking" || a.TopAuthors[0].Count != 2 {
		t.Errorf("unexpected top author: %+v", a.TopAuthors[0])
	}
}

func TestAnalytics_TimeSeries(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	today := recordedSession("s-today", domain.SessionStatusComplete, now)
	today.Trades = []domain.TradeExecution{{Status: domain.TradeStatusConfirmed, Amount: 5}}

	old := recordedSession("s-old", domain.SessionStatusComplete, now.AddDate(0, 0, -40))

	a := computeAnalytics([]*domain.Session{today, old}, now)

	if len(a.TimeSeries) != timeSeriesDays {
		t.Fatalf("expected %d points, got %d", timeSeriesDays, len(a.TimeSeries))
	}

	first := a.TimeSeries[0]
	last := a.TimeSeries[timeSeriesDays-1]
	if first.Date != now.AddDate(0, 0, -(timeSeriesDays-1)).Format("2006-01-02") {
		t.Errorf("series should start %d days back, got %s", timeSeriesDays-1, first.Date)
	}
	if last.Date != "2026-08-30" {
		t.Errorf("series should end today, got %s", last.Date)
	}
	if last.Sessions != 1 || last.Trades != 1 || last.ConfirmedVolume != 5 {
		t.Errorf("today's point should carry activity: %+v", last)
	}
	// The 40-day-old session is outside the window.
	for _, point := range a.TimeSeries[:timeSeriesDays-1] {
		if point.Sessions != 0 {
			t.Errorf("expected zero-filled day, got %+v", point)
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(v int) *int              { return &v }
func floatPtr(v float64) *float64    { return &v }
