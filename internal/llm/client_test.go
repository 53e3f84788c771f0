package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

func testEvent() *domain.Event {
	return &domain.Event{
		ID:   "event-1",
		Text: "Fed announces emergency rate cut",
		Author: domain.EventAuthor{
			Name:     "Breaking News",
			Handle:   "breaking",
			Verified: true,
		},
		Timestamp:  "2026-08-30T12:00:00Z",
		Engagement: domain.EventEngagement{Likes: 1200, Reposts: 400},
	}
}

func testAnalysisMarket() *domain.Market {
	return &domain.Market{
		ID:       "market-1",
		Question: "Will the Fed cut rates this quarter?",
		Category: "Economy",
		Volume:   250000,
		Status:   domain.MarketStatusActive,
		EndDate:  "2026-09-30",
		YesLabel: "YES",
		NoLabel:  "NO",
		Outcomes: []domain.Outcome{
			{ID: "o-yes", Name: "YES", Probability: 0.4, Change24h: 2.0},
			{ID: "o-no", Name: "NO", Probability: 0.6, Change24h: -2.0},
		},
	}
}

// completionServer returns a test server that answers every chat-completion
// request with the given message content.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(serverURL string) *Client {
	return NewClient("test-key", WithBaseURL(serverURL))
}

func TestFilterMarkets_Relevant(t *testing.T) {
	content := `{"is_relevant": true, "relevant_market_ids": ["market-1", "market-2"], "reasoning_summary": "Direct rate policy impact"}`
	server := completionServer(t, content)
	defer server.Close()

	client := newTestClient(server.URL)
	summaries := []domain.MarketSummary{
		{ID: "market-1", Question: "Will the Fed cut rates?", Category: "Economy"},
		{ID: "market-2", Question: "Will inflation exceed 3%?", Category: "Economy"},
	}

	result, err := client.FilterMarkets(context.Background(), testEvent(), summaries)
	if err != nil {
		t.Fatalf("FilterMarkets failed: %v", err)
	}
	if !result.IsRelevant {
		t.Error("expected relevant verdict")
	}
	if len(result.RelevantMarketIDs) != 2 {
		t.Errorf("expected 2 market IDs, got %d", len(result.RelevantMarketIDs))
	}
	if result.ReasoningSummary != "Direct rate policy impact" {
		t.Errorf("unexpected summary: %q", result.ReasoningSummary)
	}
}

func TestFilterMarkets_IrrelevantClearsIDs(t *testing.T) {
	// A contradictory response: not relevant but IDs present.
	content := `{"is_relevant": false, "relevant_market_ids": ["market-1"], "reasoning_summary": "No impact"}`
	server := completionServer(t, content)
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FilterMarkets(context.Background(), testEvent(), nil)
	if err != nil {
		t.Fatalf("FilterMarkets failed: %v", err)
	}
	if result.IsRelevant {
		t.Error("expected irrelevant verdict")
	}
	if len(result.RelevantMarketIDs) != 0 {
		t.Errorf("expected no market IDs for irrelevant verdict, got %v", result.RelevantMarketIDs)
	}
}

func TestFilterMarkets_MalformedResponse(t *testing.T) {
	server := completionServer(t, "not json at all")
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FilterMarkets(context.Background(), testEvent(), nil)
	if err != nil {
		t.Fatalf("expected nil error on malformed response, got %v", err)
	}
	if result.IsRelevant {
		t.Error("malformed response must degrade to irrelevant")
	}
	if result.ReasoningSummary == "" {
		t.Error("default result should carry an explanatory summary")
	}
}

func TestFilterMarkets_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FilterMarkets(context.Background(), testEvent(), nil)
	if err != nil {
		t.Fatalf("expected nil error on server error, got %v", err)
	}
	if result.IsRelevant {
		t.Error("server error must degrade to irrelevant")
	}
}

func TestAnalyzeImpact_ValidResponse(t *testing.T) {
	content := `{
		"market_id": "market-1",
		"sentiment": "POSITIVE",
		"impact_score": 0.85,
		"confidence": 0.9,
		"reasoning_steps": ["rate cut confirmed", "direct market impact", "buy the YES side"],
		"trade_decision": {"action": "BUY", "side": "YES", "suggested_price": 0.55, "size_usdc": 5},
		"human_readable_reason": "Emergency cut strongly favors YES"
	}`
	server := completionServer(t, content)
	defer server.Close()

	client := newTestClient(server.URL)
	impact, err := client.AnalyzeImpact(context.Background(), testEvent(), testAnalysisMarket(), 5)
	if err != nil {
		t.Fatalf("AnalyzeImpact failed: %v", err)
	}
	if impact.Sentiment != domain.SentimentPositive {
		t.Errorf("expected POSITIVE, got %s", impact.Sentiment)
	}
	if impact.ImpactScore != 0.85 || impact.Confidence != 0.9 {
		t.Errorf("unexpected scores: impact=%v confidence=%v", impact.ImpactScore, impact.Confidence)
	}
	if impact.Decision.Action != domain.ActionBuy || impact.Decision.Side != "YES" {
		t.Errorf("unexpected decision: %+v", impact.Decision)
	}
	if len(impact.ReasoningSteps) != 3 {
		t.Errorf("expected 3 reasoning steps, got %d", len(impact.ReasoningSteps))
	}
}

func TestAnalyzeImpact_ClampsOutOfRangeValues(t *testing.T) {
	content := `{
		"market_id": "market-1",
		"sentiment": "positive",
		"impact_score": 1.7,
		"confidence": -0.3,
		"trade_decision": {"action": "buy", "side": "yes", "suggested_price": 1.5, "size_usdc": -10},
		"human_readable_reason": "r"
	}`
	server := completionServer(t, content)
	defer server.Close()

	client := newTestClient(server.URL)
	impact, err := client.AnalyzeImpact(context.Background(), testEvent(), testAnalysisMarket(), 5)
	if err != nil {
		t.Fatalf("AnalyzeImpact failed: %v", err)
	}
	if impact.Sentiment != domain.SentimentPositive {
		t.Errorf("lowercase sentiment should normalize, got %s", impact.Sentiment)
	}
	if impact.ImpactScore != 1.0 {
		t.Errorf("impact score should clamp to 1.0, got %v", impact.ImpactScore)
	}
	if impact.Confidence != 0 {
		t.Errorf("confidence should clamp to 0, got %v", impact.Confidence)
	}
	// Out-of-range price falls back to the current market price.
	if impact.Decision.SuggestedPrice != 0.4 {
		t.Errorf("expected price fallback to 0.4, got %v", impact.Decision.SuggestedPrice)
	}
	if impact.Decision.SizeUSDC != 0 {
		t.Errorf("negative size should clamp to 0, got %v", impact.Decision.SizeUSDC)
	}
	if impact.Decision.Side != "YES" {
		t.Errorf("lowercase side should normalize to market label, got %q", impact.Decision.Side)
	}
}

func TestAnalyzeImpact_UnknownValuesDegradeToHold(t *testing.T) {
	content := `{
		"market_id": "market-1",
		"sentiment": "BULLISH",
		"impact_score": 0.9,
		"confidence": 0.9,
		"trade_decision": {"action": "YOLO", "side": "MAYBE", "suggested_price": 0.5, "size_usdc": 5},
		"human_readable_reason": "r"
	}`
	server := completionServer(t, content)
	defer server.Close()

	client := newTestClient(server.URL)
	impact, err := client.AnalyzeImpact(context.Background(), testEvent(), testAnalysisMarket(), 5)
	if err != nil {
		t.Fatalf("AnalyzeImpact failed: %v", err)
	}
	if impact.Sentiment != domain.SentimentNeutral {
		t.Errorf("unknown sentiment should degrade to NEUTRAL, got %s", impact.Sentiment)
	}
	if impact.Decision.Action != domain.ActionHold {
		t.Errorf("unknown action should degrade to HOLD, got %s", impact.Decision.Action)
	}
	if impact.Decision.Side != "" {
		t.Errorf("HOLD must carry empty side, got %q", impact.Decision.Side)
	}
}

func TestAnalyzeImpact_FailureReturnsNeutralDefault(t *testing.T) {
	server := completionServer(t, "{broken")
	defer server.Close()

	client := newTestClient(server.URL)
	market := testAnalysisMarket()
	impact, err := client.AnalyzeImpact(context.Background(), testEvent(), market, 5)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if impact.MarketID != market.ID {
		t.Errorf("default impact must carry market ID")
	}
	if impact.Sentiment != domain.SentimentNeutral || impact.ImpactScore != 0 || impact.Confidence != 0 {
		t.Errorf("expected neutral zero default, got %+v", impact)
	}
	if impact.Decision.Action != domain.ActionHold || impact.Decision.SizeUSDC != 0 {
		t.Errorf("expected HOLD/size 0 default, got %+v", impact.Decision)
	}
	if impact.Decision.SuggestedPrice != 0.4 {
		t.Errorf("default price should be current market price, got %v", impact.Decision.SuggestedPrice)
	}
}

func TestNormalizeSide_CustomLabels(t *testing.T) {
	market := &domain.Market{YesLabel: "UP", NoLabel: "DOWN"}

	cases := []struct {
		in   string
		want string
	}{
		{"UP", "UP"},
		{"up", "UP"},
		{"YES", "UP"},
		{"DOWN", "DOWN"},
		{"no", "DOWN"},
		{"SIDEWAYS", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeSide(tc.in, market); got != tc.want {
			t.Errorf("normalizeSide(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
