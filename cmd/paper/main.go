// Package main is an offline harness: it drives the full pipeline with
// synthetic events, a canned market set, a keyword relevance filter and
// a deterministic impact scorer, executing against the paper executor.
// No network calls are made.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/analyzer"
	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/history"
	"github.com/SparkssL/Seer-Engine/internal/ingestion"
	"github.com/SparkssL/Seer-Engine/internal/markets"
	"github.com/SparkssL/Seer-Engine/internal/venue"
)

func main() {
	eventCount := flag.Int("events", 5, "Number of synthetic events to run")
	balance := flag.Float64("balance", 25, "Starting paper balance in USDC")
	tradeSize := flag.Float64("trade-size", analyzer.DefaultTradeSizeUSDC, "Target order size in USDC")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for the event generator")
	verbose := flag.Bool("verbose", false, "Log pipeline internals")

	flag.Parse()

	logger := log.New(os.Stdout, "[paper] ", log.LstdFlags)

	pipelineLog := log.New(io.Discard, "", 0)
	if *verbose {
		pipelineLog = log.New(os.Stdout, "[analyzer] ", log.LstdFlags)
	}

	pool := markets.NewPool(cannedFetcher{})
	if err := pool.Refresh(context.Background()); err != nil {
		logger.Fatalf("Failed to load canned markets: %v", err)
	}

	executor := venue.NewPaperExecutor(*balance)
	hist := history.NewStore(history.DefaultCapacity)
	engine := analyzer.New(analyzer.Options{
		Filter:        keywordFilter{},
		Impacts:       scriptedImpacts{},
		Executor:      executor,
		Markets:       pool,
		History:       hist,
		Logger:        pipelineLog,
		TradeSizeUSDC: *tradeSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	source := ingestion.NewMockSource(ingestion.WithMockSeed(*seed))
	logger.Printf("Running %d synthetic events against a $%.2f paper balance", *eventCount, *balance)

	for i := 0; i < *eventCount; i++ {
		event := source.Generate()
		engine.Submit(event)
		session := waitForSession(hist, i+1)
		printSession(i+1, session)
	}
	cancel()

	printSummary(hist, executor)
}

// waitForSession polls history until the n-th session lands.
func waitForSession(hist *history.Store, n int) *domain.Session {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if hist.Len() >= n {
			return hist.All()[0]
		}
		time.Sleep(10 * time.Millisecond)
	}
	log.Fatalf("session %d did not complete in time", n)
	return nil
}

func printSession(n int, session *domain.Session) {
	fmt.Printf("\n=== Session %d (%s) ===\n", n, session.Status)
	fmt.Printf("  @%s: %s\n", session.Event.Author.Handle, session.Event.Text)
	if session.FilterResult != nil && !session.FilterResult.IsRelevant {
		fmt.Printf("  Not relevant: %s\n", session.FilterResult.ReasoningSummary)
		return
	}
	for _, impact := range session.Impacts {
		fmt.Printf("  %-12s score=%.2f conf=%.2f %s %s | %s\n",
			impact.MarketID, impact.ImpactScore, impact.Confidence,
			impact.Decision.Action, impact.Decision.Side, impact.MarketQuestion)
	}
	for _, trade := range session.Trades {
		if trade.Status == domain.TradeStatusConfirmed {
			fmt.Printf("  TRADE %s %s $%.2f @ %.2f -> %s\n",
				trade.MarketID, trade.Side, trade.Amount, trade.Price, trade.TxHash)
		} else {
			fmt.Printf("  TRADE %s %s $%.2f FAILED: %s\n",
				trade.MarketID, trade.Side, trade.Amount, trade.Error)
		}
	}
}

func printSummary(hist *history.Store, executor *venue.PaperExecutor) {
	analytics := hist.Analytics()
	remaining, _ := executor.GetBalance(context.Background())

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("  Sessions:   %d complete, %d error\n", analytics.CompletedSessions, analytics.ErroredSessions)
	fmt.Printf("  Trades:     %d total, %.0f%% success, $%.2f volume\n",
		analytics.TotalTrades, analytics.SuccessRate*100, analytics.TotalVolume)
	fmt.Printf("  Balance:    $%.2f remaining\n", remaining.Available)
}

// cannedFetcher serves a fixed market set so the harness needs no venue.
type cannedFetcher struct{}

func (cannedFetcher) FetchMarkets(ctx context.Context) ([]*domain.Market, error) {
	return []*domain.Market{
		cannedMarket("fed-cut-q3", "Will the Fed cut rates by 50bps this quarter?", "Economics", 0.42),
		cannedMarket("tesla-400k", "Will Tesla deliver over 400k vehicles this quarter?", "Companies", 0.55),
		cannedMarket("btc-100k", "Will Bitcoin close above $100k this month?", "Crypto", 0.38),
		cannedMarket("infra-bill", "Will the Senate pass the infrastructure bill this session?", "Politics", 0.61),
		cannedMarket("apple-ai", "Will Apple announce a major AI partnership this year?", "Tech", 0.47),
	}, nil
}

func cannedMarket(id, question, category string, yesPrice float64) *domain.Market {
	return &domain.Market{
		ID:        id,
		Question:  question,
		Category:  category,
		Volume:    100000,
		Liquidity: 25000,
		Status:    domain.MarketStatusActive,
		YesLabel:  "YES",
		NoLabel:   "NO",
		Outcomes: []domain.Outcome{
			{ID: id + "-yes", Name: "YES", Probability: yesPrice},
			{ID: id + "-no", Name: "NO", Probability: 1 - yesPrice},
		},
	}
}

// keywordFilter marks an event relevant when its text shares words with
// a market question. Cheap stand-in for the hosted relevance filter.
type keywordFilter struct{}

func (f keywordFilter) FilterMarkets(ctx context.Context, event *domain.Event, summaries []domain.MarketSummary) (*domain.FilterResult, error) {
	words := tokenize(event.Text)

	var ids []string
	for _, summary := range summaries {
		if overlap(words, tokenize(summary.Question)) >= 2 {
			ids = append(ids, summary.ID)
		}
	}

	if len(ids) == 0 {
		return &domain.FilterResult{
			IsRelevant:       false,
			ReasoningSummary: "No market question shares keywords with the post",
		}, nil
	}
	return &domain.FilterResult{
		IsRelevant:        true,
		RelevantMarketIDs: ids,
		ReasoningSummary:  fmt.Sprintf("%d markets share keywords with the post", len(ids)),
	}, nil
}

// scriptedImpacts scores impact deterministically from engagement so
// harness runs are reproducible for a given seed.
type scriptedImpacts struct{}

func (scriptedImpacts) AnalyzeImpact(ctx context.Context, event *domain.Event, market *domain.Market, sizeUSDC float64) (*domain.MarketImpact, error) {
	score := 0.45 + float64(event.Engagement.Likes)/10000
	if score > 0.95 {
		score = 0.95
	}
	confidence := 0.55 + float64(event.Engagement.Reposts)/4000
	if confidence > 0.9 {
		confidence = 0.9
	}

	impact := &domain.MarketImpact{
		MarketID:    market.ID,
		Sentiment:   domain.SentimentPositive,
		ImpactScore: score,
		Confidence:  confidence,
		Decision: domain.TradeDecision{
			Action:         domain.ActionHold,
			SuggestedPrice: market.YesPrice(),
			SizeUSDC:       0,
		},
		Reasoning: fmt.Sprintf("Engagement-weighted score %.2f at confidence %.2f", score, confidence),
	}
	if score > 0.6 && confidence > 0.7 {
		impact.Decision = domain.TradeDecision{
			Action:         domain.ActionBuy,
			Side:           market.YesLabel,
			SuggestedPrice: market.YesPrice(),
			SizeUSDC:       sizeUSDC,
		}
	}
	return impact, nil
}

var stopWords = map[string]bool{
	"the": true, "this": true, "will": true, "with": true, "over": true,
	"amid": true, "and": true, "for": true, "its": true, "has": true,
}

func tokenize(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?$%:;\"'()")
		if len(word) < 3 || stopWords[word] {
			continue
		}
		words[word] = true
	}
	return words
}

func overlap(a, b map[string]bool) int {
	count := 0
	for word := range a {
		if b[word] {
			count++
		}
	}
	return count
}
