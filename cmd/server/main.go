// Package main runs the full engine: market pool refresh, event
// ingestion, the analysis pipeline and the WebSocket observer hub,
// plus health/status/metrics HTTP endpoints.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/analyzer"
	"github.com/SparkssL/Seer-Engine/internal/history"
	"github.com/SparkssL/Seer-Engine/internal/ingestion"
	"github.com/SparkssL/Seer-Engine/internal/llm"
	"github.com/SparkssL/Seer-Engine/internal/markets"
	"github.com/SparkssL/Seer-Engine/internal/observability"
	"github.com/SparkssL/Seer-Engine/internal/storage"
	"github.com/SparkssL/Seer-Engine/internal/storage/memory"
	"github.com/SparkssL/Seer-Engine/internal/storage/migrations"
	pgstore "github.com/SparkssL/Seer-Engine/internal/storage/postgres"
	"github.com/SparkssL/Seer-Engine/internal/venue"
	"github.com/SparkssL/Seer-Engine/internal/ws"
)

// Server holds the wired components and startup state for /status.
type Server struct {
	engine  *analyzer.Analyzer
	pool    *markets.Pool
	hub     *ws.Hub
	history *history.Store
	logger  *log.Logger

	mockEvents bool
	paperMode  bool
	started    time.Time
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	venueKey := flag.String("venue-api-key", os.Getenv("OPINION_TRADE_API_KEY"), "Trading venue API key")
	venueURL := flag.String("venue-base-url", os.Getenv("OPINION_TRADE_BASE_URL"), "Trading venue base URL")
	openaiKey := flag.String("openai-api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key")
	openaiModel := flag.String("openai-model", os.Getenv("OPENAI_MODEL"), "OpenAI model name")
	streamKey := flag.String("stream-api-key", os.Getenv("TWITTERAPI_KEY"), "Post stream API key (empty = mock events)")
	streamEndpoint := flag.String("stream-endpoint", os.Getenv("TWITTERAPI_WS_ENDPOINT"), "Post stream WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for the market catalog")
	useMemory := flag.Bool("use-memory", false, "Use in-memory market catalog instead of PostgreSQL")
	paper := flag.Bool("paper", false, "Use the paper executor instead of placing live orders")
	paperBalance := flag.Float64("paper-balance", 100, "Starting balance for the paper executor")
	marketsLimit := flag.Int("markets-limit", venue.DefaultMarketsLimit, "Markets fetched per pool refresh")
	refreshInterval := flag.Duration("refresh-interval", 5*time.Minute, "Market pool refresh interval")
	mockInterval := flag.Duration("mock-interval", ingestion.DefaultMockInterval, "Synthetic event interval when no stream key is set")
	historyCapacity := flag.Int("history-capacity", history.DefaultCapacity, "Max sessions kept in history")
	tradeSize := flag.Float64("trade-size", analyzer.DefaultTradeSizeUSDC, "Target order size in USDC")
	maxMarkets := flag.Int("max-markets", analyzer.DefaultMaxMarketsPerSession, "Max markets analyzed per session")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *venueKey == "" {
		logger.Fatal("--venue-api-key is required")
	}
	if *openaiKey == "" {
		logger.Fatal("--openai-api-key is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Println("No --postgres-dsn, market catalog runs in memory")
		*useMemory = true
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("")

	// Market catalog
	catalog, cleanup, err := createCatalog(ctx, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create market catalog: %v", err)
	}
	defer cleanup()

	// Venue client: market fetch plus live execution
	venueOpts := []venue.ClientOption{
		venue.WithMarketsLimit(*marketsLimit),
		venue.WithLogger(log.New(os.Stdout, "[venue] ", log.LstdFlags)),
	}
	if *venueURL != "" {
		venueOpts = append(venueOpts, venue.WithBaseURL(*venueURL))
	}
	venueClient := venue.NewClient(*venueKey, venueOpts...)

	var executor analyzer.Executor = venueClient
	if *paper {
		logger.Printf("Paper mode: orders are simulated against a $%.2f balance", *paperBalance)
		executor = venue.NewPaperExecutor(*paperBalance)
	}

	// LLM client
	llmOpts := []llm.ClientOption{
		llm.WithLogger(log.New(os.Stdout, "[llm] ", log.LstdFlags)),
	}
	if *openaiModel != "" {
		llmOpts = append(llmOpts, llm.WithModel(*openaiModel))
	}
	llmClient := llm.NewClient(*openaiKey, llmOpts...)

	// Market pool
	pool := markets.NewPool(venueClient,
		markets.WithCatalog(catalog),
		markets.WithLogger(log.New(os.Stdout, "[markets] ", log.LstdFlags)),
	)
	if err := pool.Refresh(ctx); err != nil {
		logger.Printf("Initial market refresh failed: %v", err)
	}
	metrics.MarketsPooled.Set(float64(pool.Len()))

	// History, hub, pipeline
	hist := history.NewStore(*historyCapacity)
	hub := ws.NewHub(hist, pool, executor,
		ws.WithLogger(log.New(os.Stdout, "[ws] ", log.LstdFlags)),
		ws.WithMetrics(metrics),
	)
	engine := analyzer.New(analyzer.Options{
		Filter:               llmClient,
		Impacts:              llmClient,
		Executor:             executor,
		Markets:              pool,
		History:              hist,
		Broadcaster:          hub,
		Logger:               log.New(os.Stdout, "[analyzer] ", log.LstdFlags),
		Metrics:              metrics,
		MaxMarketsPerSession: *maxMarkets,
		TradeSizeUSDC:        *tradeSize,
	})

	// Event source
	var source ingestion.Source
	if *streamKey != "" {
		streamOpts := []ingestion.StreamOption{
			ingestion.WithStreamLogger(log.New(os.Stdout, "[ingestion] ", log.LstdFlags)),
			ingestion.WithStreamMetrics(metrics),
		}
		if *streamEndpoint != "" {
			streamOpts = append(streamOpts, ingestion.WithEndpoint(*streamEndpoint))
		}
		source = ingestion.NewStreamSource(*streamKey, streamOpts...)
	} else {
		logger.Printf("No --stream-api-key, emitting synthetic events every %v", *mockInterval)
		source = ingestion.NewMockSource(
			ingestion.WithMockInterval(*mockInterval),
			ingestion.WithMockLogger(log.New(os.Stdout, "[ingestion] ", log.LstdFlags)),
		)
	}

	server := &Server{
		engine:     engine,
		pool:       pool,
		hub:        hub,
		history:    hist,
		logger:     logger,
		mockEvents: *streamKey == "",
		paperMode:  *paper,
		started:    time.Now(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go hub.Run(ctx)
	go engine.Run(ctx)
	go source.Run(ctx)
	go func() {
		for event := range source.Events() {
			engine.Submit(event)
		}
	}()
	go func() {
		pool.RunRefreshLoop(ctx, *refreshInterval)
	}()
	go func() {
		// Mirror pool size into the gauge alongside refreshes.
		ticker := time.NewTicker(*refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.MarketsPooled.Set(float64(pool.Len()))
			}
		}
	}()

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}
	go func() {
		logger.Printf("Starting HTTP server on %s", *listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	sig := <-sigCh
	logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}

	logger.Println("Shutdown complete")
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	// Observer stream
	mux.Handle("/ws", s.hub)

	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"uptime_seconds":    int(time.Since(s.started).Seconds()),
		"queue_depth":       s.engine.QueueDepth(),
		"markets_pooled":    s.pool.Len(),
		"connected_clients": s.hub.ClientCount(),
		"sessions_recorded": s.history.Len(),
		"mock_events":       s.mockEvents,
		"paper_mode":        s.paperMode,
	}
	if current := s.engine.Current(); current != nil {
		status["current_session"] = map[string]any{
			"id":     current.ID,
			"status": current.Status,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Printf("Failed to encode status: %v", err)
	}
}

// createCatalog creates the market catalog store.
func createCatalog(ctx context.Context, postgresDSN string, useMemory bool) (storage.MarketCatalog, func(), error) {
	if useMemory {
		return memory.NewMarketCatalog(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return pgstore.NewMarketCatalog(pool), func() { pool.Close() }, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads KEY=VALUE pairs from .env without overriding
// variables already set in the environment.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
