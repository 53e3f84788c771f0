// Package analyzer runs the event decision pipeline. Each submitted event
// gets exactly one session: relevance filtering over the market pool,
// per-market impact analysis, threshold gating and balance-clamped
// execution. At most one session is live at a time; further events queue.
package analyzer

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/observability"
)

// Default configuration values.
const (
	DefaultMaxMarketsPerSession = 5
	DefaultTradeSizeUSDC        = 5.0
	DefaultCapabilityTimeout    = 60 * time.Second
)

// MarketFilter decides which pooled markets an event could impact.
type MarketFilter interface {
	FilterMarkets(ctx context.Context, event *domain.Event, summaries []domain.MarketSummary) (*domain.FilterResult, error)
}

// ImpactAnalyzer scores an event's impact on one market.
type ImpactAnalyzer interface {
	AnalyzeImpact(ctx context.Context, event *domain.Event, market *domain.Market, sizeUSDC float64) (*domain.MarketImpact, error)
}

// Executor reads the balance and places orders on the venue.
type Executor interface {
	GetBalance(ctx context.Context) (domain.Balance, error)
	PlaceOrder(ctx context.Context, marketID, side string, amount, price float64) (*domain.TradeExecution, error)
}

// MarketSource is the read side of the market pool.
type MarketSource interface {
	Summaries() []domain.MarketSummary
	Get(id string) (*domain.Market, bool)
}

// Broadcaster receives session snapshots as the pipeline progresses.
// Implementations must not retain or mutate the snapshot's internals
// beyond serializing it; the analyzer hands over deep copies.
type Broadcaster interface {
	SessionStarted(session *domain.Session)
	SessionUpdated(session *domain.Session)
	SessionCompleted(session *domain.Session)
}

// Recorder stores terminal sessions.
type Recorder interface {
	Record(session *domain.Session)
}

// Options for creating an Analyzer.
type Options struct {
	Filter      MarketFilter
	Impacts     ImpactAnalyzer
	Executor    Executor
	Markets     MarketSource
	History     Recorder
	Broadcaster Broadcaster

	Logger  *log.Logger
	Metrics *observability.Metrics

	// MaxMarketsPerSession caps how many filtered markets get analyzed.
	MaxMarketsPerSession int
	// TradeSizeUSDC is the target order size passed to impact analysis.
	TradeSizeUSDC float64
	// CapabilityTimeout bounds every external call.
	CapabilityTimeout time.Duration
}

// Analyzer owns the session queue and the single pipeline worker.
type Analyzer struct {
	filter      MarketFilter
	impacts     ImpactAnalyzer
	executor    Executor
	markets     MarketSource
	history     Recorder
	broadcaster Broadcaster
	logger      *log.Logger
	metrics     *observability.Metrics

	maxMarkets    int
	tradeSize     float64
	capTimeout    time.Duration

	mu       sync.Mutex
	queue    []*domain.Event
	snapshot *domain.Session // last published state of the live session
	wake     chan struct{}
}

// New creates an Analyzer.
func New(opts Options) *Analyzer {
	a := &Analyzer{
		filter:      opts.Filter,
		impacts:     opts.Impacts,
		executor:    opts.Executor,
		markets:     opts.Markets,
		history:     opts.History,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		maxMarkets:  opts.MaxMarketsPerSession,
		tradeSize:   opts.TradeSizeUSDC,
		capTimeout:  opts.CapabilityTimeout,
		wake:        make(chan struct{}, 1),
	}
	if a.logger == nil {
		a.logger = log.New(io.Discard, "", 0)
	}
	if a.maxMarkets <= 0 {
		a.maxMarkets = DefaultMaxMarketsPerSession
	}
	if a.tradeSize <= 0 {
		a.tradeSize = DefaultTradeSizeUSDC
	}
	if a.capTimeout <= 0 {
		a.capTimeout = DefaultCapabilityTimeout
	}
	return a
}

// Submit enqueues an event for processing. Never blocks; the queue is
// unbounded FIFO with no deduplication.
func (a *Analyzer) Submit(event *domain.Event) {
	if event == nil {
		return
	}

	a.mu.Lock()
	a.queue = append(a.queue, event)
	depth := len(a.queue)
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.SessionQueue.Set(float64(depth))
	}

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is cancelled. Only this goroutine mutates
// live sessions; call it exactly once.
func (a *Analyzer) Run(ctx context.Context) {
	for {
		event := a.dequeue()
		if event == nil {
			select {
			case <-ctx.Done():
				return
			case <-a.wake:
				continue
			}
		}

		a.runSession(ctx, event)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (a *Analyzer) dequeue() *domain.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.queue) == 0 {
		return nil
	}
	event := a.queue[0]
	a.queue = a.queue[1:]

	if a.metrics != nil {
		a.metrics.SessionQueue.Set(float64(len(a.queue)))
	}
	return event
}

// QueueDepth returns the number of events waiting for a session.
func (a *Analyzer) QueueDepth() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Current returns the last published snapshot of the live session, or nil
// when no session is running. Snapshots are deep copies; callers may keep
// them.
func (a *Analyzer) Current() *domain.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.snapshot == nil {
		return nil
	}
	return a.snapshot.Clone()
}

func (a *Analyzer) setSnapshot(snapshot *domain.Session) {
	a.mu.Lock()
	a.snapshot = snapshot
	a.mu.Unlock()
}
