package ingestion

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// DefaultMockInterval is the default delay between synthetic events.
const DefaultMockInterval = 45 * time.Second

// mockTemplate is one synthetic headline.
type mockTemplate struct {
	text     string
	author   string
	handle   string
	verified bool
}

var mockTemplates = []mockTemplate{
	{
		text:     "Federal Reserve announces 0.5% interest rate cut, citing improving inflation data",
		author:   "Reuters",
		handle:   "Reuters",
		verified: true,
	},
	{
		text:     "Tesla reports Q4 deliveries beat expectations by 15%, stock surges in after-hours",
		author:   "Bloomberg",
		handle:   "business",
		verified: true,
	},
	{
		text:     "Bitcoin trading volume hits $50B in 24 hours amid renewed institutional interest",
		author:   "CoinDesk",
		handle:   "coindesk",
		verified: true,
	},
	{
		text:     "Senate passes $1.2T infrastructure bill with bipartisan support, construction stocks rally",
		author:   "The Wall Street Journal",
		handle:   "WSJ",
		verified: true,
	},
	{
		text:     "Apple announces partnership with OpenAI to integrate AI features across iOS ecosystem",
		author:   "TechCrunch",
		handle:   "TechCrunch",
		verified: true,
	},
}

// MockSource emits synthetic headline events on a timer. Used in demo
// mode when no stream API key is configured.
type MockSource struct {
	interval time.Duration
	logger   *log.Logger
	rng      *rand.Rand
	events   chan *domain.Event
}

// MockOption configures MockSource.
type MockOption func(*MockSource)

// WithMockInterval sets the delay between events.
func WithMockInterval(interval time.Duration) MockOption {
	return func(m *MockSource) {
		m.interval = interval
	}
}

// WithMockLogger sets the logger.
func WithMockLogger(logger *log.Logger) MockOption {
	return func(m *MockSource) {
		m.logger = logger
	}
}

// WithMockSeed makes the generator deterministic.
func WithMockSeed(seed int64) MockOption {
	return func(m *MockSource) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

// NewMockSource creates a synthetic event source.
func NewMockSource(opts ...MockOption) *MockSource {
	m := &MockSource{
		interval: DefaultMockInterval,
		logger:   log.New(io.Discard, "", 0),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		events:   make(chan *domain.Event, eventBufferSize),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the channel the source emits on.
func (m *MockSource) Events() <-chan *domain.Event {
	return m.events
}

// Run emits one event per interval until ctx ends, then closes the
// channel.
func (m *MockSource) Run(ctx context.Context) {
	defer close(m.events)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			event := m.Generate()
			m.logger.Printf("[ingestion] mock post from @%s: %.50s", event.Author.Handle, event.Text)
			select {
			case m.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Generate produces one synthetic event.
func (m *MockSource) Generate() *domain.Event {
	template := mockTemplates[m.rng.Intn(len(mockTemplates))]
	now := time.Now().UTC()

	return &domain.Event{
		ID:        fmt.Sprintf("mock-%d", now.UnixNano()),
		Text:      template.text,
		Timestamp: now.Format(time.RFC3339),
		Author: domain.EventAuthor{
			Name:     template.author,
			Handle:   template.handle,
			Verified: template.verified,
		},
		Engagement: domain.EventEngagement{
			Likes:   100 + m.rng.Intn(4900),
			Reposts: 50 + m.rng.Intn(1950),
			Replies: 10 + m.rng.Intn(490),
		},
	}
}
