// Package ingestion produces the event stream the pipeline consumes:
// either a live WebSocket feed of social posts or a synthetic generator
// for demo mode.
package ingestion

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/observability"
)

// Source emits events on a channel until its Run loop ends.
type Source interface {
	Events() <-chan *domain.Event
	Run(ctx context.Context)
}

// Default stream configuration.
const (
	DefaultStreamEndpoint   = "wss://ws.twitterapi.io/twitter/tweet/websocket"
	DefaultReconnectDelay   = 1 * time.Second
	DefaultMaxReconnectWait = 60 * time.Second
	DefaultReadTimeout      = 120 * time.Second

	eventBufferSize = 64
)

// StreamSource consumes the live post stream over WebSocket, reconnecting
// with capped exponential backoff when the connection drops.
type StreamSource struct {
	endpoint string
	apiKey   string
	logger   *log.Logger
	metrics  *observability.Metrics

	reconnectDelay   time.Duration
	maxReconnectWait time.Duration
	readTimeout      time.Duration

	events chan *domain.Event
}

// StreamOption configures StreamSource.
type StreamOption func(*StreamSource)

// WithEndpoint sets the stream WebSocket URL.
func WithEndpoint(endpoint string) StreamOption {
	return func(s *StreamSource) {
		s.endpoint = endpoint
	}
}

// WithStreamLogger sets the logger.
func WithStreamLogger(logger *log.Logger) StreamOption {
	return func(s *StreamSource) {
		s.logger = logger
	}
}

// WithStreamMetrics sets the metrics instance.
func WithStreamMetrics(metrics *observability.Metrics) StreamOption {
	return func(s *StreamSource) {
		s.metrics = metrics
	}
}

// NewStreamSource creates a stream source authenticated by apiKey.
func NewStreamSource(apiKey string, opts ...StreamOption) *StreamSource {
	s := &StreamSource{
		endpoint:         DefaultStreamEndpoint,
		apiKey:           apiKey,
		logger:           log.New(io.Discard, "", 0),
		reconnectDelay:   DefaultReconnectDelay,
		maxReconnectWait: DefaultMaxReconnectWait,
		readTimeout:      DefaultReadTimeout,
		events:           make(chan *domain.Event, eventBufferSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the channel the source emits on.
func (s *StreamSource) Events() <-chan *domain.Event {
	return s.events
}

// Run connects and consumes the stream until ctx ends, reconnecting on
// failure. The events channel is closed on return.
func (s *StreamSource) Run(ctx context.Context) {
	defer close(s.events)

	delay := s.reconnectDelay
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		s.logger.Printf("[ingestion] stream dropped: %v, reconnecting in %s", err, delay)
		if s.metrics != nil {
			s.metrics.StreamReconnects.Inc()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.maxReconnectWait {
			delay = s.maxReconnectWait
		}
	}
}

// consume runs one connection until it fails.
func (s *StreamSource) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{"x-api-key": []string{s.apiKey}}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.logger.Printf("[ingestion] stream connected to %s", s.endpoint)

	// Unblock ReadMessage when ctx ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		events := parseStreamMessage(raw)
		if events == nil {
			continue
		}
		for _, event := range events {
			if s.metrics != nil {
				s.metrics.EventsReceived.Inc()
			}
			s.logger.Printf("[ingestion] post from @%s: %.50s", event.Author.Handle, event.Text)
			select {
			case s.events <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
