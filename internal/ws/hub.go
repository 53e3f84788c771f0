// Package ws fans pipeline state out to WebSocket observers. The hub
// broadcasts session progress as it happens and answers client requests
// for filtered history, analytics and session detail. Slow clients lose
// messages rather than slowing the pipeline.
package ws

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/observability"
)

// HistoryProvider is the read side of the session history.
type HistoryProvider interface {
	All() []*domain.Session
	Get(id string) (*domain.Session, bool)
	Query(filter domain.HistoryFilter) []*domain.Session
	Analytics() *domain.SessionAnalytics
}

// MarketProvider lists the pooled markets for connect-time snapshots.
type MarketProvider interface {
	Active() []*domain.Market
}

// BalanceProvider reads the venue balance for connect-time snapshots.
type BalanceProvider interface {
	GetBalance(ctx context.Context) (domain.Balance, error)
}

// Hub manages observer connections and message fan-out.
type Hub struct {
	history HistoryProvider
	markets MarketProvider
	balance BalanceProvider
	logger  *log.Logger
	metrics *observability.Metrics

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// HubOption configures Hub.
type HubOption func(*Hub)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithMetrics sets the metrics instance.
func WithMetrics(metrics *observability.Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = metrics
	}
}

// NewHub creates a hub serving snapshots from the given providers.
func NewHub(history HistoryProvider, markets MarketProvider, balance BalanceProvider, opts ...HubOption) *Hub {
	h := &Hub{
		history:    history,
		markets:    markets,
		balance:    balance,
		logger:     log.New(io.Discard, "", 0),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[*Client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes registration and broadcast until ctx ends. Call it in its
// own goroutine, exactly once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.ConnectedClients.Set(float64(count))
			}
			h.logger.Printf("[ws] client connected (%d total)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.ConnectedClients.Set(float64(count))
			}
			h.logger.Printf("[ws] client disconnected (%d total)", count)

		case raw := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				client.enqueue(raw)
			}
			h.mu.RUnlock()
			if h.metrics != nil {
				h.metrics.MessagesBroadcast.Inc()
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast fans a typed message out to every connected client.
func (h *Hub) Broadcast(msgType string, data any) {
	raw := encode(msgType, data)
	select {
	case h.broadcast <- raw:
	default:
		// Hub loop is saturated; broadcast is best effort.
		if h.metrics != nil {
			h.metrics.MessagesDropped.Inc()
		}
	}
}

// SessionStarted implements analyzer.Broadcaster.
func (h *Hub) SessionStarted(session *domain.Session) {
	h.Broadcast(MsgSessionStart, session)
}

// SessionUpdated implements analyzer.Broadcaster.
func (h *Hub) SessionUpdated(session *domain.Session) {
	h.Broadcast(MsgSessionUpdate, session)
}

// SessionCompleted implements analyzer.Broadcaster. A terminal session
// also refreshes every observer's history and analytics views.
func (h *Hub) SessionCompleted(session *domain.Session) {
	h.Broadcast(MsgSessionComplete, session)
	h.Broadcast(MsgHistorySnapshot, h.history.All())
	h.Broadcast(MsgAnalyticsSnapshot, h.history.Analytics())
}

// BroadcastMarkets pushes the current market pool to every observer.
func (h *Hub) BroadcastMarkets() {
	h.Broadcast(MsgMarkets, h.markets.Active())
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Observers are dashboards on arbitrary origins; auth lives at
		// the deployment boundary.
		return true
	},
}

// ServeHTTP upgrades the connection and starts the client pumps. New
// clients immediately receive history, analytics, markets and balance
// snapshots.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("[ws] upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}
	h.register <- client

	client.sendSnapshots(r.Context())

	go client.writePump()
	go client.readPump()
}

// sendSnapshots queues the connect-time state for one client.
func (c *Client) sendSnapshots(ctx context.Context) {
	h := c.hub
	c.enqueue(encode(MsgHistorySnapshot, h.history.All()))
	c.enqueue(encode(MsgAnalyticsSnapshot, h.history.Analytics()))
	if h.markets != nil {
		c.enqueue(encode(MsgMarkets, h.markets.Active()))
	}
	if h.balance != nil {
		balCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		balance, err := h.balance.GetBalance(balCtx)
		if err != nil {
			balance = domain.Balance{Available: 0, Symbol: "UNKNOWN"}
		}
		c.enqueue(encode(MsgBalance, balance))
	}
}
