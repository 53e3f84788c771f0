package ws

import (
	"encoding/json"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// Server message types.
const (
	MsgSessionStart      = "session:start"
	MsgSessionUpdate     = "session:update"
	MsgSessionComplete   = "session:complete"
	MsgSessionDetail     = "session:detail"
	MsgHistorySnapshot   = "history:snapshot"
	MsgAnalyticsSnapshot = "analytics:snapshot"
	MsgMarkets           = "markets"
	MsgBalance           = "balance"
	MsgError             = "error"
)

// Client request types.
const (
	ReqHistoryFilter    = "history:filter"
	ReqHistoryAnalytics = "history:analytics"
	ReqSessionDetail    = "session:detail"
)

// Message is the envelope for everything sent to observers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// clientRequest is the envelope for messages received from observers.
type clientRequest struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId,omitempty"`
	Filter    *filterRequest `json:"filter,omitempty"`
}

// filterRequest is the wire form of a history filter. Dates are RFC 3339
// or plain YYYY-MM-DD.
type filterRequest struct {
	Statuses      []string `json:"statuses,omitempty"`
	DateFrom      string   `json:"dateFrom,omitempty"`
	DateTo        string   `json:"dateTo,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Author        string   `json:"author,omitempty"`
	EventText     string   `json:"eventText,omitempty"`
	MinTrades     *int     `json:"minTrades,omitempty"`
	MaxTrades     *int     `json:"maxTrades,omitempty"`
	MinConfidence *float64 `json:"minConfidence,omitempty"` // percent
}

// toDomain converts the wire filter into the store form. Unparseable
// dates are ignored rather than rejected.
func (f *filterRequest) toDomain() domain.HistoryFilter {
	filter := domain.HistoryFilter{
		Statuses:       f.Statuses,
		MarketCategory: f.Categories,
		Author:         f.Author,
		EventText:      f.EventText,
		MinTrades:      f.MinTrades,
		MaxTrades:      f.MaxTrades,
		MinConfidence:  f.MinConfidence,
	}
	if t, ok := parseFilterDate(f.DateFrom, false); ok {
		filter.DateFrom = &t
	}
	if t, ok := parseFilterDate(f.DateTo, true); ok {
		filter.DateTo = &t
	}
	return filter
}

// parseFilterDate accepts RFC 3339 timestamps or bare dates. A bare DateTo
// date extends to the end of that day so the range stays inclusive.
func parseFilterDate(s string, endOfDay bool) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

// encode marshals a message for the wire. Marshal errors are impossible
// for our payload types short of a programming bug, so they degrade to an
// error message.
func encode(msgType string, data any) []byte {
	raw, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		raw, _ = json.Marshal(Message{Type: MsgError, Data: err.Error()})
	}
	return raw
}
