package domain

import "time"

// Session status values. Transitions are monotonic: active may become
// complete or error, and a terminal status never changes again.
const (
	SessionStatusActive   = "active"
	SessionStatusComplete = "complete"
	SessionStatusError    = "error"
)

// Step types, in pipeline stage order.
const (
	StepReceiving = "receiving"
	StepFiltering = "filtering"
	StepAnalyzing = "analyzing"
	StepDeciding  = "deciding"
	StepExecuting = "executing"
	StepComplete  = "complete"
)

// Step status values.
const (
	StepStatusPending    = "pending"
	StepStatusProcessing = "processing"
	StepStatusComplete   = "complete"
	StepStatusError      = "error"
)

// Sentiment values produced by impact analysis.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// Trade actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Trade execution status values.
const (
	TradeStatusPending   = "pending"
	TradeStatusConfirmed = "confirmed"
	TradeStatusFailed    = "failed"
)

// Session is one complete pipeline run for a single event.
// A live session is mutated only by the analyzer goroutine that owns it;
// once recorded to history it becomes immutable.
type Session struct {
	ID           string           `json:"id"`
	Event        Event            `json:"tweet"`
	Steps        []Step           `json:"steps"`
	FilterResult *FilterResult    `json:"filterResult,omitempty"`
	Impacts      []MarketImpact   `json:"marketImpacts"`
	Trades       []TradeExecution `json:"trades"`
	Status       string           `json:"status"`
	StartTime    time.Time        `json:"startTime"`
	EndTime      *time.Time       `json:"endTime,omitempty"`
}

// Step records one stage transition within a session.
// Steps are strictly insertion-ordered with non-decreasing timestamps.
type Step struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Data        map[string]any `json:"data,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// FilterResult is the relevance filter's verdict over the market pool.
type FilterResult struct {
	IsRelevant        bool     `json:"isRelevant"`
	RelevantMarketIDs []string `json:"relevantMarketIds"`
	ReasoningSummary  string   `json:"reasoningSummary"`
}

// TradeDecision is the analyzer's per-market trading recommendation.
// Side is empty for HOLD decisions.
type TradeDecision struct {
	Action         string  `json:"action"`
	Side           string  `json:"side,omitempty"`
	SuggestedPrice float64 `json:"suggestedPrice"`
	SizeUSDC       float64 `json:"sizeUsdc"`
}

// MarketImpact is the scored output of impact analysis for one market.
// Question and Category are denormalized from the market at analysis time
// so history entries stay meaningful after the pool moves on.
type MarketImpact struct {
	MarketID       string        `json:"marketId"`
	MarketQuestion string        `json:"marketQuestion,omitempty"`
	MarketCategory string        `json:"marketCategory,omitempty"`
	Sentiment      string        `json:"sentiment"`
	ImpactScore    float64       `json:"impactScore"` // [0,1]
	Confidence     float64       `json:"confidence"`  // [0,1]
	Decision       TradeDecision `json:"tradeDecision"`
	Reasoning      string        `json:"reasoning"`
	ReasoningSteps []string      `json:"reasoningSteps,omitempty"`
}

// TradeExecution is the outcome of one attempted trade.
type TradeExecution struct {
	ID        string    `json:"id"`
	MarketID  string    `json:"marketId"`
	Side      string    `json:"side"`
	Amount    float64   `json:"amount"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	TxHash    string    `json:"txHash,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Balance is a single reading of the venue wallet balance.
type Balance struct {
	Available float64 `json:"available"`
	Symbol    string  `json:"symbol"`
}

// Terminal reports whether the session reached a terminal status.
func (s *Session) Terminal() bool {
	return s.Status == SessionStatusComplete || s.Status == SessionStatusError
}

// Clone returns a deep copy of the session. Recorded history holds clones
// so later mutation of a live session cannot change stored entries.
func (s *Session) Clone() *Session {
	c := *s

	c.Steps = make([]Step, len(s.Steps))
	for i, st := range s.Steps {
		c.Steps[i] = st
		if st.Data != nil {
			data := make(map[string]any, len(st.Data))
			for k, v := range st.Data {
				data[k] = v
			}
			c.Steps[i].Data = data
		}
	}

	if s.FilterResult != nil {
		fr := *s.FilterResult
		fr.RelevantMarketIDs = append([]string(nil), s.FilterResult.RelevantMarketIDs...)
		c.FilterResult = &fr
	}

	c.Impacts = make([]MarketImpact, len(s.Impacts))
	for i, im := range s.Impacts {
		c.Impacts[i] = im
		c.Impacts[i].ReasoningSteps = append([]string(nil), im.ReasoningSteps...)
	}

	c.Trades = append([]TradeExecution(nil), s.Trades...)

	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}

	return &c
}
