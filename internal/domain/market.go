package domain

// Market status values.
const (
	MarketStatusActive   = "active"
	MarketStatusResolved = "resolved"
	MarketStatusPending  = "pending"
)

// Market represents a tradeable binary prediction market.
// Markets are owned by the pool; the pipeline only reads them.
type Market struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Category  string    `json:"category"`
	Volume    float64   `json:"volume"`
	Liquidity float64   `json:"liquidity"`
	Status    string    `json:"status"`
	EndDate   string    `json:"endDate"`
	YesLabel  string    `json:"yesLabel"` // primary outcome label, e.g. "YES" or "UP"
	NoLabel   string    `json:"noLabel"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Outcome is one side of a binary market.
type Outcome struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Probability float64 `json:"probability"` // current price in [0,1]
	Change24h   float64 `json:"change24h"`
}

// YesPrice returns the current price of the primary outcome, defaulting
// to 0.5 when the market carries no outcome data.
func (m *Market) YesPrice() float64 {
	for _, o := range m.Outcomes {
		if o.Name == m.YesLabel {
			return o.Probability
		}
	}
	return 0.5
}

// MarketSummary is the compact form sent to the relevance filter.
type MarketSummary struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Category string `json:"category"`
}

// Summarize converts a market to its compact filter form.
func (m *Market) Summarize() MarketSummary {
	return MarketSummary{ID: m.ID, Question: m.Question, Category: m.Category}
}
