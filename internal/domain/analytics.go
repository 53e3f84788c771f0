package domain

import "time"

// HistoryFilter selects sessions from history. All set fields must match
// (conjunctive). Zero values mean "no constraint".
type HistoryFilter struct {
	Statuses       []string   // session status set
	DateFrom       *time.Time // inclusive, against session start time
	DateTo         *time.Time // inclusive
	MarketCategory []string   // any impact in the session matches
	Author         string     // case-insensitive substring of handle or name
	EventText      string     // case-insensitive substring of event text
	MinTrades      *int       // inclusive
	MaxTrades      *int       // inclusive
	MinConfidence  *float64   // 0-100 scale; any impact must reach it
}

// AuthorCount is one entry of the top-authors ranking.
type AuthorCount struct {
	Handle string `json:"username"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

// TimeSeriesPoint is one day of the trailing activity series.
type TimeSeriesPoint struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	Sessions        int     `json:"sessions"`
	Trades          int     `json:"trades"`
	ConfirmedVolume float64 `json:"confirmedVolume"`
}

// SessionAnalytics aggregates the session history. It is derived purely
// from recorded sessions and carries no live state.
type SessionAnalytics struct {
	TotalSessions     int     `json:"totalSessions"`
	CompletedSessions int     `json:"completedSessions"`
	ErroredSessions   int     `json:"erroredSessions"`
	ActiveSessions    int     `json:"activeSessions"`
	TotalTrades       int     `json:"totalTrades"`
	ConfirmedTrades   int     `json:"successfulTrades"`
	FailedTrades      int     `json:"failedTrades"`
	SuccessRate       float64 `json:"successRate"` // confirmed/total, 0 when no trades
	TotalVolume       float64 `json:"totalVolume"` // confirmed trade volume

	AverageTradesPerSession  float64 `json:"averageTradesPerSession"`
	AverageImpactsPerSession float64 `json:"averageImpactsPerSession"`
	AverageConfidence        float64 `json:"averageConfidence"` // percent

	CategoryBreakdown     map[string]int    `json:"marketCategoryBreakdown"`
	TopAuthors            []AuthorCount     `json:"topAuthors"`
	SentimentDistribution map[string]int    `json:"sentimentDistribution"`
	TimeSeries            []TimeSeriesPoint `json:"timeSeriesData"`
}
