package history

import (
	"sort"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// timeSeriesDays is the fixed span of the trailing activity series.
const timeSeriesDays = 30

// topAuthorsLimit caps the top-authors ranking.
const topAuthorsLimit = 5

// Analytics derives aggregate statistics from the recorded history.
// It is a pure function of the stored sessions; an empty history yields
// zero values throughout (success rate included).
func (s *Store) Analytics() *domain.SessionAnalytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return computeAnalytics(s.sessions, time.Now())
}

func computeAnalytics(sessions []*domain.Session, now time.Time) *domain.SessionAnalytics {
	a := &domain.SessionAnalytics{
		TotalSessions:         len(sessions),
		CategoryBreakdown:     make(map[string]int),
		SentimentDistribution: make(map[string]int),
	}

	authorTotals := make(map[string]*domain.AuthorCount)
	var totalImpacts int
	var confidenceSum float64

	for _, session := range sessions {
		switch session.Status {
		case domain.SessionStatusComplete:
			a.CompletedSessions++
		case domain.SessionStatusError:
			a.ErroredSessions++
		case domain.SessionStatusActive:
			a.ActiveSessions++
		}

		for _, trade := range session.Trades {
			a.TotalTrades++
			switch trade.Status {
			case domain.TradeStatusConfirmed:
				a.ConfirmedTrades++
				a.TotalVolume += trade.Amount
			case domain.TradeStatusFailed:
				a.FailedTrades++
			}
		}

		for _, impact := range session.Impacts {
			totalImpacts++
			confidenceSum += impact.Confidence
			a.SentimentDistribution[impact.Sentiment]++
			if impact.MarketCategory != "" {
				a.CategoryBreakdown[impact.MarketCategory]++
			}
		}

		handle := session.Event.Author.Handle
		if handle != "" {
			entry, ok := authorTotals[handle]
			if !ok {
				entry = &domain.AuthorCount{
					Handle: handle,
					Name:   session.Event.Author.Name,
				}
				authorTotals[handle] = entry
			}
			entry.Count++
		}
	}

	if a.TotalTrades > 0 {
		a.SuccessRate = float64(a.ConfirmedTrades) / float64(a.TotalTrades)
	}
	if a.TotalSessions > 0 {
		a.AverageTradesPerSession = float64(a.TotalTrades) / float64(a.TotalSessions)
		a.AverageImpactsPerSession = float64(totalImpacts) / float64(a.TotalSessions)
	}
	if totalImpacts > 0 {
		a.AverageConfidence = confidenceSum / float64(totalImpacts) * 100
	}

	a.TopAuthors = rankAuthors(authorTotals)
	a.TimeSeries = buildTimeSeries(sessions, now)
	return a
}

// rankAuthors sorts authors by descending count, handle ascending as the
// tiebreak, and keeps the top entries.
func rankAuthors(totals map[string]*domain.AuthorCount) []domain.AuthorCount {
	ranked := make([]domain.AuthorCount, 0, len(totals))
	for _, entry := range totals {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Handle < ranked[j].Handle
	})
	if len(ranked) > topAuthorsLimit {
		ranked = ranked[:topAuthorsLimit]
	}
	return ranked
}

// buildTimeSeries produces the trailing 30-calendar-day activity series,
// oldest day first, with zero-filled days for gaps.
func buildTimeSeries(sessions []*domain.Session, now time.Time) []domain.TimeSeriesPoint {
	byDay := make(map[string]*domain.TimeSeriesPoint, timeSeriesDays)
	series := make([]domain.TimeSeriesPoint, timeSeriesDays)

	for i := 0; i < timeSeriesDays; i++ {
		day := now.AddDate(0, 0, i-(timeSeriesDays-1)).Format("2006-01-02")
		series[i] = domain.TimeSeriesPoint{Date: day}
		byDay[day] = &series[i]
	}

	for _, session := range sessions {
		day := session.StartTime.Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			continue
		}
		point.Sessions++
		for _, trade := range session.Trades {
			point.Trades++
			if trade.Status == domain.TradeStatusConfirmed {
				point.ConfirmedVolume += trade.Amount
			}
		}
	}

	return series
}
