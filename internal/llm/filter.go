package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

const filterSystemPrompt = `You are a market relevance filter for a prediction market trading system.

Your task: Analyze the incoming post and identify which prediction markets from the given list could be impacted by this news.

Rules:
1. Be selective - only return markets with clear, direct relevance
2. Maximum 5 markets (prefer 2-3 highly relevant ones)
3. Consider both direct mentions AND indirect implications
4. If the post is clearly irrelevant to ALL markets, return empty list

Output ONLY valid JSON in this exact format:
{
  "is_relevant": boolean,
  "relevant_market_ids": ["market_id_1", "market_id_2"],
  "reasoning_summary": "Brief explanation of why these markets are relevant"
}

If no markets are relevant:
{
  "is_relevant": false,
  "relevant_market_ids": [],
  "reasoning_summary": "Explanation of why no markets are affected"
}`

// filterResponse mirrors the JSON the model is instructed to produce.
type filterResponse struct {
	IsRelevant        bool     `json:"is_relevant"`
	RelevantMarketIDs []string `json:"relevant_market_ids"`
	ReasoningSummary  string   `json:"reasoning_summary"`
}

// FilterMarkets asks the model which markets the event could impact.
// On any failure it returns an irrelevant verdict with an explanatory
// summary; the error return is always nil so the analyzer treats the
// default as a real (negative) result.
func (c *Client) FilterMarkets(ctx context.Context, event *domain.Event, summaries []domain.MarketSummary) (*domain.FilterResult, error) {
	marketsJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		marketsJSON = []byte("[]")
	}

	verified := ""
	if event.Author.Verified {
		verified = " (verified)"
	}

	userPrompt := fmt.Sprintf(`Post from @%s%s:
%q

Posted: %s
Engagement: %d likes, %d reposts

Available Markets (%d total):
%s

Analyze and return relevant market IDs.`,
		event.Author.Handle, verified,
		event.Text,
		event.Timestamp,
		event.Engagement.Likes, event.Engagement.Reposts,
		len(summaries),
		marketsJSON,
	)

	content, err := c.complete(ctx, filterSystemPrompt, userPrompt, 0.2, filterMaxTokens)
	if err != nil {
		c.logger.Printf("[llm] filter stage failed: %v", err)
		return defaultFilterResult("Analysis failed"), nil
	}

	var parsed filterResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		c.logger.Printf("[llm] filter response not valid JSON: %v", err)
		return defaultFilterResult("Analysis returned malformed response"), nil
	}

	result := &domain.FilterResult{
		IsRelevant:        parsed.IsRelevant,
		RelevantMarketIDs: parsed.RelevantMarketIDs,
		ReasoningSummary:  parsed.ReasoningSummary,
	}
	if !result.IsRelevant {
		result.RelevantMarketIDs = nil
	}

	c.logger.Printf("[llm] filter: relevant=%v markets=%d", result.IsRelevant, len(result.RelevantMarketIDs))
	return result, nil
}

func defaultFilterResult(note string) *domain.FilterResult {
	return &domain.FilterResult{
		IsRelevant:        false,
		RelevantMarketIDs: nil,
		ReasoningSummary:  note,
	}
}
