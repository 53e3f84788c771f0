package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

const analysisSystemPrompt = `You are an expert prediction market trader. Your task is to analyze how a specific news event impacts a prediction market and provide a trading decision WITH A CONFIDENCE SCORE.

Analysis Framework:
1. CREDIBILITY: For this task, ASSUME the post content is TRUE and IMPACTFUL unless proven otherwise. Trust the signal.
2. DIRECTNESS: How directly does this news affect the market question?
3. MAGNITUDE: How significant is the impact? Minor update vs game-changer?
4. TIMING: Act fast. Assume this is new information that the market needs to react to.
5. EDGE: Is there a gap between current price and fair value?

Output ONLY valid JSON in this exact format (no prose):
{
  "market_id": "string",
  "sentiment": "POSITIVE" | "NEGATIVE" | "NEUTRAL",
  "impact_score": number (0.0 to 1.0),
  "confidence": number (0.0 to 1.0 - how confident are you in this analysis?),
  "reasoning_steps": ["step 1", "step 2", "step 3"],
  "trade_decision": {
    "action": "BUY" | "SELL" | "HOLD",
    "side": "YES" | "NO" | null,
    "suggested_price": number (0.01 to 0.99) REQUIRED - ALWAYS include this field even for HOLD decisions,
    "size_usdc": number
  },
  "human_readable_reason": "Clear explanation in natural language"
}

sentiment:
- POSITIVE = increases likelihood of YES outcome
- NEGATIVE = decreases likelihood of YES outcome (favors NO)
- NEUTRAL = no significant impact

CONFIDENCE SCORING:
- 0.9-1.0: Very high confidence (direct impact, verified source, clear signal)
- 0.7-0.9: High confidence (strong relevance, credible source)
- 0.5-0.7: Medium confidence (indirect impact or uncertain magnitude)
- 0.3-0.5: Low confidence (weak signal or unclear relevance)
- 0.0-0.3: Very low confidence (speculative or tangential connection)

TRADING DECISION:
- Bias towards ACTION over inaction. If there is a plausible link, TAKE THE TRADE.
- Don't be overly skeptical. If the post suggests a price move, bet on it.
- Be opportunistic but rational.

Reasoning should be concise, 3 steps: (1) signal/content, (2) impact direction & magnitude, (3) trade rationale`

// analysisResponse mirrors the JSON the model is instructed to produce.
type analysisResponse struct {
	MarketID       string   `json:"market_id"`
	Sentiment      string   `json:"sentiment"`
	ImpactScore    float64  `json:"impact_score"`
	Confidence     float64  `json:"confidence"`
	ReasoningSteps []string `json:"reasoning_steps"`
	TradeDecision  struct {
		Action         string  `json:"action"`
		Side           string  `json:"side"`
		SuggestedPrice float64 `json:"suggested_price"`
		SizeUSDC       float64 `json:"size_usdc"`
	} `json:"trade_decision"`
	Reason string `json:"human_readable_reason"`
}

// AnalyzeImpact scores the event's impact on one market and proposes a
// trade. On any failure it returns the neutral default (NEUTRAL/0/0, HOLD,
// price 0.5, size 0) with a nil error; model output is validated and clamped
// before it crosses the analyzer boundary.
func (c *Client) AnalyzeImpact(ctx context.Context, event *domain.Event, market *domain.Market, sizeUSDC float64) (*domain.MarketImpact, error) {
	yesPrice := market.YesPrice()

	change24h := 0.0
	for _, o := range market.Outcomes {
		if o.Name == market.YesLabel {
			change24h = o.Change24h
			break
		}
	}

	verified := ""
	if event.Author.Verified {
		verified = " (verified)"
	}

	sign := ""
	if change24h > 0 {
		sign = "+"
	}

	userPrompt := fmt.Sprintf(`Post from @%s%s:
%q

Market Details:
- ID: %s
- Question: %s
- Category: %s
- Outcome Labels: %q vs %q
- Current %s price: %.1f%%
- Current %s price: %.1f%%
- 24h Change: %s%.1f%%
- Volume: $%.0f
- End Date: %s

Target trade size: $%.2f USDC.
Analyze the impact and provide your trading decision.
IMPORTANT: Use the actual outcome labels %q or %q in your trade_decision.side field.`,
		event.Author.Handle, verified,
		event.Text,
		market.ID,
		market.Question,
		market.Category,
		market.YesLabel, market.NoLabel,
		market.YesLabel, yesPrice*100,
		market.NoLabel, (1-yesPrice)*100,
		sign, change24h,
		market.Volume,
		market.EndDate,
		sizeUSDC,
		market.YesLabel, market.NoLabel,
	)

	content, err := c.complete(ctx, analysisSystemPrompt, userPrompt, 0.3, analysisMaxTokens)
	if err != nil {
		c.logger.Printf("[llm] analysis stage failed for market %s: %v", market.ID, err)
		return NeutralImpact(market.ID, yesPrice), nil
	}

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		c.logger.Printf("[llm] analysis response not valid JSON for market %s: %v", market.ID, err)
		return NeutralImpact(market.ID, yesPrice), nil
	}

	impact := sanitizeImpact(&parsed, market, yesPrice)
	c.logger.Printf("[llm] analysis: market %s %s impact=%.2f confidence=%.2f action=%s",
		market.ID, impact.Sentiment, impact.ImpactScore, impact.Confidence, impact.Decision.Action)
	return impact, nil
}

// NeutralImpact is the safe default returned when analysis fails: no
// sentiment, zero scores, HOLD at the current market price.
func NeutralImpact(marketID string, yesPrice float64) *domain.MarketImpact {
	return &domain.MarketImpact{
		MarketID:    marketID,
		Sentiment:   domain.SentimentNeutral,
		ImpactScore: 0,
		Confidence:  0,
		Decision: domain.TradeDecision{
			Action:         domain.ActionHold,
			Side:           "",
			SuggestedPrice: clampPrice(yesPrice),
			SizeUSDC:       0,
		},
		Reasoning: "Analysis failed",
	}
}

// sanitizeImpact validates and clamps a model response into a MarketImpact.
// Unknown enum values fall back to the neutral equivalents.
func sanitizeImpact(r *analysisResponse, market *domain.Market, yesPrice float64) *domain.MarketImpact {
	impact := &domain.MarketImpact{
		MarketID:       market.ID,
		Sentiment:      normalizeSentiment(r.Sentiment),
		ImpactScore:    clamp01(r.ImpactScore),
		Confidence:     clamp01(r.Confidence),
		Reasoning:      r.Reason,
		ReasoningSteps: r.ReasoningSteps,
	}

	action := strings.ToUpper(strings.TrimSpace(r.TradeDecision.Action))
	switch action {
	case domain.ActionBuy, domain.ActionSell:
	default:
		action = domain.ActionHold
	}

	side := normalizeSide(r.TradeDecision.Side, market)
	if action == domain.ActionHold {
		side = ""
	}

	price := r.TradeDecision.SuggestedPrice
	if price <= 0 || price >= 1 {
		price = yesPrice
	}

	size := r.TradeDecision.SizeUSDC
	if size < 0 {
		size = 0
	}

	impact.Decision = domain.TradeDecision{
		Action:         action,
		Side:           side,
		SuggestedPrice: clampPrice(price),
		SizeUSDC:       size,
	}
	return impact
}

func normalizeSentiment(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case domain.SentimentPositive:
		return domain.SentimentPositive
	case domain.SentimentNegative:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// normalizeSide maps the model's side onto the market's actual outcome
// labels, accepting generic YES/NO aliases. Anything else is rejected.
func normalizeSide(side string, market *domain.Market) string {
	s := strings.ToUpper(strings.TrimSpace(side))
	if s == "" {
		return ""
	}
	switch s {
	case strings.ToUpper(market.YesLabel), "YES":
		return market.YesLabel
	case strings.ToUpper(market.NoLabel), "NO":
		return market.NoLabel
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampPrice(v float64) float64 {
	if v < 0.01 {
		return 0.01
	}
	if v > 0.99 {
		return 0.99
	}
	return v
}
