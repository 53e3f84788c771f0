package analyzer

import (
	"fmt"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// Actionability thresholds. Both bounds are exclusive: an impact scoring
// exactly at a threshold does not trade.
const (
	MinImpactScore = 0.6
	MinConfidence  = 0.7
)

// CriterionResult is the outcome of one actionability check.
type CriterionResult struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

// Evaluation is the full actionability checklist for one impact.
type Evaluation struct {
	MarketID   string
	Actionable bool
	Criteria   []CriterionResult
}

// EvaluateImpact runs the actionability checklist against one impact.
// An impact is actionable only when every criterion passes.
func EvaluateImpact(impact *domain.MarketImpact) *Evaluation {
	criteria := make([]CriterionResult, 4)

	criteria[0] = CriterionResult{
		Name:      "Impact score",
		Threshold: fmt.Sprintf("> %.1f", MinImpactScore),
		Actual:    fmt.Sprintf("%.2f", impact.ImpactScore),
		Pass:      impact.ImpactScore > MinImpactScore,
	}

	criteria[1] = CriterionResult{
		Name:      "Confidence",
		Threshold: fmt.Sprintf("> %.1f", MinConfidence),
		Actual:    fmt.Sprintf("%.2f", impact.Confidence),
		Pass:      impact.Confidence > MinConfidence,
	}

	action := impact.Decision.Action
	criteria[2] = CriterionResult{
		Name:      "Tradeable action",
		Threshold: "BUY or SELL",
		Actual:    action,
		Pass:      action == domain.ActionBuy || action == domain.ActionSell,
	}

	criteria[3] = CriterionResult{
		Name:      "Side selected",
		Threshold: "non-empty",
		Actual:    impact.Decision.Side,
		Pass:      impact.Decision.Side != "",
	}

	actionable := true
	for _, c := range criteria {
		if !c.Pass {
			actionable = false
			break
		}
	}

	return &Evaluation{
		MarketID:   impact.MarketID,
		Actionable: actionable,
		Criteria:   criteria,
	}
}

// Data flattens the evaluation into a step payload.
func (e *Evaluation) Data() map[string]any {
	checks := make([]map[string]any, len(e.Criteria))
	for i, c := range e.Criteria {
		checks[i] = map[string]any{
			"name":      c.Name,
			"threshold": c.Threshold,
			"actual":    c.Actual,
			"pass":      c.Pass,
		}
	}
	return map[string]any{
		"marketId":   e.MarketID,
		"actionable": e.Actionable,
		"checks":     checks,
	}
}
