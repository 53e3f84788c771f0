package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
	"github.com/SparkssL/Seer-Engine/internal/idhash"
)

// runSession executes the full pipeline for one event. Stages:
// receiving → filtering → analyzing → deciding → executing → complete,
// with early completion when the filter finds nothing or no impact clears
// the actionability gate. A panic anywhere marks the session errored
// instead of killing the worker.
func (a *Analyzer) runSession(ctx context.Context, event *domain.Event) {
	start := time.Now()
	session := &domain.Session{
		ID:        idhash.ComputeSessionID(event.ID, event.Author.Handle, start.UnixMilli()),
		Event:     *event,
		Status:    domain.SessionStatusActive,
		StartTime: start,
	}

	defer a.setSnapshot(nil)
	defer func() {
		if r := recover(); r != nil {
			a.logger.Printf("[analyzer] session %s panicked: %v", session.ID, r)
			a.failSession(session, fmt.Sprintf("internal error: %v", r))
		}
	}()

	a.logger.Printf("[analyzer] session %s started for event %s (@%s)", session.ID, event.ID, event.Author.Handle)
	a.publishStart(session)

	// RECEIVING
	a.addStep(session, domain.StepReceiving, "Event received",
		fmt.Sprintf("Post from @%s", event.Author.Handle),
		domain.StepStatusComplete, map[string]any{
			"likes":   event.Engagement.Likes,
			"reposts": event.Engagement.Reposts,
		})
	a.publishUpdate(session)

	// FILTERING
	stageStart := time.Now()
	filterIdx := a.addStep(session, domain.StepFiltering, "Filtering markets",
		"Checking which markets this event could impact",
		domain.StepStatusProcessing, nil)
	a.publishUpdate(session)

	result := a.filterMarkets(ctx, event)
	session.FilterResult = result
	a.finishStep(session, filterIdx, domain.StepStatusComplete, map[string]any{
		"isRelevant":      result.IsRelevant,
		"relevantMarkets": len(result.RelevantMarketIDs),
		"summary":         result.ReasoningSummary,
	})
	a.observeStage(domain.StepFiltering, stageStart)
	a.publishUpdate(session)

	selected := a.resolveMarkets(result)
	if !result.IsRelevant || len(selected) == 0 {
		a.completeSession(session, "No relevant markets for this event")
		return
	}

	// ANALYZING
	stageStart = time.Now()
	analyzeIdx := a.addStep(session, domain.StepAnalyzing, "Analyzing impact",
		fmt.Sprintf("Scoring impact on %d markets", len(selected)),
		domain.StepStatusProcessing, nil)
	a.publishUpdate(session)

	session.Impacts = a.analyzeMarkets(ctx, event, selected)
	a.finishStep(session, analyzeIdx, domain.StepStatusComplete, map[string]any{
		"impacts": len(session.Impacts),
	})
	a.observeStage(domain.StepAnalyzing, stageStart)
	a.publishUpdate(session)

	// DECIDING
	stageStart = time.Now()
	decideIdx := a.addStep(session, domain.StepDeciding, "Deriving actionable set",
		"Applying impact and confidence thresholds",
		domain.StepStatusProcessing, nil)
	a.publishUpdate(session)

	var actionable []int
	evaluations := make([]map[string]any, 0, len(session.Impacts))
	for i := range session.Impacts {
		eval := EvaluateImpact(&session.Impacts[i])
		evaluations = append(evaluations, eval.Data())
		if eval.Actionable {
			actionable = append(actionable, i)
		}
	}
	a.finishStep(session, decideIdx, domain.StepStatusComplete, map[string]any{
		"actionable":  len(actionable),
		"evaluations": evaluations,
	})
	a.observeStage(domain.StepDeciding, stageStart)
	a.publishUpdate(session)

	if len(actionable) == 0 {
		a.completeSession(session, "No impacts cleared the actionability gate")
		return
	}

	// EXECUTING
	stageStart = time.Now()
	a.executeTrades(ctx, session, actionable)
	a.observeStage(domain.StepExecuting, stageStart)

	a.completeSession(session, fmt.Sprintf("Executed %d trades", len(session.Trades)))
}

// filterMarkets calls the relevance filter with a bounded context and
// falls back to the irrelevant verdict on any failure.
func (a *Analyzer) filterMarkets(ctx context.Context, event *domain.Event) *domain.FilterResult {
	callCtx, cancel := context.WithTimeout(ctx, a.capTimeout)
	defer cancel()

	callStart := time.Now()
	result, err := a.filter.FilterMarkets(callCtx, event, a.markets.Summaries())
	if a.metrics != nil {
		a.metrics.LLMCallDuration.WithLabelValues("filter").Observe(time.Since(callStart).Seconds())
	}
	if err != nil || result == nil {
		if a.metrics != nil {
			a.metrics.LLMCallErrors.WithLabelValues("filter").Inc()
		}
		a.logger.Printf("[analyzer] filter degraded: %v", err)
		return &domain.FilterResult{
			IsRelevant:       false,
			ReasoningSummary: "Market filtering unavailable",
		}
	}
	return result
}

// resolveMarkets maps filter verdict IDs onto pooled markets, dropping
// unknown IDs and capping at the per-session maximum.
func (a *Analyzer) resolveMarkets(result *domain.FilterResult) []*domain.Market {
	var selected []*domain.Market
	for _, id := range result.RelevantMarketIDs {
		if len(selected) >= a.maxMarkets {
			break
		}
		market, ok := a.markets.Get(id)
		if !ok {
			a.logger.Printf("[analyzer] filter returned unknown market %s, skipping", id)
			continue
		}
		selected = append(selected, market)
	}
	return selected
}

// analyzeMarkets fans out one impact analysis per market and collects the
// results in market input order. A failed analysis yields the neutral
// default for its slot.
func (a *Analyzer) analyzeMarkets(ctx context.Context, event *domain.Event, selected []*domain.Market) []domain.MarketImpact {
	slots := make([]*domain.MarketImpact, len(selected))

	var wg sync.WaitGroup
	for i, market := range selected {
		wg.Add(1)
		go func(i int, market *domain.Market) {
			defer wg.Done()
			slots[i] = a.analyzeOne(ctx, event, market)
		}(i, market)
	}
	wg.Wait()

	impacts := make([]domain.MarketImpact, len(selected))
	for i, impact := range slots {
		impact.MarketQuestion = selected[i].Question
		impact.MarketCategory = selected[i].Category
		impacts[i] = *impact
	}
	return impacts
}

func (a *Analyzer) analyzeOne(ctx context.Context, event *domain.Event, market *domain.Market) *domain.MarketImpact {
	callCtx, cancel := context.WithTimeout(ctx, a.capTimeout)
	defer cancel()

	callStart := time.Now()
	impact, err := a.impacts.AnalyzeImpact(callCtx, event, market, a.tradeSize)
	if a.metrics != nil {
		a.metrics.LLMCallDuration.WithLabelValues("analyze").Observe(time.Since(callStart).Seconds())
	}
	if err != nil || impact == nil {
		if a.metrics != nil {
			a.metrics.LLMCallErrors.WithLabelValues("analyze").Inc()
		}
		a.logger.Printf("[analyzer] impact analysis degraded for market %s: %v", market.ID, err)
		return neutralImpact(market)
	}
	return impact
}

// neutralImpact is the analyzer-side safe default when a capability
// returns garbage.
func neutralImpact(market *domain.Market) *domain.MarketImpact {
	return &domain.MarketImpact{
		MarketID:    market.ID,
		Sentiment:   domain.SentimentNeutral,
		ImpactScore: 0,
		Confidence:  0,
		Decision: domain.TradeDecision{
			Action:         domain.ActionHold,
			SuggestedPrice: market.YesPrice(),
			SizeUSDC:       0,
		},
		Reasoning: "Impact analysis unavailable",
	}
}

// executeTrades places one order per actionable impact against a single
// balance snapshot taken at stage start. Order amounts are clamped to the
// remaining balance; only confirmed trades spend it. A failed trade is
// recorded and the loop continues.
func (a *Analyzer) executeTrades(ctx context.Context, session *domain.Session, actionable []int) {
	balance := a.getBalance(ctx)
	remaining := balance.Available

	execIdx := a.addStep(session, domain.StepExecuting, "Executing trades",
		fmt.Sprintf("Placing %d orders", len(actionable)),
		domain.StepStatusProcessing, map[string]any{
			"balance": balance.Available,
			"symbol":  balance.Symbol,
		})
	a.publishUpdate(session)

	var confirmed int
	for attempt, idx := range actionable {
		impact := &session.Impacts[idx]
		decision := impact.Decision

		amount := decision.SizeUSDC
		if amount > remaining {
			amount = remaining
		}
		if amount <= 0 {
			a.logger.Printf("[analyzer] skipping market %s: no balance remaining", impact.MarketID)
			continue
		}

		trade := a.placeOrder(ctx, impact.MarketID, decision.Side, amount, decision.SuggestedPrice)
		trade.ID = idhash.ComputeTradeID(session.ID, impact.MarketID, decision.Side, attempt)
		session.Trades = append(session.Trades, *trade)

		if a.metrics != nil {
			a.metrics.TradesTotal.WithLabelValues(trade.Status).Inc()
		}
		if trade.Status == domain.TradeStatusConfirmed {
			remaining -= amount
			confirmed++
			if a.metrics != nil {
				a.metrics.TradedVolume.Add(amount)
			}
		} else {
			a.logger.Printf("[analyzer] trade failed on market %s: %s", impact.MarketID, trade.Error)
		}
		a.publishUpdate(session)
	}

	a.finishStep(session, execIdx, domain.StepStatusComplete, map[string]any{
		"trades":    len(session.Trades),
		"confirmed": confirmed,
		"remaining": remaining,
	})
	a.publishUpdate(session)
}

// getBalance reads the venue balance once; failures degrade to the zero
// balance so the execution loop naturally skips every order.
func (a *Analyzer) getBalance(ctx context.Context) domain.Balance {
	callCtx, cancel := context.WithTimeout(ctx, a.capTimeout)
	defer cancel()

	balance, err := a.executor.GetBalance(callCtx)
	if err != nil {
		a.logger.Printf("[analyzer] balance read degraded: %v", err)
		return domain.Balance{Available: 0, Symbol: "UNKNOWN"}
	}
	return balance
}

func (a *Analyzer) placeOrder(ctx context.Context, marketID, side string, amount, price float64) *domain.TradeExecution {
	callCtx, cancel := context.WithTimeout(ctx, a.capTimeout)
	defer cancel()

	trade, err := a.executor.PlaceOrder(callCtx, marketID, side, amount, price)
	if err != nil || trade == nil {
		return &domain.TradeExecution{
			MarketID:  marketID,
			Side:      side,
			Amount:    amount,
			Price:     price,
			Status:    domain.TradeStatusFailed,
			Error:     fmt.Sprintf("order placement failed: %v", err),
			Timestamp: time.Now(),
		}
	}
	return trade
}

// completeSession finishes a session normally and hands it to history.
func (a *Analyzer) completeSession(session *domain.Session, summary string) {
	a.addStep(session, domain.StepComplete, "Session complete", summary,
		domain.StepStatusComplete, nil)

	end := time.Now()
	session.Status = domain.SessionStatusComplete
	session.EndTime = &end

	a.finishSession(session)
	a.logger.Printf("[analyzer] session %s complete: %s", session.ID, summary)
}

// failSession marks a session errored. Reserved for internal invariant
// violations; capability failures degrade instead. The step that was in
// flight when the failure hit is marked error so the recorded session
// carries no dangling processing state.
func (a *Analyzer) failSession(session *domain.Session, reason string) {
	if session.Terminal() {
		return
	}
	for i := len(session.Steps) - 1; i >= 0; i-- {
		step := &session.Steps[i]
		if step.Status == domain.StepStatusProcessing || step.Status == domain.StepStatusPending {
			step.Status = domain.StepStatusError
			step.Description = reason
			break
		}
	}
	a.addStep(session, domain.StepComplete, "Session failed", reason,
		domain.StepStatusError, nil)

	end := time.Now()
	session.Status = domain.SessionStatusError
	session.EndTime = &end

	a.finishSession(session)
}

func (a *Analyzer) finishSession(session *domain.Session) {
	if a.metrics != nil {
		a.metrics.SessionsTotal.WithLabelValues(session.Status).Inc()
		a.metrics.SessionDuration.Observe(session.EndTime.Sub(session.StartTime).Seconds())
	}
	if a.history != nil {
		a.history.Record(session)
	}
	if a.broadcaster != nil {
		a.broadcaster.SessionCompleted(session.Clone())
	}
}

// addStep appends a step and returns its index. Step timestamps follow
// insertion order.
func (a *Analyzer) addStep(session *domain.Session, stepType, title, description, status string, data map[string]any) int {
	idx := len(session.Steps)
	session.Steps = append(session.Steps, domain.Step{
		ID:          idhash.ComputeStepID(session.ID, stepType, idx),
		Type:        stepType,
		Title:       title,
		Description: description,
		Status:      status,
		Data:        data,
		Timestamp:   time.Now(),
	})
	return idx
}

// finishStep updates a step's status and payload in place; the original
// timestamp is kept so step times stay non-decreasing.
func (a *Analyzer) finishStep(session *domain.Session, idx int, status string, data map[string]any) {
	step := &session.Steps[idx]
	step.Status = status
	if data != nil {
		step.Data = data
	}
}

func (a *Analyzer) publishStart(session *domain.Session) {
	snapshot := session.Clone()
	a.setSnapshot(snapshot)
	if a.broadcaster != nil {
		a.broadcaster.SessionStarted(snapshot)
	}
}

func (a *Analyzer) publishUpdate(session *domain.Session) {
	snapshot := session.Clone()
	a.setSnapshot(snapshot)
	if a.broadcaster != nil {
		a.broadcaster.SessionUpdated(snapshot)
	}
}

func (a *Analyzer) observeStage(stage string, start time.Time) {
	if a.metrics != nil {
		a.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
