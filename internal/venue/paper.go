package venue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// PaperExecutor simulates the venue in-process: a fixed starting balance,
// instant fills and optional per-market failure injection. Used in demo
// mode and tests.
type PaperExecutor struct {
	mu          sync.Mutex
	available   float64
	failMarkets map[string]string // market ID -> injected error
	orderSeq    int
}

// NewPaperExecutor creates a paper executor with the given starting balance.
func NewPaperExecutor(startingBalance float64) *PaperExecutor {
	return &PaperExecutor{
		available:   startingBalance,
		failMarkets: make(map[string]string),
	}
}

// FailMarket makes every order on the given market fail with reason.
func (p *PaperExecutor) FailMarket(marketID, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failMarkets[marketID] = reason
}

// GetBalance returns the remaining simulated balance.
func (p *PaperExecutor) GetBalance(ctx context.Context) (domain.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.Balance{Available: p.available, Symbol: balanceSymbol}, nil
}

// PlaceOrder fills the order immediately, spending the simulated balance.
func (p *PaperExecutor) PlaceOrder(ctx context.Context, marketID, side string, amount, price float64) (*domain.TradeExecution, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	trade := &domain.TradeExecution{
		MarketID:  marketID,
		Side:      side,
		Amount:    amount,
		Price:     price,
		Status:    domain.TradeStatusPending,
		Timestamp: time.Now(),
	}

	if amount <= 0 {
		trade.Status = domain.TradeStatusFailed
		trade.Error = "order amount must be positive"
		return trade, nil
	}
	if reason, ok := p.failMarkets[marketID]; ok {
		trade.Status = domain.TradeStatusFailed
		trade.Error = reason
		return trade, nil
	}
	if amount > p.available {
		trade.Status = domain.TradeStatusFailed
		trade.Error = "insufficient balance"
		return trade, nil
	}

	p.available -= amount
	p.orderSeq++
	trade.Status = domain.TradeStatusConfirmed
	trade.TxHash = fmt.Sprintf("paper-%06d", p.orderSeq)
	return trade, nil
}
