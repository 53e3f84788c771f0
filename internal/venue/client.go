// Package venue talks to the prediction market venue: market listing,
// balance reads and order placement. Balance and order calls degrade to
// safe values on failure so a flaky venue cannot wedge the pipeline.
package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/SparkssL/Seer-Engine/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL      = "https://proxy.opinion.trade:8443"
	DefaultTimeout      = 30 * time.Second
	DefaultMarketsLimit = 20

	balanceSymbol = "USDC"
)

// Client is an HTTP client for the venue REST API.
type Client struct {
	baseURL      string
	apiKey       string
	marketsLimit int
	client       *http.Client
	logger       *log.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL sets the venue API base URL (no trailing slash).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithMarketsLimit sets how many markets one fetch requests.
func WithMarketsLimit(n int) ClientOption {
	return func(c *Client) {
		c.marketsLimit = n
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new venue API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		apiKey:       apiKey,
		marketsLimit: DefaultMarketsLimit,
		client:       &http.Client{Timeout: DefaultTimeout},
		logger:       log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doJSON performs one request and decodes the response body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// FetchMarkets lists activated markets from the venue and normalizes them.
// Only tradeable markets (activated with both outcome tokens) are returned.
func (c *Client) FetchMarkets(ctx context.Context) ([]*domain.Market, error) {
	var resp struct {
		Result struct {
			List []json.RawMessage `json:"list"`
		} `json:"result"`
	}

	path := fmt.Sprintf("/markets?limit=%d&status=activated", c.marketsLimit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	markets := make([]*domain.Market, 0, len(resp.Result.List))
	for _, raw := range resp.Result.List {
		m := normalizeMarket(raw)
		if m != nil {
			markets = append(markets, m)
		}
	}

	c.logger.Printf("[venue] fetched %d markets, %d tradeable", len(resp.Result.List), len(markets))
	return markets, nil
}

// GetBalance reads the wallet balance, preferring the USDC/USDT entry and
// falling back to any positive balance. Any failure yields the zero balance
// with symbol UNKNOWN.
func (c *Client) GetBalance(ctx context.Context) (domain.Balance, error) {
	var resp struct {
		Balances []json.RawMessage `json:"balances"`
		Result   struct {
			Balances []json.RawMessage `json:"balances"`
		} `json:"result"`
	}

	if err := c.doJSON(ctx, http.MethodGet, "/balances", nil, &resp); err != nil {
		c.logger.Printf("[venue] balance read failed: %v", err)
		return domain.Balance{Available: 0, Symbol: "UNKNOWN"}, nil
	}

	entries := resp.Balances
	if len(entries) == 0 {
		entries = resp.Result.Balances
	}

	var fallback float64
	for _, raw := range entries {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		symbol := strings.ToUpper(pickString(fields, "symbol", "token_symbol", "tokenSymbol"))
		available := pickFloat(fields, "available_balance", "availableBalance", "available")

		if symbol == "USDC" || symbol == "USDT" {
			return domain.Balance{Available: available, Symbol: balanceSymbol}, nil
		}
		if available > 0 && fallback == 0 {
			fallback = available
		}
	}

	if fallback > 0 {
		return domain.Balance{Available: fallback, Symbol: balanceSymbol}, nil
	}
	return domain.Balance{Available: 0, Symbol: "UNKNOWN"}, nil
}

// PlaceOrder submits a market order. A non-positive amount is rejected
// locally. Venue failures produce a failed TradeExecution with Error set,
// never an error return.
func (c *Client) PlaceOrder(ctx context.Context, marketID, side string, amount, price float64) (*domain.TradeExecution, error) {
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

	reqBody := map[string]any{
		"marketId":  marketID,
		"side":      side,
		"amount":    amount,
		"price":     price,
		"orderType": "MARKET",
	}

	var resp map[string]any
	if err := c.doJSON(ctx, http.MethodPost, "/orders", reqBody, &resp); err != nil {
		c.logger.Printf("[venue] order failed for market %s: %v", marketID, err)
		trade.Status = domain.TradeStatusFailed
		trade.Error = err.Error()
		return trade, nil
	}

	if errMsg := pickString(resp, "error", "errmsg", "message"); errMsg != "" && pickString(resp, "tx_hash", "txHash", "order_id", "orderId") == "" {
		trade.Status = domain.TradeStatusFailed
		trade.Error = errMsg
		return trade, nil
	}

	trade.Status = domain.TradeStatusConfirmed
	trade.TxHash = pickString(resp, "tx_hash", "txHash", "order_id", "orderId")
	c.logger.Printf("[venue] order confirmed for market %s: %s $%.2f @ %.2f", marketID, side, amount, price)
	return trade, nil
}

// normalizeMarket converts one raw venue market into the domain form.
// The venue API emits both camelCase and snake_case fields depending on
// the endpoint version, so lookups try both. Returns nil for markets that
// are closed or missing outcome tokens.
func normalizeMarket(raw json.RawMessage) *domain.Market {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	status := strings.ToLower(pickString(fields, "statusEnum", "status_enum", "status"))
	tradeable := strings.Contains(status, "activated") || strings.Contains(status, "created") ||
		status == "1" || status == "2" || status == "active"
	closed := strings.Contains(status, "resolved") || strings.Contains(status, "canceled") ||
		strings.Contains(status, "closed")
	if !tradeable || closed {
		return nil
	}

	if pickString(fields, "yesTokenId", "yes_token_id") == "" ||
		pickString(fields, "noTokenId", "no_token_id") == "" {
		return nil
	}

	id := pickString(fields, "marketId", "market_id", "id")
	if id == "" {
		return nil
	}

	question := pickString(fields, "marketTitle", "market_title", "question")
	if question == "" {
		question = "Untitled market"
	}

	category := pickString(fields, "category")
	if category == "" {
		category = "General"
	}

	yesLabel := strings.ToUpper(pickString(fields, "yesLabel", "yes_label"))
	if yesLabel == "" {
		yesLabel = "YES"
	}
	noLabel := strings.ToUpper(pickString(fields, "noLabel", "no_label"))
	if noLabel == "" {
		noLabel = "NO"
	}

	yesPrice := pickFloat(fields, "yesPrice", "yes_price")
	if yesPrice <= 0 || yesPrice >= 1 {
		yesPrice = 0.5
	}
	change24h := pickFloat(fields, "change24h", "change_24h")

	return &domain.Market{
		ID:        id,
		Question:  question,
		Category:  category,
		Volume:    pickFloat(fields, "volume"),
		Liquidity: pickFloat(fields, "liquidity"),
		Status:    domain.MarketStatusActive,
		EndDate:   pickString(fields, "cutoffAt", "cutoff_at", "endDate", "end_date"),
		YesLabel:  yesLabel,
		NoLabel:   noLabel,
		Outcomes: []domain.Outcome{
			{
				ID:          id + "-yes",
				Name:        yesLabel,
				Probability: yesPrice,
				Change24h:   change24h,
			},
			{
				ID:          id + "-no",
				Name:        noLabel,
				Probability: 1 - yesPrice,
				Change24h:   -change24h,
			},
		},
	}
}

// pickString returns the first non-empty string value among keys.
func pickString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// pickFloat returns the first numeric value among keys.
func pickFloat(fields map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case float64:
			return v
		case string:
			var f float64
			if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
				return f
			}
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
