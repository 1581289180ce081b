// Package gateway implements the REST client for the RIT exchange
// simulator. It is pure I/O: every method is one request/response
// round-trip mapped onto the domain types, with no business logic.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ritenv/internal/config"
	"ritenv/internal/core"
	phttp "ritenv/pkg/http"

	"github.com/shopspring/decimal"
)

// apiKeySigner authenticates requests with the X-API-key header the RIT
// client API expects.
type apiKeySigner struct {
	key string
}

func (s *apiKeySigner) SignRequest(req *http.Request) error {
	req.Header.Set("X-API-key", s.key)
	return nil
}

// RIT is a Gateway over the RIT client REST API (v1).
type RIT struct {
	client *phttp.Client
	logger core.ILogger
}

// NewRIT creates a gateway against the configured RIT endpoint.
func NewRIT(cfg *config.APIConfig, logger core.ILogger) *RIT {
	client := phttp.NewClient(
		cfg.BaseURL,
		time.Duration(cfg.TimeoutSeconds)*time.Second,
		&apiKeySigner{key: string(cfg.APIKey)},
		cfg.RateLimit,
		cfg.RateBurst,
	)
	return &RIT{
		client: client,
		logger: logger.WithField("component", "gateway"),
	}
}

type traderResponse struct {
	TraderID string `json:"trader_id"`
}

// TraderID fetches the identity the exchange assigned to this session.
func (g *RIT) TraderID(ctx context.Context) (string, error) {
	body, err := g.client.Get(ctx, "/trader", nil)
	if err != nil {
		return "", err
	}
	var resp traderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode trader: %w", err)
	}
	return resp.TraderID, nil
}

type caseResponse struct {
	Status         string `json:"status"`
	Tick           int    `json:"tick"`
	TicksPerPeriod int    `json:"ticks_per_period"`
}

// CaseState fetches the simulator's run status and clock.
func (g *RIT) CaseState(ctx context.Context) (core.CaseState, error) {
	body, err := g.client.Get(ctx, "/case", nil)
	if err != nil {
		return core.CaseState{}, err
	}
	var resp caseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.CaseState{}, fmt.Errorf("decode case: %w", err)
	}
	return core.CaseState{
		Status:         core.CaseStatus(resp.Status),
		Tick:           resp.Tick,
		TicksPerPeriod: resp.TicksPerPeriod,
	}, nil
}

type securityResponse struct {
	Position float64 `json:"position"`
	VWAP     float64 `json:"vwap"`
}

// Position fetches absolute holdings and acquisition VWAP for one ticker.
func (g *RIT) Position(ctx context.Context, ticker string) (core.Position, error) {
	body, err := g.client.Get(ctx, "/securities", map[string]string{"ticker": ticker})
	if err != nil {
		return core.Position{}, err
	}
	var resp []securityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.Position{}, fmt.Errorf("decode securities: %w", err)
	}
	if len(resp) == 0 {
		return core.Position{}, fmt.Errorf("security %s not found", ticker)
	}
	return core.Position{
		Quantity: decimal.NewFromFloat(resp[0].Position).Abs(),
		Cost:     decimal.NewFromFloat(resp[0].VWAP),
	}, nil
}

type orderRow struct {
	OrderID        int64    `json:"order_id"`
	TraderID       string   `json:"trader_id"`
	Ticker         string   `json:"ticker"`
	Price          float64  `json:"price"`
	Quantity       float64  `json:"quantity"`
	QuantityFilled float64  `json:"quantity_filled"`
	VWAP           *float64 `json:"vwap"`
	Status         string   `json:"status"`
}

// OpenOrders lists all open orders on the book for one ticker.
func (g *RIT) OpenOrders(ctx context.Context, ticker string) ([]core.OpenOrder, error) {
	body, err := g.client.Get(ctx, "/orders", map[string]string{"status": core.OrderStatusOpen})
	if err != nil {
		return nil, err
	}
	var rows []orderRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	orders := make([]core.OpenOrder, 0, len(rows))
	for _, r := range rows {
		if ticker != "" && r.Ticker != ticker {
			continue
		}
		orders = append(orders, core.OpenOrder{
			OrderID:        r.OrderID,
			TraderID:       r.TraderID,
			Ticker:         r.Ticker,
			Price:          decimal.NewFromFloat(r.Price),
			Quantity:       decimal.NewFromFloat(r.Quantity),
			QuantityFilled: decimal.NewFromFloat(r.QuantityFilled),
		})
	}
	return orders, nil
}

// Order fetches the fill state of a single order.
func (g *RIT) Order(ctx context.Context, orderID int64) (core.OrderDetail, error) {
	body, err := g.client.Get(ctx, fmt.Sprintf("/orders/%d", orderID), nil)
	if err != nil {
		return core.OrderDetail{}, err
	}
	var row orderRow
	if err := json.Unmarshal(body, &row); err != nil {
		return core.OrderDetail{}, fmt.Errorf("decode order %d: %w", orderID, err)
	}
	return core.OrderDetail{
		QuantityFilled: decimal.NewFromFloat(row.QuantityFilled),
		VWAP:           nullFromPtr(row.VWAP),
		Status:         row.Status,
	}, nil
}

type submitResponse struct {
	Status         string   `json:"status"`
	OrderID        int64    `json:"order_id"`
	QuantityFilled float64  `json:"quantity_filled"`
	VWAP           *float64 `json:"vwap"`
	Tick           int      `json:"tick"`
}

// SubmitOrder places a new order. The RIT API takes POST arguments as
// query parameters.
func (g *RIT) SubmitOrder(ctx context.Context, req core.SubmitRequest) (core.SubmitResult, error) {
	params := map[string]string{
		"ticker":   req.Ticker,
		"type":     req.Type,
		"quantity": req.Quantity.String(),
		"price":    req.Price.String(),
		"action":   string(req.Side),
	}
	body, err := g.client.Post(ctx, "/orders", params)
	if err != nil {
		return core.SubmitResult{}, err
	}
	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.SubmitResult{}, fmt.Errorf("decode submit: %w", err)
	}
	return core.SubmitResult{
		Status:         resp.Status,
		OrderID:        resp.OrderID,
		QuantityFilled: decimal.NewFromFloat(resp.QuantityFilled),
		VWAP:           nullFromPtr(resp.VWAP),
		Tick:           resp.Tick,
	}, nil
}

// CancelAll cancels every open order for the ticker.
func (g *RIT) CancelAll(ctx context.Context, ticker string) error {
	_, err := g.client.Post(ctx, "/commands/cancel", map[string]string{"ticker": ticker})
	return err
}

type tradeRow struct {
	Tick     int     `json:"tick"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// TradeTape fetches the time-and-sales history for one ticker.
func (g *RIT) TradeTape(ctx context.Context, ticker string) ([]core.Trade, error) {
	body, err := g.client.Get(ctx, "/securities/tas", map[string]string{"ticker": ticker})
	if err != nil {
		return nil, err
	}
	var rows []tradeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode tape: %w", err)
	}
	trades := make([]core.Trade, 0, len(rows))
	for _, r := range rows {
		trades = append(trades, core.Trade{
			Tick:     r.Tick,
			Price:    decimal.NewFromFloat(r.Price),
			Quantity: decimal.NewFromFloat(r.Quantity),
		})
	}
	return trades, nil
}

type quoteRow struct {
	Price          float64 `json:"price"`
	Quantity       float64 `json:"quantity"`
	QuantityFilled float64 `json:"quantity_filled"`
}

// OrderBook fetches the raw limit order book for one ticker.
func (g *RIT) OrderBook(ctx context.Context, ticker string) (core.RawBook, error) {
	body, err := g.client.Get(ctx, "/securities/book", map[string]string{"ticker": ticker})
	if err != nil {
		return nil, err
	}
	var sides map[string][]quoteRow
	if err := json.Unmarshal(body, &sides); err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}
	book := make(core.RawBook, len(sides))
	for side, rows := range sides {
		quotes := make([]core.Quote, 0, len(rows))
		for _, r := range rows {
			quotes = append(quotes, core.Quote{
				Price:          decimal.NewFromFloat(r.Price),
				Quantity:       decimal.NewFromFloat(r.Quantity),
				QuantityFilled: decimal.NewFromFloat(r.QuantityFilled),
			})
		}
		book[side] = quotes
	}
	return book, nil
}

func nullFromPtr(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*f), Valid: true}
}
