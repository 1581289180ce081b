// Package mock provides an in-memory Gateway for tests and for running
// the environment without a live exchange.
package mock

import (
	"context"
	"errors"
	"sync"

	"ritenv/internal/core"

	"github.com/shopspring/decimal"
)

var errNotFound = errors.New("mock: order not found")

type mockOrder struct {
	id     int64
	req    core.SubmitRequest
	filled decimal.Decimal
	vwap   decimal.NullDecimal
	status string
	tick   int
}

// Gateway implements core.Gateway against in-memory state. Tests script
// it explicitly through the setter methods; with AutoAdvance enabled it
// behaves as a tiny self-driving simulator: each clock poll advances one
// tick and partially fills resting limit orders at their limit price.
type Gateway struct {
	mu sync.Mutex

	TraderIdent string
	AutoAdvance bool

	caseState core.CaseState
	position  core.Position
	tape      []core.Trade
	book      core.RawBook

	orders     map[int64]*mockOrder
	nextID     int64
	cancels    int
	lastSubmit *core.SubmitRequest

	// Error injection: when set, the corresponding calls fail.
	FailCase    error
	FailOrders  error
	FailSubmit  error
	FailTape    error
	FailBook    error
	FailPos     error
	FailCancel  error
	RejectNext  bool // next submission returns status "failed"
	fillPortion decimal.Decimal
}

// NewGateway returns a gateway with a running case clock and no state.
func NewGateway() *Gateway {
	return &Gateway{
		TraderIdent: "trader-1",
		caseState: core.CaseState{
			Status:         core.CaseActive,
			Tick:           0,
			TicksPerPeriod: 300,
		},
		orders:      make(map[int64]*mockOrder),
		nextID:      1000,
		fillPortion: decimal.NewFromFloat(0.1),
	}
}

// SetCase sets the simulator clock state.
func (g *Gateway) SetCase(cs core.CaseState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.caseState = cs
}

// SetPosition sets the exchange-side position.
func (g *Gateway) SetPosition(quantity, cost decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = core.Position{Quantity: quantity, Cost: cost}
}

// SetTape replaces the time-and-sales tape.
func (g *Gateway) SetTape(trades []core.Trade) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tape = trades
}

// SetBook replaces the raw order book.
func (g *Gateway) SetBook(book core.RawBook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.book = book
}

// SetOrderState creates or overwrites an order's reported fill state,
// bypassing the submission flow. Tests use it to script what the exchange
// reports during reconciliation.
func (g *Gateway) SetOrderState(orderID int64, filled decimal.Decimal, vwap decimal.NullDecimal, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		o = &mockOrder{id: orderID, status: status}
		g.orders[orderID] = o
	}
	o.filled = filled
	o.vwap = vwap
	o.status = status
}

// Fill marks quantity of an order as executed at the given price.
func (g *Gateway) Fill(orderID int64, quantity, price decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return
	}
	g.fillLocked(o, quantity, price)
}

func (g *Gateway) fillLocked(o *mockOrder, quantity, price decimal.Decimal) {
	remaining := o.req.Quantity.Sub(o.filled)
	if quantity.GreaterThan(remaining) {
		quantity = remaining
	}
	if quantity.IsZero() {
		return
	}

	// Running VWAP over this order's fills.
	prevNotional := decimal.Zero
	if o.vwap.Valid {
		prevNotional = o.vwap.Decimal.Mul(o.filled)
	}
	o.filled = o.filled.Add(quantity)
	o.vwap = decimal.NullDecimal{
		Decimal: prevNotional.Add(price.Mul(quantity)).Div(o.filled),
		Valid:   true,
	}
	if o.filled.GreaterThanOrEqual(o.req.Quantity) {
		o.status = core.OrderStatusTransacted
	}

	g.tape = append(g.tape, core.Trade{Tick: g.caseState.Tick, Price: price, Quantity: quantity})

	// Fills move the exchange position.
	g.position.Quantity = g.position.Quantity.Add(quantity)
	if g.position.Cost.IsZero() {
		g.position.Cost = price
	}
}

// OpenOrderIDs returns the ids of orders still open, for test assertions.
func (g *Gateway) OpenOrderIDs() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var ids []int64
	for id, o := range g.orders {
		if o.status == core.OrderStatusOpen {
			ids = append(ids, id)
		}
	}
	return ids
}

// CancelCount reports how many cancel-all commands were received.
func (g *Gateway) CancelCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancels
}

// LastSubmit returns the most recent submission, for test assertions.
func (g *Gateway) LastSubmit() (core.SubmitRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastSubmit == nil {
		return core.SubmitRequest{}, false
	}
	return *g.lastSubmit, true
}

// --- core.Gateway implementation ---

func (g *Gateway) TraderID(ctx context.Context) (string, error) {
	return g.TraderIdent, nil
}

func (g *Gateway) CaseState(ctx context.Context) (core.CaseState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCase != nil {
		return core.CaseState{}, g.FailCase
	}
	if g.AutoAdvance {
		g.caseState.Tick++
		for _, o := range g.orders {
			if o.status == core.OrderStatusOpen && o.req.Type == "LIMIT" {
				g.fillLocked(o, o.req.Quantity.Mul(g.fillPortion), o.req.Price)
			}
		}
	}
	return g.caseState, nil
}

func (g *Gateway) Position(ctx context.Context, ticker string) (core.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailPos != nil {
		return core.Position{}, g.FailPos
	}
	return g.position, nil
}

func (g *Gateway) OpenOrders(ctx context.Context, ticker string) ([]core.OpenOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailOrders != nil {
		return nil, g.FailOrders
	}
	var open []core.OpenOrder
	for _, o := range g.orders {
		if o.status != core.OrderStatusOpen {
			continue
		}
		open = append(open, core.OpenOrder{
			OrderID:        o.id,
			TraderID:       g.TraderIdent,
			Ticker:         o.req.Ticker,
			Price:          o.req.Price,
			Quantity:       o.req.Quantity,
			QuantityFilled: o.filled,
		})
	}
	return open, nil
}

func (g *Gateway) Order(ctx context.Context, orderID int64) (core.OrderDetail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailOrders != nil {
		return core.OrderDetail{}, g.FailOrders
	}
	o, ok := g.orders[orderID]
	if !ok {
		return core.OrderDetail{}, errNotFound
	}
	return core.OrderDetail{
		QuantityFilled: o.filled,
		VWAP:           o.vwap,
		Status:         o.status,
	}, nil
}

func (g *Gateway) SubmitOrder(ctx context.Context, req core.SubmitRequest) (core.SubmitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailSubmit != nil {
		return core.SubmitResult{}, g.FailSubmit
	}
	g.lastSubmit = &req
	if g.RejectNext {
		g.RejectNext = false
		return core.SubmitResult{Status: core.OrderStatusFailed, OrderID: -1, Tick: g.caseState.Tick}, nil
	}

	g.nextID++
	o := &mockOrder{
		id:     g.nextID,
		req:    req,
		status: core.OrderStatusOpen,
		tick:   g.caseState.Tick,
	}
	g.orders[o.id] = o

	// Market orders execute immediately against the last print, or the
	// limit price when the tape is empty.
	if req.Type == "MARKET" {
		price := req.Price
		if len(g.tape) > 0 {
			price = g.tape[len(g.tape)-1].Price
		}
		g.fillLocked(o, req.Quantity, price)
	}

	return core.SubmitResult{
		Status:         o.status,
		OrderID:        o.id,
		QuantityFilled: o.filled,
		VWAP:           o.vwap,
		Tick:           o.tick,
	}, nil
}

func (g *Gateway) CancelAll(ctx context.Context, ticker string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCancel != nil {
		return g.FailCancel
	}
	g.cancels++
	for _, o := range g.orders {
		if o.status == core.OrderStatusOpen {
			o.status = "CANCELLED"
		}
	}
	return nil
}

func (g *Gateway) TradeTape(ctx context.Context, ticker string) ([]core.Trade, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailTape != nil {
		return nil, g.FailTape
	}
	tape := make([]core.Trade, len(g.tape))
	copy(tape, g.tape)
	return tape, nil
}

func (g *Gateway) OrderBook(ctx context.Context, ticker string) (core.RawBook, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailBook != nil {
		return nil, g.FailBook
	}
	return g.book, nil
}
