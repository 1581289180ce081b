package env

import (
	"context"
	"time"

	"ritenv/internal/core"
	"ritenv/internal/ledger"
	"ritenv/internal/reward"
	"ritenv/pkg/telemetry"

	"github.com/shopspring/decimal"
)

// dispatch interprets one agent action into at most one submission and
// returns the immediate reward contribution. A rejected or unreachable
// submission yields zero reward and never touches the ledger.
func (e *Environment) dispatch(ctx context.Context, action core.Action) decimal.Decimal {
	actionType := action.Type

	// A zero-quantity order is meaningless and must not reach the
	// exchange: the action degrades to a hold whatever was requested.
	if action.Quantity.IsZero() {
		actionType = core.ActionHold
	}

	switch actionType {
	case core.ActionHold:
		return decimal.Zero

	case core.ActionCancel:
		e.cancelAll(ctx)
		return decimal.Zero

	case core.ActionLimit:
		return e.submit(ctx, core.SubmitRequest{
			Ticker:   e.cfg.Ticker,
			Type:     "LIMIT",
			Quantity: action.Quantity,
			Price:    action.Price,
			Side:     core.SideForDirection(e.cfg.Direction),
		})

	case core.ActionMarket:
		// Clear the book first so resting orders cannot double-fill the
		// remaining gap, then size against the re-fetched true position.
		e.cancelAll(ctx)
		e.refreshPosition(ctx)
		gap := e.cfg.Inventory.Sub(e.position).Abs()
		return e.submit(ctx, core.SubmitRequest{
			Ticker:   e.cfg.Ticker,
			Type:     "MARKET",
			Quantity: gap,
			Price:    decimal.Zero,
			Side:     core.SideForDirection(e.cfg.Direction),
		})
	}

	return decimal.Zero
}

// submit places an order with the gateway, records it in the ledger on
// acceptance, and scores the immediate reward on the order's notional.
func (e *Environment) submit(ctx context.Context, req core.SubmitRequest) decimal.Decimal {
	res, err := e.gw.SubmitOrder(ctx, req)
	if err != nil {
		telemetry.OrdersRejected.Inc()
		e.logger.Warn("order submission failed", "type", req.Type, "error", err)
		return decimal.Zero
	}
	if res.Status == core.OrderStatusFailed || res.Status == core.OrderStatusCancelled {
		telemetry.OrdersRejected.Inc()
		e.logger.Warn("order rejected by exchange",
			"type", req.Type,
			"status", res.Status)
		return decimal.Zero
	}

	filledAt := ledger.NotYet
	if res.QuantityFilled.IsPositive() {
		filledAt = res.Tick
	}
	entry := ledger.Entry{
		OrderID:     res.OrderID,
		PlacedAt:    res.Tick,
		FilledAt:    filledAt,
		CancelledAt: ledger.NotYet,
		Price:       req.Price,
		Target:      req.Quantity,
		Filled:      res.QuantityFilled,
		VWAP:        res.VWAP,
		Active:      res.Status == core.OrderStatusOpen,
	}
	if err := e.book.Append(entry); err != nil {
		e.logger.Error("failed to track order", "order_id", res.OrderID, "error", err)
	}
	telemetry.OrdersSubmitted.WithLabelValues(req.Type).Inc()

	score := e.cfg.Reward.Score(reward.Fill{
		Quantity:  req.Price.Mul(req.Quantity), // notional
		ExecPrice: res.VWAP,
		Portion:   decimal.NewFromInt(1),
		Terminal:  false,
	}, e.cfg.Direction, e.marketVWAP(ctx))
	if !score.IsZero() {
		telemetry.Reward.WithLabelValues("immediate").Add(mustFloat(score))
	}

	e.logger.Debug("order accepted",
		"order_id", res.OrderID,
		"type", req.Type,
		"side", req.Side,
		"quantity", req.Quantity,
		"price", req.Price,
		"reward", score)

	return score
}

// cancelAll clears every open order, stamps the active ledger entries as
// cancelled, and re-reads the outstanding volume.
func (e *Environment) cancelAll(ctx context.Context) {
	if err := e.gw.CancelAll(ctx, e.cfg.Ticker); err != nil {
		e.logger.Warn("cancel-all failed", "error", err)
	}

	// Give the matching engine a moment to settle before re-reading.
	time.Sleep(50 * time.Millisecond)

	n := e.book.CancelActive(e.tick)
	if n > 0 {
		e.logger.Debug("cancelled active orders", "count", n, "tick", e.tick)
	}
	e.refreshPending(ctx)
}
