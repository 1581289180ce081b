// Package core defines the shared domain types and interface boundaries
// of the trading environment.
package core

import (
	"context"
)

// Gateway is the request/response surface of the remote exchange. Every
// call is a blocking network round-trip; implementations carry no business
// logic. Callers treat errors as "no new information" and fall back to
// documented sentinel behaviour rather than aborting an episode.
type Gateway interface {
	// TraderID returns the identity the exchange assigned to this session.
	TraderID(ctx context.Context) (string, error)

	// CaseState returns the simulator's run status and clock.
	CaseState(ctx context.Context) (CaseState, error)

	// Position returns the trader's absolute holdings and acquisition VWAP
	// for one ticker.
	Position(ctx context.Context, ticker string) (Position, error)

	// OpenOrders lists all open orders on the book for one ticker,
	// including those of other traders.
	OpenOrders(ctx context.Context, ticker string) ([]OpenOrder, error)

	// Order returns the current fill state of a single order.
	Order(ctx context.Context, orderID int64) (OrderDetail, error)

	// SubmitOrder places a new order.
	SubmitOrder(ctx context.Context, req SubmitRequest) (SubmitResult, error)

	// CancelAll cancels every open order for the ticker. Fire-and-forget:
	// callers re-fetch state afterward rather than inspecting a result.
	CancelAll(ctx context.Context, ticker string) error

	// TradeTape returns the time-and-sales history for one ticker.
	TradeTape(ctx context.Context, ticker string) ([]Trade, error)

	// OrderBook returns the raw limit order book for one ticker.
	OrderBook(ctx context.Context, ticker string) (RawBook, error)
}

// ILogger is the logging interface used throughout the system.
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}
