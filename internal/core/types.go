package core

import (
	"github.com/shopspring/decimal"
)

// ActionType enumerates the discrete actions an agent can take each step.
type ActionType int

const (
	ActionLimit ActionType = iota
	ActionMarket
	ActionHold
	ActionCancel
)

func (t ActionType) String() string {
	switch t {
	case ActionLimit:
		return "LIMIT"
	case ActionMarket:
		return "MARKET"
	case ActionHold:
		return "HOLD"
	case ActionCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Action is one agent decision: an order type plus its limit terms.
// Price is ignored for market orders; a zero Quantity degrades the
// action to a hold before it ever reaches the exchange.
type Action struct {
	Type     ActionType
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// CaseStatus is the simulator's run state as reported by the exchange.
type CaseStatus string

const (
	CaseActive  CaseStatus = "ACTIVE"
	CasePaused  CaseStatus = "PAUSED"
	CaseStopped CaseStatus = "STOPPED"
)

// CaseState is one poll of the simulator clock.
type CaseState struct {
	Status         CaseStatus
	Tick           int
	TicksPerPeriod int
}

// Order statuses reported by the exchange, plus the local sentinel used
// when a submission never reached it.
const (
	OrderStatusOpen       = "OPEN"
	OrderStatusTransacted = "TRANSACTED"
	OrderStatusCancelled  = "cancelled"
	OrderStatusFailed     = "failed"
)

// OrderSide is the direction of an order on the exchange.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// SideForDirection maps the trader's unwind direction onto an order side:
// a trader unwinding a long book (+1) sells, the mirror (-1) buys.
func SideForDirection(direction int) OrderSide {
	if direction == 1 {
		return SideSell
	}
	return SideBuy
}

// Position is the exchange's view of the trader's holdings in one security.
type Position struct {
	Quantity decimal.Decimal // absolute holdings
	Cost     decimal.Decimal // running acquisition VWAP
}

// OpenOrder is one row of the exchange's open-order listing.
type OpenOrder struct {
	OrderID        int64
	TraderID       string
	Ticker         string
	Price          decimal.Decimal
	Quantity       decimal.Decimal
	QuantityFilled decimal.Decimal
}

// OrderDetail is the fill state of a single order. VWAP is null until the
// order has traded at least once.
type OrderDetail struct {
	QuantityFilled decimal.Decimal
	VWAP           decimal.NullDecimal
	Status         string
}

// SubmitRequest describes a new order for the exchange.
type SubmitRequest struct {
	Ticker   string
	Type     string // "LIMIT" or "MARKET"
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Side     OrderSide
}

// SubmitResult is the exchange's acknowledgement of a submission. Status
// OrderStatusFailed means the order never reached the book.
type SubmitResult struct {
	Status         string
	OrderID        int64
	QuantityFilled decimal.Decimal
	VWAP           decimal.NullDecimal
	Tick           int
}

// Trade is one print on the time-and-sales tape.
type Trade struct {
	Tick     int
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Quote is one resting order in the raw order book.
type Quote struct {
	Price          decimal.Decimal
	Quantity       decimal.Decimal
	QuantityFilled decimal.Decimal
}

// RawBook is the unaggregated order book keyed by side ("bids"/"asks").
type RawBook map[string][]Quote

// BookLevel is one aggregated price level: total outstanding volume
// resting at that price.
type BookLevel struct {
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// Book is the order book aggregated by price, keyed by side.
type Book map[string][]BookLevel

// StateSummary is the trader-state half of an observation.
type StateSummary struct {
	Time       int
	StartTime  int
	EndTime    int
	Inventory  decimal.Decimal
	Position   decimal.Decimal
	Pending    decimal.Decimal
	Cost       decimal.Decimal
	MarketVWAP decimal.NullDecimal
}

// Observation is what the agent sees after reset and after every step.
type Observation struct {
	Book  Book
	State StateSummary
}
