package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ritenv/internal/config"
	"ritenv/internal/core"
	phttp "ritenv/pkg/http"
	"ritenv/pkg/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *RIT {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRIT(&config.APIConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		TimeoutSeconds: 2,
	}, logging.NewNop())
}

func TestRIT_SignsEveryRequest(t *testing.T) {
	var gotKey string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-key")
		w.Write([]byte(`{"trader_id":"trader-7"}`))
	})

	id, err := g.TraderID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "trader-7", id)
	assert.Equal(t, "test-key", gotKey)
}

func TestRIT_CaseState(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/case", r.URL.Path)
		w.Write([]byte(`{"name":"ALGO2","tick":42,"ticks_per_period":300,"status":"ACTIVE"}`))
	})

	cs, err := g.CaseState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.CaseActive, cs.Status)
	assert.Equal(t, 42, cs.Tick)
	assert.Equal(t, 300, cs.TicksPerPeriod)
}

func TestRIT_PositionAbsoluteQuantity(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/securities", r.URL.Path)
		assert.Equal(t, "MC", r.URL.Query().Get("ticker"))
		w.Write([]byte(`[{"ticker":"MC","position":-400,"vwap":9.73}]`))
	})

	pos, err := g.Position(context.Background(), "MC")
	require.NoError(t, err)
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(400)), "short positions report absolute size")
	assert.True(t, pos.Cost.Equal(decimal.NewFromFloat(9.73)))
}

func TestRIT_PositionUnknownTicker(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := g.Position(context.Background(), "XYZ")
	assert.Error(t, err)
}

func TestRIT_OrderNullVWAP(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/1234", r.URL.Path)
		w.Write([]byte(`{"order_id":1234,"quantity":100,"quantity_filled":0,"vwap":null,"status":"OPEN"}`))
	})

	det, err := g.Order(context.Background(), 1234)
	require.NoError(t, err)
	assert.False(t, det.VWAP.Valid, "an unfilled order carries no execution price")
	assert.True(t, det.QuantityFilled.IsZero())
	assert.Equal(t, core.OrderStatusOpen, det.Status)
}

func TestRIT_OrderPartialFill(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"order_id":1234,"quantity":100,"quantity_filled":70,"vwap":9.5,"status":"OPEN"}`))
	})

	det, err := g.Order(context.Background(), 1234)
	require.NoError(t, err)
	require.True(t, det.VWAP.Valid)
	assert.True(t, det.VWAP.Decimal.Equal(decimal.NewFromFloat(9.5)))
	assert.True(t, det.QuantityFilled.Equal(decimal.NewFromInt(70)))
}

func TestRIT_SubmitOrderQueryParams(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "MC", q.Get("ticker"))
		assert.Equal(t, "LIMIT", q.Get("type"))
		assert.Equal(t, "100", q.Get("quantity"))
		assert.Equal(t, "9.5", q.Get("price"))
		assert.Equal(t, "SELL", q.Get("action"))
		w.Write([]byte(`{"order_id":2001,"status":"OPEN","quantity_filled":0,"vwap":null,"tick":12}`))
	})

	res, err := g.SubmitOrder(context.Background(), core.SubmitRequest{
		Ticker:   "MC",
		Type:     "LIMIT",
		Quantity: decimal.NewFromInt(100),
		Price:    decimal.RequireFromString("9.5"),
		Side:     core.SideSell,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2001), res.OrderID)
	assert.Equal(t, core.OrderStatusOpen, res.Status)
	assert.Equal(t, 12, res.Tick)
	assert.False(t, res.VWAP.Valid)
}

func TestRIT_SubmitOrderAPIError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED"}`))
	})

	_, err := g.SubmitOrder(context.Background(), core.SubmitRequest{
		Ticker:   "MC",
		Type:     "MARKET",
		Quantity: decimal.NewFromInt(1),
		Side:     core.SideSell,
	})
	require.Error(t, err)
	var apiErr *phttp.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestRIT_CancelAll(t *testing.T) {
	var gotPath, gotTicker string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTicker = r.URL.Query().Get("ticker")
		w.Write([]byte(`{"cancelled_order_ids":[1,2]}`))
	})

	require.NoError(t, g.CancelAll(context.Background(), "MC"))
	assert.Equal(t, "/commands/cancel", gotPath)
	assert.Equal(t, "MC", gotTicker)
}

func TestRIT_TradeTape(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/securities/tas", r.URL.Path)
		w.Write([]byte(`[{"id":1,"tick":6,"price":9.0,"quantity":100},{"id":2,"tick":7,"price":9.25,"quantity":50}]`))
	})

	tape, err := g.TradeTape(context.Background(), "MC")
	require.NoError(t, err)
	require.Len(t, tape, 2)
	assert.Equal(t, 7, tape[1].Tick)
	assert.True(t, tape[1].Price.Equal(decimal.NewFromFloat(9.25)))
}

func TestRIT_OrderBookSides(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/securities/book", r.URL.Path)
		w.Write([]byte(`{"bids":[{"price":9.0,"quantity":500,"quantity_filled":100}],"asks":[{"price":9.5,"quantity":300,"quantity_filled":0}]}`))
	})

	book, err := g.OrderBook(context.Background(), "MC")
	require.NoError(t, err)
	require.Len(t, book["bids"], 1)
	require.Len(t, book["asks"], 1)
	assert.True(t, book["bids"][0].QuantityFilled.Equal(decimal.NewFromInt(100)))
	assert.True(t, book["asks"][0].Price.Equal(decimal.NewFromFloat(9.5)))
}

func TestRIT_OpenOrdersFiltersTicker(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "OPEN", r.URL.Query().Get("status"))
		w.Write([]byte(`[
			{"order_id":1,"trader_id":"t1","ticker":"MC","price":9.5,"quantity":100,"quantity_filled":40,"status":"OPEN"},
			{"order_id":2,"trader_id":"t1","ticker":"OTHER","price":1,"quantity":10,"quantity_filled":0,"status":"OPEN"}
		]`))
	})

	orders, err := g.OpenOrders(context.Background(), "MC")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].OrderID)
	assert.True(t, orders[0].QuantityFilled.Equal(decimal.NewFromInt(40)))
}
