package env

import (
	"context"
	"errors"
	"testing"

	"ritenv/internal/core"
	"ritenv/internal/ledger"
	"ritenv/internal/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restingOrder(id int64, target, filled string) ledger.Entry {
	return ledger.Entry{
		OrderID:     id,
		PlacedAt:    8,
		FilledAt:    ledger.NotYet,
		CancelledAt: ledger.NotYet,
		Price:       dec("9.5"),
		Target:      dec(target),
		Filled:      dec(filled),
		VWAP:        valid("9.5"),
		Active:      true,
	}
}

func TestReconcile_DelayedFillScoresDeferredReward(t *testing.T) {
	gw := mock.NewGateway()
	gw.SetCase(core.CaseState{Status: core.CaseActive, Tick: 10, TicksPerPeriod: 300})
	marketAt(gw, "9")

	e := newTestEnv(t, gw, testConfig(harvestedTarget()))
	require.NoError(t, e.Ledger().Append(restingOrder(500, "100", "40")))

	// A third party lifted 30 more between steps.
	gw.SetOrderState(500, dec("70"), valid("9.5"), core.OrderStatusOpen)

	_, reward, done, _ := e.Step(context.Background(), core.Action{Type: core.ActionHold})

	// (9.5 - 9.0) * direction * (30/100)
	assert.True(t, reward.Equal(dec("0.15")), "got %s", reward)
	assert.False(t, done)

	entry, ok := e.Ledger().Get(500)
	require.True(t, ok)
	assert.True(t, entry.Filled.Equal(dec("70")))
	assert.True(t, entry.VWAP.Decimal.Equal(dec("9.5")))
	assert.Equal(t, 10, entry.FilledAt)
	assert.True(t, entry.Active, "OPEN status keeps the entry active")
}

func TestReconcile_FullFillDeactivatesEntry(t *testing.T) {
	gw := mock.NewGateway()
	gw.SetCase(core.CaseState{Status: core.CaseActive, Tick: 12, TicksPerPeriod: 300})
	marketAt(gw, "9")

	e := newTestEnv(t, gw, testConfig(harvestedTarget()))
	require.NoError(t, e.Ledger().Append(restingOrder(501, "100", "40")))

	gw.SetOrderState(501, dec("100"), valid("9.4"), core.OrderStatusTransacted)

	_, _, _, _ = e.Step(context.Background(), core.Action{Type: core.ActionHold})

	entry, _ := e.Ledger().Get(501)
	assert.False(t, entry.Active)
	assert.Empty(t, e.Ledger().Active())
}

func TestReconcile_NoFillChangeNoReward(t *testing.T) {
	gw := mock.NewGateway()
	gw.SetCase(core.CaseState{Status: core.CaseActive, Tick: 11, TicksPerPeriod: 300})
	marketAt(gw, "9")

	e := newTestEnv(t, gw, testConfig(harvestedTarget()))
	require.NoError(t, e.Ledger().Append(restingOrder(502, "100", "40")))

	gw.SetOrderState(502, dec("40"), valid("9.5"), core.OrderStatusOpen)

	_, reward, _, _ := e.Step(context.Background(), core.Action{Type: core.ActionHold})

	assert.True(t, reward.IsZero())
	entry, _ := e.Ledger().Get(502)
	assert.Equal(t, ledger.NotYet, entry.FilledAt, "untouched entry keeps its fill tick")
}

func TestReconcile_UnreachableOrderLeftForNextPass(t *testing.T) {
	gw := mock.NewGateway()
	gw.SetCase(core.CaseState{Status: core.CaseActive, Tick: 11, TicksPerPeriod: 300})
	marketAt(gw, "9")

	e := newTestEnv(t, gw, testConfig(harvestedTarget()))
	require.NoError(t, e.Ledger().Append(restingOrder(503, "100", "40")))

	gw.FailOrders = errors.New("connection refused")

	_, reward, _, _ := e.Step(context.Background(), core.Action{Type: core.ActionHold})

	assert.True(t, reward.IsZero())
	entry, _ := e.Ledger().Get(503)
	assert.True(t, entry.Filled.Equal(dec("40")))
	assert.True(t, entry.Active)

	// Next step the exchange is back and the fill is picked up.
	gw.FailOrders = nil
	gw.SetOrderState(503, dec("70"), valid("9.5"), core.OrderStatusOpen)

	_, reward, _, _ = e.Step(context.Background(), core.Action{Type: core.ActionHold})
	assert.True(t, reward.Equal(dec("0.15")), "got %s", reward)
}

func TestReconcile_RegressionRejectedWithoutReward(t *testing.T) {
	gw := mock.NewGateway()
	gw.SetCase(core.CaseState{Status: core.CaseActive, Tick: 11, TicksPerPeriod: 300})
	marketAt(gw, "9")

	e := newTestEnv(t, gw, testConfig(harvestedTarget()))
	require.NoError(t, e.Ledger().Append(restingOrder(504, "100", "40")))

	// The exchange reports less than previously recorded; the ledger
	// refuses the update and no reward is paid.
	gw.SetOrderState(504, dec("10"), valid("9.5"), core.OrderStatusOpen)

	_, reward, _, _ := e.Step(context.Background(), core.Action{Type: core.ActionHold})

	assert.True(t, reward.IsZero())
	entry, _ := e.Ledger().Get(504)
	assert.True(t, entry.Filled.Equal(dec("40")))
}
