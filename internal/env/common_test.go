package env

import (
	"context"
	"testing"
	"time"

	"ritenv/internal/core"
	"ritenv/internal/mock"
	"ritenv/internal/reward"
	"ritenv/pkg/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func valid(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func testConfig(rc reward.Config) Config {
	return Config{
		Ticker:          "MC",
		Inventory:       dec("1000"),
		Direction:       1,
		StartTime:       5,
		EndTime:         290,
		Reward:          rc,
		SyncMaxAttempts: 3,
		SyncInterval:    time.Millisecond,
	}
}

func harvestedTarget() reward.Config {
	return reward.Config{Collection: reward.CollectionHarvested, Method: reward.MethodVWAPTarget}
}

func newTestEnv(t *testing.T, gw *mock.Gateway, cfg Config) *Environment {
	t.Helper()
	e, err := New(context.Background(), gw, cfg, logging.NewNop())
	require.NoError(t, err)
	return e
}

// marketAt seeds the tape so the episode-window VWAP is exactly price.
func marketAt(gw *mock.Gateway, price string) {
	gw.SetTape([]core.Trade{
		{Tick: 6, Price: dec(price), Quantity: dec("100")},
	})
}
