package reward

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func valid(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("harvested", "VWAP_TARGET")
	require.NoError(t, err)
	assert.Equal(t, Config{CollectionHarvested, MethodVWAPTarget}, cfg)

	_, err = ParseConfig("lumpy", "VWAP_TARGET")
	assert.Error(t, err)
	_, err = ParseConfig("terminal", "SHARPE")
	assert.Error(t, err)
}

func TestScore_NullExecPriceIsZero(t *testing.T) {
	for _, cfg := range []Config{
		{CollectionTerminal, MethodVWAPPnL},
		{CollectionHarvested, MethodVWAPPnL},
		{CollectionHarvested, MethodVWAPTarget},
	} {
		got := cfg.Score(Fill{
			Quantity: dec("100"),
			Portion:  dec("1"),
		}, 1, valid("9"))
		assert.True(t, got.IsZero(), "config %v", cfg)
	}
}

func TestScore_TerminalCollection(t *testing.T) {
	cfg := Config{CollectionTerminal, MethodVWAPPnL}

	// Silent mid-episode.
	mid := cfg.Score(Fill{Quantity: dec("100"), ExecPrice: valid("9.5"), Portion: dec("1")}, 1, valid("9"))
	assert.True(t, mid.IsZero())

	// quantity * (exec - market) * direction at the end.
	end := cfg.Score(Fill{Quantity: dec("100"), ExecPrice: valid("9.5"), Portion: dec("1"), Terminal: true}, 1, valid("9"))
	assert.True(t, end.Equal(dec("50")))

	// The method axis is inert under terminal collection.
	alt := Config{CollectionTerminal, MethodVWAPTarget}
	assert.True(t, end.Equal(alt.Score(Fill{Quantity: dec("100"), ExecPrice: valid("9.5"), Portion: dec("1"), Terminal: true}, 1, valid("9"))))
}

func TestScore_HarvestedPnL(t *testing.T) {
	cfg := Config{CollectionHarvested, MethodVWAPPnL}

	// Mid-episode: quantity * exec * direction.
	mid := cfg.Score(Fill{Quantity: dec("10"), ExecPrice: valid("9.5"), Portion: dec("0.1")}, 1, valid("9"))
	assert.True(t, mid.Equal(dec("95")))

	// Terminal: quantity * market * -direction, the liquidation leg.
	end := cfg.Score(Fill{Quantity: dec("10"), ExecPrice: valid("9.5"), Portion: dec("1"), Terminal: true}, 1, valid("9"))
	assert.True(t, end.Equal(dec("-90")))
}

func TestScore_HarvestedTarget(t *testing.T) {
	cfg := Config{CollectionHarvested, MethodVWAPTarget}

	// (exec - market) * direction * portion.
	got := cfg.Score(Fill{Quantity: dec("30"), ExecPrice: valid("9.5"), Portion: dec("0.3")}, 1, valid("9"))
	assert.True(t, got.Equal(dec("0.15")))

	// Terminal contribution is zero under this method.
	end := cfg.Score(Fill{Quantity: dec("30"), ExecPrice: valid("9.5"), Portion: dec("1"), Terminal: true}, 1, valid("9"))
	assert.True(t, end.IsZero())
}

func TestScore_SignFollowsDirection(t *testing.T) {
	cfg := Config{CollectionHarvested, MethodVWAPTarget}
	fill := Fill{Quantity: dec("30"), ExecPrice: valid("9.5"), Portion: dec("0.3")}

	long := cfg.Score(fill, 1, valid("9"))
	short := cfg.Score(fill, -1, valid("9"))
	assert.True(t, long.IsPositive(), "fill above benchmark, direction +1")
	assert.True(t, short.IsNegative(), "fill above benchmark, direction -1")
	assert.True(t, long.Equal(short.Neg()))
}

func TestScore_NullBenchmarkIsZero(t *testing.T) {
	fill := Fill{Quantity: dec("10"), ExecPrice: valid("9.5"), Portion: dec("1"), Terminal: true}
	for _, cfg := range []Config{
		{CollectionTerminal, MethodVWAPPnL},
		{CollectionHarvested, MethodVWAPPnL},
	} {
		assert.True(t, cfg.Score(fill, 1, decimal.NullDecimal{}).IsZero(), "config %v", cfg)
	}
}
