// Package reward scores fill events against a volume-weighted market
// benchmark. The policy is a pure function: all market state comes in
// through the arguments.
package reward

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Collection decides when reward is attributed: as a lump comparison at
// episode end, or incrementally as fills are harvested.
type Collection int

const (
	CollectionTerminal Collection = iota
	CollectionHarvested
)

func (c Collection) String() string {
	if c == CollectionTerminal {
		return "terminal"
	}
	return "harvested"
}

// Method selects the shape of the harvested signal.
type Method int

const (
	MethodVWAPPnL Method = iota
	MethodVWAPTarget
)

func (m Method) String() string {
	if m == MethodVWAPPnL {
		return "VWAP_PNL"
	}
	return "VWAP_TARGET"
}

// Config pairs a collection mode with a method. The pair is closed: Score
// dispatches over the four combinations and nothing else.
type Config struct {
	Collection Collection
	Method     Method
}

// ParseConfig builds a Config from its wire/config-file spelling.
func ParseConfig(collection, method string) (Config, error) {
	var cfg Config
	switch collection {
	case "terminal":
		cfg.Collection = CollectionTerminal
	case "harvested":
		cfg.Collection = CollectionHarvested
	default:
		return Config{}, fmt.Errorf("unknown reward collection %q", collection)
	}
	switch method {
	case "VWAP_PNL":
		cfg.Method = MethodVWAPPnL
	case "VWAP_TARGET":
		cfg.Method = MethodVWAPTarget
	default:
		return Config{}, fmt.Errorf("unknown reward method %q", method)
	}
	return cfg, nil
}

// Fill describes one scored execution event.
type Fill struct {
	Quantity  decimal.Decimal     // executed quantity, or notional for immediate scoring
	ExecPrice decimal.NullDecimal // price achieved; null when nothing traded
	Portion   decimal.Decimal     // fraction of the parent order this fill represents
	Terminal  bool                // true only for the episode-end scoring pass
}

// Score maps a fill and the current market VWAP to a scalar reward. An
// unavailable execution price or benchmark yields 0: no information, no
// signal.
func (c Config) Score(f Fill, direction int, marketVWAP decimal.NullDecimal) decimal.Decimal {
	if !f.ExecPrice.Valid {
		return decimal.Zero
	}
	dir := decimal.NewFromInt(int64(direction))
	exec := f.ExecPrice.Decimal

	switch c {
	case Config{CollectionTerminal, MethodVWAPPnL},
		Config{CollectionTerminal, MethodVWAPTarget}:
		// Lump comparison at the end, silent mid-episode.
		if !f.Terminal {
			return decimal.Zero
		}
		if !marketVWAP.Valid {
			return decimal.Zero
		}
		return f.Quantity.Mul(exec.Sub(marketVWAP.Decimal)).Mul(dir)

	case Config{CollectionHarvested, MethodVWAPPnL}:
		// Approximates realized PnL against liquidation at market VWAP.
		if f.Terminal {
			if !marketVWAP.Valid {
				return decimal.Zero
			}
			return f.Quantity.Mul(marketVWAP.Decimal).Mul(dir.Neg())
		}
		return f.Quantity.Mul(exec).Mul(dir)

	case Config{CollectionHarvested, MethodVWAPTarget}:
		// Price-improvement signal scaled by the fill's share of its order.
		if f.Terminal {
			return decimal.Zero
		}
		if !marketVWAP.Valid {
			return decimal.Zero
		}
		return exec.Sub(marketVWAP.Decimal).Mul(dir).Mul(f.Portion)
	}

	return decimal.Zero
}
