// Package env implements the reinforcement-learning environment over the
// exchange gateway: reset/step semantics, order-lifecycle tracking, and
// reward attribution.
package env

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ritenv/internal/config"
	"ritenv/internal/core"
	"ritenv/internal/ledger"
	"ritenv/internal/market"
	"ritenv/internal/reward"
	apperrors "ritenv/pkg/errors"
	"ritenv/pkg/retry"
	"ritenv/pkg/telemetry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config carries the episode parameters for one environment instance.
type Config struct {
	Ticker    string
	Inventory decimal.Decimal
	Direction int // +1 unwind long by selling, -1 the mirror
	StartTime int // 0 derives the default (tick 5)
	EndTime   int // 0 derives the default (period length - 10)
	Reward    reward.Config

	SyncMaxAttempts int
	SyncInterval    time.Duration
}

// ConfigFrom builds an environment config from the file configuration.
func ConfigFrom(cfg *config.Config) (Config, error) {
	rc, err := reward.ParseConfig(cfg.Reward.Collection, cfg.Reward.Method)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Ticker:          cfg.Episode.Ticker,
		Inventory:       decimal.NewFromFloat(cfg.Episode.Inventory),
		Direction:       cfg.Episode.Direction,
		StartTime:       cfg.Episode.StartTime,
		EndTime:         cfg.Episode.EndTime,
		Reward:          rc,
		SyncMaxAttempts: cfg.Sync.MaxAttempts,
		SyncInterval:    time.Duration(cfg.Sync.PollIntervalMS) * time.Millisecond,
	}, nil
}

// Environment is the per-episode orchestrator. It owns the ledger and
// trader state exclusively: all access is single-threaded and every
// exchange interaction is a blocking round-trip.
type Environment struct {
	gw     core.Gateway
	cfg    Config
	logger core.ILogger

	traderID  string
	episodeID string

	status    core.CaseStatus
	tick      int
	startTime int
	endTime   int

	position decimal.Decimal
	cost     decimal.Decimal
	pending  decimal.Decimal

	book     *ledger.Ledger
	deferred decimal.Decimal
}

// New constructs an environment and resolves the episode window against
// the simulator clock. Construction requires the exchange to be reachable;
// once running, all degraded paths return sentinel values instead.
func New(ctx context.Context, gw core.Gateway, cfg Config, logger core.ILogger) (*Environment, error) {
	traderID, err := gw.TraderID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch trader identity: %w", err)
	}

	cs, err := gw.CaseState(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch case state: %w", err)
	}

	e := &Environment{
		gw:        gw,
		cfg:       cfg,
		logger:    logger.WithField("component", "environment"),
		traderID:  traderID,
		status:    cs.Status,
		tick:      cs.Tick,
		startTime: cfg.StartTime,
		endTime:   cfg.EndTime,
		book:      ledger.New(),
	}
	if e.startTime == 0 {
		e.startTime = 5
	}
	if e.endTime == 0 {
		e.endTime = cs.TicksPerPeriod - 10
	}

	e.refreshPosition(ctx)
	e.refreshPending(ctx)

	e.logger.Info("environment ready",
		"trader_id", traderID,
		"ticker", cfg.Ticker,
		"start_time", e.startTime,
		"end_time", e.endTime,
		"inventory", cfg.Inventory,
		"direction", cfg.Direction)

	return e, nil
}

// Reset clears the episode state and blocks until the simulator is live
// within one tick of the episode start. The wait is bounded: when the
// attempt budget runs out, ErrSyncTimeout is returned instead of looping
// forever.
func (e *Environment) Reset(ctx context.Context) (core.Observation, error) {
	e.book = ledger.New()
	e.deferred = decimal.Zero
	e.episodeID = uuid.NewString()

	policy := retry.Policy{
		MaxAttempts:    e.cfg.SyncMaxAttempts,
		InitialBackoff: e.cfg.SyncInterval,
		MaxBackoff:     e.cfg.SyncInterval,
	}
	err := retry.Do(ctx, policy, func(error) bool { return true }, func() error {
		cs, err := e.gw.CaseState(ctx)
		if err != nil {
			return err
		}
		e.status = cs.Status
		e.tick = cs.Tick
		if cs.Status == core.CaseStopped {
			return apperrors.ErrSyncPending
		}
		if cs.Status == core.CaseActive && abs(cs.Tick-e.startTime) > 1 {
			return apperrors.ErrSyncPending
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return core.Observation{}, err
		}
		return core.Observation{}, fmt.Errorf("%w: %v", apperrors.ErrSyncTimeout, err)
	}

	telemetry.Episodes.Inc()
	e.logger.Info("episode reset",
		"episode_id", e.episodeID,
		"tick", e.tick,
		"status", e.status)

	e.refreshPosition(ctx)
	e.refreshPending(ctx)

	return e.observation(ctx), nil
}

// Step applies one agent action and advances the environment: refresh the
// clock, reconcile fills that happened between steps, dispatch the action,
// re-read trader state, and assemble the next observation. The returned
// info string is human-readable status, not an error channel.
func (e *Environment) Step(ctx context.Context, action core.Action) (core.Observation, decimal.Decimal, bool, string) {
	telemetry.Steps.Inc()

	// Exchange unreachable means no new information: keep the previous
	// tick and status rather than inventing a clock value.
	if cs, err := e.gw.CaseState(ctx); err == nil {
		e.status = cs.Status
		e.tick = cs.Tick
	} else {
		e.logger.Warn("case state unavailable, keeping previous tick", "error", err)
	}

	// Reward earned passively since the last step comes first.
	e.reconcile(ctx)
	total := e.deferred
	e.deferred = decimal.Zero
	if !total.IsZero() {
		telemetry.Reward.WithLabelValues("deferred").Add(mustFloat(total))
	}

	total = total.Add(e.dispatch(ctx, action))

	e.refreshPosition(ctx)
	e.refreshPending(ctx)

	obs := e.observation(ctx)

	if e.tick >= e.endTime {
		info := fmt.Sprintf("trading is done.\ttimeout: %t\tinventory met: %t",
			e.tick == e.endTime,
			e.position.Equal(e.cfg.Inventory))

		// A final scored comparison is always added, regardless of the
		// configured collection mode.
		terminal := e.cfg.Reward.Score(reward.Fill{
			Quantity:  e.cfg.Inventory,
			ExecPrice: decimal.NullDecimal{Decimal: e.cost, Valid: true},
			Portion:   decimal.NewFromInt(1),
			Terminal:  true,
		}, e.cfg.Direction, e.marketVWAP(ctx))
		total = total.Add(terminal)
		telemetry.Reward.WithLabelValues("terminal").Add(mustFloat(terminal))

		e.logger.Info("episode done",
			"episode_id", e.episodeID,
			"tick", e.tick,
			"position", e.position,
			"reward", total)
		return obs, total, true, info
	}

	return obs, total, false, "trading continues."
}

// observation assembles the aggregated order book and the trader state
// summary. Book fetch failures degrade to an empty book.
func (e *Environment) observation(ctx context.Context) core.Observation {
	raw, err := e.gw.OrderBook(ctx, e.cfg.Ticker)
	if err != nil {
		e.logger.Warn("order book unavailable", "error", err)
		raw = core.RawBook{}
	}

	return core.Observation{
		Book: market.AggregateBook(raw),
		State: core.StateSummary{
			Time:       e.tick,
			StartTime:  e.startTime,
			EndTime:    e.endTime,
			Inventory:  e.cfg.Inventory,
			Position:   e.position,
			Pending:    e.pending,
			Cost:       e.cost,
			MarketVWAP: e.marketVWAP(ctx),
		},
	}
}

// marketVWAP computes the benchmark VWAP over the episode's trade window.
// Tape fetch failures degrade to null, which scores zero reward.
func (e *Environment) marketVWAP(ctx context.Context) decimal.NullDecimal {
	tape, err := e.gw.TradeTape(ctx, e.cfg.Ticker)
	if err != nil {
		e.logger.Warn("trade tape unavailable", "error", err)
		return decimal.NullDecimal{}
	}
	return market.VWAP(tape, e.startTime)
}

func (e *Environment) refreshPosition(ctx context.Context) {
	pos, err := e.gw.Position(ctx, e.cfg.Ticker)
	if err != nil {
		e.logger.Warn("position unavailable, keeping previous", "error", err)
		return
	}
	e.position = pos.Quantity
	e.cost = pos.Cost
}

// refreshPending sums the unfilled quantity across this trader's open
// orders. Unreachable degrades to zero outstanding.
func (e *Environment) refreshPending(ctx context.Context) {
	orders, err := e.gw.OpenOrders(ctx, e.cfg.Ticker)
	if err != nil {
		e.logger.Warn("open orders unavailable", "error", err)
		e.pending = decimal.Zero
		return
	}
	pending := decimal.Zero
	for _, o := range orders {
		if o.TraderID == e.traderID {
			pending = pending.Add(o.Quantity.Sub(o.QuantityFilled))
		}
	}
	e.pending = pending
}

// Ledger exposes the order history for inspection after an episode.
func (e *Environment) Ledger() *ledger.Ledger {
	return e.book
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
