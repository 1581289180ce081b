package env

import (
	"context"

	"ritenv/internal/core"
	"ritenv/internal/reward"
	"ritenv/pkg/telemetry"
)

// reconcile polls the exchange for every active ledger entry and folds
// any fills that happened between steps into the deferred reward. The
// exchange pushes nothing: a resting limit order filled by a third party
// is only detectable by comparing the reported filled quantity against
// the last recorded value.
func (e *Environment) reconcile(ctx context.Context) {
	telemetry.ReconcilePasses.Inc()

	for _, entry := range e.book.Active() {
		detail, err := e.gw.Order(ctx, entry.OrderID)
		if err != nil {
			// No forced retry: the entry stays as-is and the next pass
			// re-polls it.
			telemetry.ReconcileSkips.Inc()
			e.logger.Warn("order poll failed, deferring to next pass",
				"order_id", entry.OrderID,
				"error", err)
			continue
		}

		if detail.QuantityFilled.Equal(entry.Filled) {
			continue
		}

		executed := detail.QuantityFilled.Sub(entry.Filled).Abs()
		open := detail.Status == core.OrderStatusOpen

		if err := e.book.ApplyFill(entry.OrderID, e.tick, detail.QuantityFilled, detail.VWAP, open); err != nil {
			e.logger.Warn("rejected ledger update", "order_id", entry.OrderID, "error", err)
			continue
		}

		score := e.cfg.Reward.Score(reward.Fill{
			Quantity:  executed,
			ExecPrice: detail.VWAP,
			Portion:   executed.Div(entry.Target),
			Terminal:  false,
		}, e.cfg.Direction, e.marketVWAP(ctx))
		e.deferred = e.deferred.Add(score)

		telemetry.FillVolume.Add(mustFloat(executed))
		telemetry.Fills.Inc()

		e.logger.Debug("delayed fill reconciled",
			"order_id", entry.OrderID,
			"executed", executed,
			"filled", detail.QuantityFilled,
			"open", open,
			"reward", score)
	}

	// The fills just discovered have moved the real position.
	e.refreshPosition(ctx)
}
