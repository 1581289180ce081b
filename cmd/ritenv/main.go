package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ritenv/internal/config"
	"ritenv/internal/core"
	"ritenv/internal/env"
	"ritenv/internal/gateway"
	"ritenv/internal/infrastructure/metrics"
	"ritenv/internal/mock"
	"ritenv/pkg/logging"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	episodes   = flag.Int("episodes", 1, "Number of episodes to run")
)

func main() {
	flag.Parse()

	logger, _ := logging.NewZapLogger("INFO")

	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		*configFile = envConfig
	}
	if envEpisodes := os.Getenv("EPISODES"); envEpisodes != "" {
		if n, err := strconv.Atoi(envEpisodes); err == nil {
			*episodes = n
		}
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Fatal("failed to load config", "path", *configFile, "error", err)
	}
	if l, err := logging.NewZapLogger(cfg.System.LogLevel); err == nil {
		logger = l
	}

	logger.Info("starting trading environment",
		"gateway", cfg.System.Gateway,
		"ticker", cfg.Episode.Ticker,
		"episodes", *episodes)

	var gw core.Gateway
	switch cfg.System.Gateway {
	case "mock":
		gw = newDemoGateway()
	default:
		gw = gateway.NewRIT(&cfg.API, logger)
	}

	envCfg, err := env.ConfigFrom(cfg)
	if err != nil {
		logger.Fatal("invalid environment config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	environment, err := env.New(ctx, gw, envCfg, logger)
	if err != nil {
		logger.Fatal("failed to build environment", "error", err)
	}

	var metricsSrv *metrics.Server
	if cfg.Telemetry.EnableMetrics {
		metricsSrv = metrics.NewServer(cfg.Telemetry.MetricsPort, logger)
		metricsSrv.Start()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runEpisodes(ctx, environment, *episodes, cfg.Episode.Direction, logger)
	})

	err = g.Wait()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Stop(shutdownCtx)
	}
	if err != nil && err != context.Canceled {
		logger.Fatal("run failed", "error", err)
	}
	logger.Info("shut down")
}

// runEpisodes drives the environment with the built-in passive policy.
func runEpisodes(ctx context.Context, environment *env.Environment, episodes, direction int, logger core.ILogger) error {
	for i := 0; i < episodes; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		obs, err := environment.Reset(ctx)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			action := policyAction(obs, direction)
			var (
				reward decimal.Decimal
				done   bool
				info   string
			)
			obs, reward, done, info = environment.Step(ctx, action)
			total = total.Add(reward)

			if done {
				logger.Info("episode finished",
					"episode", i+1,
					"reward", total,
					"info", info)
				break
			}
		}
	}
	return nil
}

// policyAction is a naive unwind policy: rest a slice of the remaining
// gap at the best price on our side of the book, and force the remainder
// with a market order when the window is almost over.
func policyAction(obs core.Observation, direction int) core.Action {
	state := obs.State
	gap := state.Inventory.Sub(state.Position).Abs()
	if gap.IsZero() {
		return core.Action{Type: core.ActionHold}
	}

	if state.EndTime-state.Time <= 5 {
		return core.Action{Type: core.ActionMarket, Quantity: gap}
	}

	if state.Pending.IsPositive() {
		return core.Action{Type: core.ActionHold}
	}

	price, ok := bestPrice(obs.Book, direction)
	if !ok {
		return core.Action{Type: core.ActionHold}
	}

	slice := gap.Div(decimal.NewFromInt(10)).Ceil()
	if slice.GreaterThan(gap) {
		slice = gap
	}
	return core.Action{Type: core.ActionLimit, Price: price, Quantity: slice}
}

// bestPrice joins the top of the book on the side this trader quotes:
// sellers rest at the lowest ask, buyers at the highest bid. Levels are
// sorted ascending by price.
func bestPrice(book core.Book, direction int) (decimal.Decimal, bool) {
	if direction == 1 {
		asks := book["asks"]
		if len(asks) == 0 {
			return decimal.Decimal{}, false
		}
		return asks[0].Price, true
	}
	bids := book["bids"]
	if len(bids) == 0 {
		return decimal.Decimal{}, false
	}
	return bids[len(bids)-1].Price, true
}

// newDemoGateway seeds the in-memory gateway with enough market state to
// run an offline episode.
func newDemoGateway() *mock.Gateway {
	gw := mock.NewGateway()
	gw.AutoAdvance = true
	gw.SetCase(core.CaseState{Status: core.CaseActive, Tick: 4, TicksPerPeriod: 120})
	gw.SetTape([]core.Trade{
		{Tick: 1, Price: decimal.NewFromFloat(10.00), Quantity: decimal.NewFromInt(500)},
		{Tick: 2, Price: decimal.NewFromFloat(10.02), Quantity: decimal.NewFromInt(300)},
		{Tick: 3, Price: decimal.NewFromFloat(9.98), Quantity: decimal.NewFromInt(200)},
	})
	gw.SetBook(core.RawBook{
		"bids": {
			{Price: decimal.NewFromFloat(9.97), Quantity: decimal.NewFromInt(1000)},
			{Price: decimal.NewFromFloat(9.95), Quantity: decimal.NewFromInt(2000)},
		},
		"asks": {
			{Price: decimal.NewFromFloat(10.03), Quantity: decimal.NewFromInt(1200)},
			{Price: decimal.NewFromFloat(10.05), Quantity: decimal.NewFromInt(1800)},
		},
	})
	return gw
}
