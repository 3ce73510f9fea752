// Command coordinator loads each configured symbol's pipeline, builds its
// DAG of indicator/strategy nodes, optionally warm-starts node state from
// Redis or SQLite candle history, and bridges the DAG to the bus.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/corestream/engine/config"
	"github.com/corestream/engine/internal/bus"
	"github.com/corestream/engine/internal/coordinator"
	"github.com/corestream/engine/internal/dag"
	"github.com/corestream/engine/internal/logger"
	"github.com/corestream/engine/internal/metrics"
	"github.com/corestream/engine/internal/model"
	"github.com/corestream/engine/internal/nodes"
	"github.com/corestream/engine/internal/pipeline"
	"github.com/corestream/engine/internal/warmstart"
	"github.com/corestream/engine/internal/warmstart/redisstore"
	"github.com/corestream/engine/internal/warmstart/sqlitestore"
)

func main() {
	cfg := config.Load()
	log := logger.Init("coordinator", zap.InfoLevel)
	defer log.Sync()

	m := metrics.New()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr)
	metricsSrv.Start()

	b, err := bus.Connect(bus.DefaultConfig(cfg.NATSServers, "coordinator"), log)
	if err != nil {
		log.Fatal("bus connect failed", zap.Error(err))
	}
	defer b.Close()

	store := openWarmStartStore(cfg, log)
	if store != nil {
		defer store.Close()
	}

	registry := dag.NewRegistry()
	nodes.RegisterAll(registry)

	loader := pipeline.NewLoader(cfg.ConfigDir)

	symbols := cfg.ParseSymbols()
	if len(symbols) == 0 {
		log.Fatal("no symbols configured")
	}

	var coords []*coordinator.Coordinator
	for _, symbol := range symbols {
		c, err := coordinator.New(symbol, loader, registry, b, m, log)
		if err != nil {
			log.Fatal("coordinator init failed", zap.String("symbol", symbol), zap.Error(err))
		}

		if store != nil {
			warmStartSymbol(symbol, c, store, cfg, m, log)
		}

		if err := c.Start(); err != nil {
			log.Fatal("coordinator start failed", zap.String("symbol", symbol), zap.Error(err))
		}
		coords = append(coords, c)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	for _, c := range coords {
		c.Stop()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)
}

// openWarmStartStore opens the configured warm-start backend, wrapped in a
// circuit breaker so a backend that drops offline mid-run stops adding
// query latency to every subsequent node's seed attempt. Returns nil when
// warm start is disabled.
func openWarmStartStore(cfg *config.Config, log *zap.Logger) warmstart.Store {
	switch cfg.WarmStartBackend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s, err := redisstore.Open(ctx, redisstore.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			log.Warn("redis warm-start store unavailable, nodes will cold-start", zap.Error(err))
			return nil
		}
		return warmstart.NewBreakingStore(s, 5, 30*time.Second)

	case "sqlite":
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			log.Warn("sqlite warm-start store unavailable, nodes will cold-start", zap.Error(err))
			return nil
		}
		return warmstart.NewBreakingStore(s, 5, 30*time.Second)

	default:
		return nil
	}
}

// warmStartSymbol seeds every CANDLE-consuming node in c's graph from
// store, each against its own input's timeframe.
func warmStartSymbol(symbol string, c *coordinator.Coordinator, store warmstart.Store, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, def := range c.Graph().Defs {
		for _, in := range def.Inputs {
			if in.Type != model.InputCandle {
				continue
			}
			n, state, ok := c.Executor().NodeAndState(def.ID)
			if !ok {
				continue
			}
			warmstart.SeedNode(ctx, store, log, n, state, symbol, in.Timeframe, 200, func(symbol, timeframe string, err error) {
				m.WarmStartFailures.WithLabelValues(symbol, timeframe).Inc()
			})
		}
	}
}
