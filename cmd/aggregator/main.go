// Command aggregator subscribes to raw ticks for a set of symbols, builds
// multi-timeframe OHLCV candles, and republishes each finalized candle back
// onto the bus for coordinators and warm-start writers to consume.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/corestream/engine/config"
	"github.com/corestream/engine/internal/aggregator"
	"github.com/corestream/engine/internal/bus"
	"github.com/corestream/engine/internal/logger"
	"github.com/corestream/engine/internal/metrics"
	"github.com/corestream/engine/internal/model"
)

func main() {
	cfg := config.Load()
	log := logger.Init("aggregator", zap.InfoLevel)
	defer log.Sync()

	m := metrics.New()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr)
	metricsSrv.Start()

	b, err := bus.Connect(bus.DefaultConfig(cfg.NATSServers, "aggregator"), log)
	if err != nil {
		log.Fatal("bus connect failed", zap.Error(err))
	}
	defer b.Close()

	timeframes := toTimeframes(cfg.ParseTimeframes())
	if len(timeframes) == 0 {
		log.Fatal("no valid timeframes configured")
	}

	symbols := cfg.ParseSymbols()
	if len(symbols) == 0 {
		log.Fatal("no symbols configured")
	}

	topics := bus.Topics{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, symbol := range symbols {
		runSymbol(ctx, symbol, timeframes, cfg.SweepInterval, b, topics, m, log)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)
	time.Sleep(200 * time.Millisecond) // best-effort flush window
}

// runSymbol wires one symbol's tick subscription into an Aggregator and
// starts its Run loop in a background goroutine.
func runSymbol(ctx context.Context, symbol string, timeframes []aggregator.Timeframe, sweep time.Duration, b *bus.Bus, topics bus.Topics, m *metrics.Metrics, log *zap.Logger) {
	agg := aggregator.New(timeframes, sweep, log.With(zap.String("symbol", symbol)))
	agg.OnDroppedCandle = func(symbol, timeframe string) {
		m.DroppedCandles.WithLabelValues(symbol, timeframe).Inc()
	}

	tickCh := make(chan model.Tick, 1024)

	sub, err := b.QueueSubscribe(topics.TicksRaw(symbol), "aggregator-"+symbol, func(_ string, payload []byte) {
		tick, err := model.DecodeTick(payload)
		if err != nil {
			log.Error("failed to decode tick", zap.String("symbol", symbol), zap.Error(err))
			return
		}
		m.TicksTotal.WithLabelValues(symbol).Inc()
		select {
		case tickCh <- tick:
		default:
			log.Warn("tick channel full, dropping tick", zap.String("symbol", symbol))
		}
	})
	if err != nil {
		log.Fatal("subscribe failed", zap.String("symbol", symbol), zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
		close(tickCh)
	}()

	go agg.Run(ctx, tickCh, func(c model.Candle) {
		m.CandlesTotal.WithLabelValues(c.Symbol, c.Timeframe).Inc()
		if err := b.Publish(topics.Candles(c.Symbol, c.Timeframe), c.JSON()); err != nil {
			log.Error("failed to publish candle", zap.String("symbol", c.Symbol), zap.String("timeframe", c.Timeframe), zap.Error(err))
			m.BusPublishErrors.WithLabelValues(topics.Candles(c.Symbol, c.Timeframe)).Inc()
		}
	})
}

func toTimeframes(specs []config.TimeframeSpec) []aggregator.Timeframe {
	tfs := make([]aggregator.Timeframe, 0, len(specs))
	for _, s := range specs {
		tfs = append(tfs, aggregator.Timeframe{Name: s.Name, Window: s.Window})
	}
	return tfs
}
