package warmstart

import (
	"context"

	"go.uber.org/zap"

	"github.com/corestream/engine/internal/model"
)

// OnFailure is invoked when a warm-start query fails, so callers can
// increment a metric without this package importing the metrics package
// directly.
type OnFailure func(symbol, timeframe string, err error)

// SeedNode replays up to limit historical candles for symbol/timeframe
// through node's Compute (discarding outputs) so its rolling state is
// primed before the node sees its first live event. On any store error the
// node is left with empty state and the failure is reported via onFailure;
// it is never fatal to startup.
func SeedNode(ctx context.Context, store Store, log *zap.Logger, node model.Node, state any, symbol, timeframe string, limit int, onFailure OnFailure) {
	candles, err := store.LoadRecentCandles(ctx, symbol, timeframe, limit)
	if err != nil {
		log.Warn("warm-start query failed, cold-starting node",
			zap.String("node_id", node.ID()),
			zap.String("symbol", symbol),
			zap.String("timeframe", timeframe),
			zap.Error(err))
		if onFailure != nil {
			onFailure(symbol, timeframe, err)
		}
		return
	}

	for _, c := range candles {
		inputs := model.NodeInputs{"candle_" + timeframe: c}
		if _, err := node.Compute(inputs, state); err != nil {
			log.Warn("warm-start replay step failed",
				zap.String("node_id", node.ID()),
				zap.Error(err))
		}
	}
}
