// Package notify is the outbound notification contract. Delivery is
// best-effort; no engine logic depends on it.
package notify

import (
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

// Notifier receives engine events.
type Notifier interface {
	TradeExecuted(result *types.ExecutionResult)
	TradeFailed(result *types.ExecutionResult)
	PositionExited(exit types.PositionExit)
	Error(context string, err error)
	Event(name string, fields map[string]string)
}

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) TradeExecuted(result *types.ExecutionResult) {
	n.logger.Info("notify-trade-executed",
		zap.String("trade-id", result.TradeID),
		zap.String("market", result.MarketName),
		zap.Int("legs", len(result.FilledLegs)),
		zap.Float64("profit-usd", result.RealizedProfit))
}

func (n *LogNotifier) TradeFailed(result *types.ExecutionResult) {
	n.logger.Warn("notify-trade-failed",
		zap.String("trade-id", result.TradeID),
		zap.String("market", result.MarketName),
		zap.String("reason", result.Reason),
		zap.Bool("hedged", result.Hedged),
		zap.Float64("loss-usd", result.LossUSD))
}

func (n *LogNotifier) PositionExited(exit types.PositionExit) {
	n.logger.Info("notify-position-exited",
		zap.String("trade-id", exit.Position.TradeID),
		zap.String("reason", exit.Reason),
		zap.Float64("pnl-usd", exit.PnL))
}

func (n *LogNotifier) Error(context string, err error) {
	n.logger.Error("notify-error", zap.String("context", context), zap.Error(err))
}

func (n *LogNotifier) Event(name string, fields map[string]string) {
	zapFields := make([]zap.Field, 0, len(fields)+1)
	zapFields = append(zapFields, zap.String("event", name))
	for k, v := range fields {
		zapFields = append(zapFields, zap.String(k, v))
	}
	n.logger.Info("notify-event", zapFields...)
}
