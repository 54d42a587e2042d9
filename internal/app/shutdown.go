package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/execution"
)

// Shutdown stops everything in dependency order: loop first so no new trades
// start, then the monitor, then the feed, then (in live mode) a best-effort
// cancel of any open orders. The final risk state is logged, not written to
// storage, before storage and the HTTP server are closed.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.loop.Close(); err != nil {
		a.logger.Error("scan-loop-close-error", zap.Error(err))
	}

	if err := a.monitor.Close(); err != nil {
		a.logger.Error("position-monitor-close-error", zap.Error(err))
	}

	if a.feed != nil {
		if err := a.feed.Close(); err != nil {
			a.logger.Error("book-feed-close-error", zap.Error(err))
		}
	}

	if execution.Mode(a.cfg.Mode) == execution.ModeLive {
		if err := a.client.CancelAllOpenOrders(shutdownCtx); err != nil {
			a.logger.Error("cancel-open-orders-error", zap.Error(err))
		}
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Error("book-cache-close-error", zap.Error(err))
	}

	snapshot := a.riskMgr.GetSnapshot()
	a.logger.Info("final-risk-state",
		zap.Float64("global-exposure-usd", snapshot.GlobalExposureUSD),
		zap.Float64("daily-loss-usd", snapshot.DailyLossUSD),
		zap.Int("open-orders", snapshot.OpenOrders),
		zap.Bool("safe-mode", snapshot.SafeMode))

	if err := a.store.Close(); err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	a.wg.Wait()
	a.logger.Info("application-stopped")
	return nil
}
