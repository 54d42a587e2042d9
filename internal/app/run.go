package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Run starts every component and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.Mode),
		zap.Float64("min-profit", a.cfg.MinProfit),
		zap.Int("markets", a.registry.Len()),
		zap.Bool("feed", a.feed != nil),
		zap.Bool("discovery", a.discoverySvc != nil))

	if err := a.startComponents(); err != nil {
		return err
	}

	a.saveConfigSnapshot()
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	a.wg.Add(1)
	go a.runHTTPServer()

	if a.feed != nil {
		if err := a.feed.Start(); err != nil {
			return fmt.Errorf("start book feed: %w", err)
		}
		if err := a.feed.Subscribe(a.registry.TokenIDs()); err != nil {
			return fmt.Errorf("subscribe book feed: %w", err)
		}
	}

	if err := a.cache.Start(a.ctx); err != nil {
		return fmt.Errorf("start book cache: %w", err)
	}

	if a.discoverySvc != nil {
		a.wg.Add(1)
		go a.runDiscovery()
	}

	if err := a.monitor.Start(a.ctx); err != nil {
		return fmt.Errorf("start position monitor: %w", err)
	}

	if err := a.loop.Start(a.ctx); err != nil {
		return fmt.Errorf("start scan loop: %w", err)
	}

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runDiscovery() {
	defer a.wg.Done()
	err := a.discoverySvc.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("discovery-error", zap.Error(err))
	}
}

func (a *App) saveConfigSnapshot() {
	snapshot, err := a.cfg.Snapshot()
	if err != nil {
		a.logger.Warn("config-snapshot-marshal-failed", zap.Error(err))
		return
	}
	if err := a.store.SaveConfigSnapshot(a.ctx, snapshot); err != nil {
		a.logger.Warn("config-snapshot-persist-failed", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
