// Package app wires the engine together and owns its lifecycle.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/internal/books"
	"github.com/mselser95/clob-arb/internal/discovery"
	"github.com/mselser95/clob-arb/internal/exchange"
	"github.com/mselser95/clob-arb/internal/markets"
	"github.com/mselser95/clob-arb/internal/notify"
	"github.com/mselser95/clob-arb/internal/positions"
	"github.com/mselser95/clob-arb/internal/risk"
	"github.com/mselser95/clob-arb/internal/scanner"
	"github.com/mselser95/clob-arb/internal/storage"
	"github.com/mselser95/clob-arb/pkg/config"
	"github.com/mselser95/clob-arb/pkg/healthprobe"
	"github.com/mselser95/clob-arb/pkg/httpserver"
	"github.com/mselser95/clob-arb/pkg/websocket"
)

// App is the application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	registry      *markets.Registry
	feed          *websocket.Manager // nil when the push feed is disabled
	cache         *books.Cache
	client        *exchange.Client
	riskMgr       *risk.Manager
	monitor       *positions.Monitor
	loop          *scanner.Loop
	discoverySvc  *discovery.Service // nil when discovery is disabled
	store         storage.Storage
	notifier      notify.Notifier
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
