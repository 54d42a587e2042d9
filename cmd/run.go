package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mselser95/clob-arb/internal/app"
	"github.com/mselser95/clob-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage engine",
	Long: `Starts the arbitrage engine, which will:
1. Load the markets file (and optionally discover new markets)
2. Keep a staleness-gated book cache fresh via REST pulls or the push feed
3. Detect binary-complement and multi-outcome arbitrage
4. Risk-gate, size and execute the best opportunity each cycle
5. Hedge broken trades and auto-exit open legs

MODE selects dry (log only), paper (simulated fills) or live trading.`,
	RunE: runEngine,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
