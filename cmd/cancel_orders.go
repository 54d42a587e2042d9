package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/clob-arb/internal/app"
	"github.com/mselser95/clob-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cancelOrdersCmd = &cobra.Command{
	Use:   "cancel-orders",
	Short: "Cancel all open orders on the exchange",
	Long: `Broadcasts a bulk cancel for every open order owned by the configured
API key. Use after an unclean shutdown or before operator maintenance.`,
	RunE: runCancelOrders,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cancelOrdersCmd)
}

func runCancelOrders(cmd *cobra.Command, args []string) error {
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

	client, err := app.NewExchangeClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create exchange client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.CancelAllOpenOrders(ctx); err != nil {
		return fmt.Errorf("cancel all open orders: %w", err)
	}

	fmt.Println("all open orders cancelled")
	return nil
}
