package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mselser95/clob-arb/internal/markets"
	"github.com/mselser95/clob-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Validate and list the configured markets file",
	RunE:  runMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketsCmd)
}

func runMarkets(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	loaded, err := markets.LoadFile(cfg.MarketsFile)
	if err != nil {
		return fmt.Errorf("load markets: %w", err)
	}

	fmt.Printf("%d markets in %s\n", len(loaded), cfg.MarketsFile)
	for _, m := range loaded {
		kind := "multi"
		if m.IsBinary() {
			kind = "binary"
		}
		fmt.Printf("  %-40s %-7s %d outcomes\n", m.Name, kind, len(m.Outcomes))
	}
	return nil
}
