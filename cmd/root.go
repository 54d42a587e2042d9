package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "clob-arb",
	Short: "Prediction-market CLOB arbitrage engine",
	Long: `clob-arb detects and executes risk-free arbitrage on a binary-outcome
prediction-market exchange: buying every outcome of a market for less than
one unit of the quote currency.

The engine runs a closed scan -> detect -> size -> risk-gate -> execute loop
with immediate hedging of broken trades, adaptive rate limiting against the
exchange API, and a kill switch for operators.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env; environment variables win.
		_ = godotenv.Load()
	},
}

// Execute runs the root command. Called by main.main(); exits 1 on error.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
