package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "An event-driven backtester for daily-bar trading strategies",
	Long: `Backtester replays historical daily bars through a trading strategy
against a simulated brokerage account.

It provides tools for:
  - Backtesting strategies over Yahoo-format CSV bar data
  - Multi-instrument replays on a shared union calendar
  - Order simulation with a one-bar fill delay and commission
  - Performance analysis: returns, drawdown, Sharpe, trade statistics
  - Journaling runs, trades and equity curves to SQLite or CSV`,
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", logLevel)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
