package cmd

import (
	"fmt"

	"github.com/rustyeddy/backtester/config"
	"github.com/spf13/cobra"
)

var configOut string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		cfg.Strategy.Params.Instrument = "SPY"
		cfg.Data.CSV = map[string]string{"SPY": "data/SPY.csv"}

		if err := cfg.SaveToFile(configOut); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", configOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVarP(&configOut, "out", "o", "backtest.yaml", "output path (.yaml/.yml or .json)")
}
