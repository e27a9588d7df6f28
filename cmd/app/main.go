package main

import (
	"os"

	"tradedesk/internal/app"

	"github.com/spf13/cobra"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", app.DefaultConfigPath, "Path to the YAML config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(depthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tradedesk",
	Short: "Client for a trading venue's event stream",
	Long: `tradedesk keeps a local mirror of venue markets, orders, users and ownerships,
fed by the venue's websocket stream. It derives book views from the mirror and
reports notifications for the identity the session acts as.`,
	SilenceUsage: true,
}
