package main

import (
	"fmt"
	"os"

	"github.com/LavaJover/shvark-billing-service/internal/config"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "billing-service",
		Short:   "Order checkout, payment verification and wallet ledger service",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (defaults to $BILLING_CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.BillingConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.MustLoad(), nil
	}
	return config.Load(path)
}
