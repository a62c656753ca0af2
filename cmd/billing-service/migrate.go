package main

import (
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-billing-service/internal/infrastructure/migrate"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runMigrate(cmd, steps)
		},
	}
	up.Flags().Int("steps", 0, "Number of migrations to apply (0 applies all)")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runMigrate(cmd, -steps)
		},
	}
	down.Flags().Int("steps", 1, "Number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func runMigrate(cmd *cobra.Command, steps int) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		return err
	}
	defer log.Sync()

	return migrate.Steps(cfg.BillingDB.Dsn, cfg.BillingDB.MigrationsPath, steps, log)
}
