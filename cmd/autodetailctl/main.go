package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/charlesng35/autodetail/internal/app"
	"github.com/charlesng35/autodetail/internal/app/maintenance"
	"github.com/charlesng35/autodetail/internal/cache"
	"github.com/charlesng35/autodetail/internal/database"
	"github.com/charlesng35/autodetail/internal/services"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "autodetailctl",
		Short:         "Administrative utility for the autodetail marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Directory containing config.yaml")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newPromoteCommand(opts))
	cmd.AddCommand(newCleanupCommand(opts))
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed the bootstrap admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(opts, func(ctx context.Context, cfg *app.Config, db *gorm.DB) error {
				fmt.Fprintln(cmd.OutOrStdout(), "database migrated")
				return nil
			})
		},
	}
}

func newPromoteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(opts, func(ctx context.Context, cfg *app.Config, db *gorm.DB) error {
				audit, err := services.NewAuditService(db)
				if err != nil {
					return err
				}
				accounts, err := services.NewAccountService(db, nil, audit)
				if err != nil {
					return err
				}
				account, err := accounts.Promote(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", account.Email)
				return nil
			})
		},
	}
}

func newCleanupCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Purge expired tokens, stale registrations, cache rows and old audit logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(opts, func(ctx context.Context, cfg *app.Config, db *gorm.DB) error {
				audit, err := services.NewAuditService(db)
				if err != nil {
					return err
				}
				recovery, err := services.NewRecoveryService(db, nil, audit)
				if err != nil {
					return err
				}
				moderation, err := services.NewModerationService(db, audit)
				if err != nil {
					return err
				}

				cleaner := maintenance.NewCleaner(recovery, moderation, audit,
					maintenance.WithCache(cache.NewDatabaseStore(db)),
					maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
					maintenance.WithPendingRetention(cfg.Maintenance.PendingRetention),
				)
				stats, err := cleaner.RunOnce(ctx)
				printStats(cmd.OutOrStdout(), stats)
				return err
			})
		},
	}
}

func printStats(w io.Writer, stats maintenance.Stats) {
	fmt.Fprintf(w, "reset tokens removed:   %d\n", stats.ResetTokens)
	fmt.Fprintf(w, "registrations removed:  %d\n", stats.Registrations)
	fmt.Fprintf(w, "cache entries removed:  %d\n", stats.CacheEntries)
	fmt.Fprintf(w, "audit logs removed:     %d\n", stats.AuditLogs)
}

func withDatabase(opts *rootOptions, fn func(ctx context.Context, cfg *app.Config, db *gorm.DB) error) error {
	var paths []string
	if opts.configPath != "" {
		paths = append(paths, opts.configPath)
	}
	cfg, err := app.LoadConfig(paths...)
	if err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	db, err := database.Open(cfg.Database.DatabaseSettings())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrateAndSeed(db, cfg.Auth.SeedOptions()...); err != nil {
		return fmt.Errorf("auto-migrate database: %w", err)
	}

	return fn(context.Background(), cfg, db)
}
