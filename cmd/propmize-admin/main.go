package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gautamkumarcode/propmize-admin/internal/app"
	"github.com/gautamkumarcode/propmize-admin/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "propmize-admin",
	Short: "Propmize admin dashboard session and notification service",
	Long: `propmize-admin fronts the Propmize marketplace API for the admin and
agent dashboards. It keeps each browser's sign-in session and a single
synchronized notification store shared by the header dropdown and the
notifications page.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}

		zc := zap.NewProductionConfig()
		if cfg.LogDevelopment {
			zc = zap.NewDevelopmentConfig()
		}
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zc.Level = zap.NewAtomicLevelAt(level)

		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx, cfg, logger)
	},
}

// migrateCmd creates the notification cache and policy tables
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Migrate(cfg, logger)
	},
}

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Manage route authorization policies",
}

// policiesSeedCmd installs the default role rules
var policiesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the default role rules when the policy table is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		added, err := app.SeedPolicies(cfg, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d policies added\n", added)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	policiesCmd.AddCommand(policiesSeedCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, policiesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
