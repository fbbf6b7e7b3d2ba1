package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/cmd/cli/commands"
	"github.com/sentinel-ops/sentinel/internal/config"
	"github.com/sentinel-ops/sentinel/pkg/clients/gmailclient"
	"github.com/sentinel-ops/sentinel/pkg/core/services"
	"github.com/sentinel-ops/sentinel/pkg/postgres"
	"github.com/sentinel-ops/sentinel/pkg/utils/logging"
	"github.com/sentinel-ops/sentinel/pkg/utils/opdate"
)

var (
	env        string
	configPath string
	verbose    bool
	app        *commands.AppContext
	database   *postgres.DB
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Sentinel - duty responsibility handoff and escalation",
		Long:  `A CLI for managing building lockup responsibility, Daily Duty Staff assignments, the responsibility ledger, and the evening escalation job.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if database != nil {
				database.Close()
			}
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: sentinel_config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug output on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(newAppCmd(commands.StatusCmd))
	rootCmd.AddCommand(newAppCmd(commands.LockupCmd))
	rootCmd.AddCommand(newAppCmd(commands.DdsCmd))
	rootCmd.AddCommand(newAppCmd(commands.AuditCmd))
	rootCmd.AddCommand(newAppCmd(commands.AlertsCmd))
	rootCmd.AddCommand(newAppCmd(commands.JobsCmd))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newAppCmd defers command construction until after initApp has
// populated the shared AppContext
func newAppCmd(build func(*commands.AppContext) *cobra.Command) *cobra.Command {
	app = ensureApp()
	return build(app)
}

// ensureApp returns the shared AppContext shell; initApp fills it in
// during PersistentPreRunE
func ensureApp() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{Ctx: context.Background()}
	}
	return app
}

// initApp sets up logger, config, database, and the alert sink
func initApp() error {
	var err error
	a := ensureApp()

	// Initialize logger
	a.Logger, err = logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	a.Logger.Info("Loading configuration")
	if configPath != "" {
		a.Cfg, err = config.LoadFromPath(configPath)
	} else {
		a.Cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.Logger.Debug("Configuration loaded successfully")

	// Resolve timezone and operational-date clock
	a.Location, err = a.Cfg.Location()
	if err != nil {
		return fmt.Errorf("failed to resolve timezone: %w", err)
	}
	a.Clock, err = opdate.New(a.Location, a.Cfg.RolloverTime)
	if err != nil {
		return fmt.Errorf("failed to build operational clock: %w", err)
	}

	// Connect to the database and apply migrations
	a.Logger.Info("Connecting to database")
	database, err = postgres.NewDB(a.Ctx, a.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(a.Ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.Database = database
	a.Logger.Info("Database initialized successfully")

	// Build the alert sink: email delivery for critical alerts when
	// configured, otherwise log-only
	var notifier services.Notifier
	if a.Cfg.Email != nil {
		a.Logger.Info("Initializing gmail client")
		gmailClient, err := gmailclient.NewClient(a.Ctx, a.Cfg.Email.CredentialsFile, a.Cfg.Email.TokenFile)
		if err != nil {
			return fmt.Errorf("failed to create gmail client: %w", err)
		}
		notifier = services.NewEmailNotifier(gmailClient, a.Cfg.Email.Sender, a.Cfg.Email.Recipient, a.Logger)
		a.Logger.Debug("Gmail client initialized successfully")
	} else {
		notifier = services.NewLogNotifier(a.Logger)
	}
	a.Sink = services.NewStoreAlertSink(a.Database, notifier, a.Logger)

	return nil
}
