// Package cmd defines and implements the CLI commands for the radar executable.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/api"
	"github.com/JakeFAU/academic-radar/internal/app"
	radarconfig "github.com/JakeFAU/academic-radar/internal/config"
	"github.com/JakeFAU/academic-radar/internal/ingest"
	"github.com/JakeFAU/academic-radar/internal/logging"
	"github.com/JakeFAU/academic-radar/pkg/config"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// skipAppAnnotation marks commands that run without application services.
const skipAppAnnotation = "radar/skip-app"

// App defines the application interface that commands will use.
// This allows us to inject a test app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	Config() radarconfig.Config
	NewRunner() (*ingest.Runner, error)
	NewServer() *api.Server
}

// newApp is the application factory. It's a variable so we can
// replace it with a test factory in our tests.
var newApp = func(ctx context.Context, cfg radarconfig.Config, logger *zap.Logger) (App, error) {
	return app.NewApp(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "radar",
		Short: "Collects Taiwanese academic job listings into a single archive.",
		Long: `radar scrapes the MOE academic job portal and the NSTC careers board,
classifies each opening, keeps a rolling archive of recent listings and
serves that archive read-only over HTTP.`,
		SilenceUsage: true,

		// This hook runs AFTER config is loaded but BEFORE the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipAppAnnotation] != "" {
				return nil
			}
			cfg, err := radarconfig.FromViper(viper.GetViper())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			logging.SetLogger(logger)

			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			// Store the app instance in the context for subcommands to use.
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
			_ = logging.L.Sync()
		},
	}

	// Initialize Viper configuration.
	cobra.OnInitialize(config.InitConfig)

	cmd.PersistentFlags().StringVar(&config.File, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newClassifyCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	// Initialize the logger once at the very start.
	logging.InitLogger()

	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
