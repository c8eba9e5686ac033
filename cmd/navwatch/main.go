// Package main provides the navwatch command line.
package main

import (
	"context"
	"fmt"
	"log"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/navwatch/internal/config"
	"github.com/yourusername/navwatch/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "navwatch",
	Short:         "Strategy NAV monitoring dashboard",
	Long:          `Receive strategy NAV snapshots from trading bots and render their freshness on a dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (default config/config.yaml if present)")
	rootCmd.Version = fmt.Sprintf("%s (%s)", Version, GitCommit)
}

func main() {
	rootCmd.AddCommand(serveCmd, initDBCmd, pushCmd, statusCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// loadConfig builds the immutable configuration and the base logger.
func loadConfig(ctx context.Context) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if loaded.Secrets.AWSEnabled {
		if err := config.LoadSecretsFromAWS(ctx, loaded); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(loaded); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = loaded
	appLog = logger.NewLogger(logger.Options{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Environment,
		Enabled:     cfg.App.EnableLogging,
	})
	return nil
}
