package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/navwatch/internal/client"
	"github.com/yourusername/navwatch/internal/dashboard"
	"github.com/yourusername/navwatch/internal/database"
	"github.com/yourusername/navwatch/internal/health"
	"github.com/yourusername/navwatch/internal/ingest"
	"github.com/yourusername/navwatch/internal/metrics"
	"github.com/yourusername/navwatch/internal/models"
	"github.com/yourusername/navwatch/internal/repository"
	"github.com/yourusername/navwatch/internal/server"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the update API and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the strategies table for the configured engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := database.Initialize(cmd.Context(), &cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		appLog.WithField("engine", conn.Engine).Info("Database schema is up to date")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current strategy table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context())
	},
}

var statusStrategy string

var pushFlags struct {
	url           string
	apiKey        string
	strategy      string
	nav           string
	navBtc        string
	systemToken   string
	feeBalance    string
	feeBalanceUSD string
	lastTrade     int64
	timestamp     string
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send one strategy snapshot to a navwatch server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPush(cmd)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusStrategy, "strategy", "", "Print only this strategy")

	f := pushCmd.Flags()
	f.StringVar(&pushFlags.url, "url", "http://localhost:8000"+server.UpdatePath, "Update endpoint URL")
	f.StringVar(&pushFlags.apiKey, "api-key", "", "API key (defaults to api.key from configuration)")
	f.StringVar(&pushFlags.strategy, "strategy", "", "Strategy name")
	f.StringVar(&pushFlags.nav, "nav", "", "Net asset value")
	f.StringVar(&pushFlags.navBtc, "nav-btc", "", "Net asset value in BTC")
	f.StringVar(&pushFlags.systemToken, "system-token", "", "Fee currency token symbol")
	f.StringVar(&pushFlags.feeBalance, "fee-balance", "", "Fee currency balance")
	f.StringVar(&pushFlags.feeBalanceUSD, "fee-balance-usd", "", "Fee currency balance in USD")
	f.Int64Var(&pushFlags.lastTrade, "last-trade", 0, "Unix time of the last trade")
	f.StringVar(&pushFlags.timestamp, "timestamp", "", "Snapshot time as YYYY-MM-DD HH:MM:SS UTC (defaults to now)")
	_ = pushCmd.MarkFlagRequired("strategy")
	_ = pushCmd.MarkFlagRequired("nav")
}

func runServe(ctx context.Context) error {
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("navwatch starting")

	conn, err := database.Initialize(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			appLog.WithError(err).Error("Failed to close database connection")
		}
	}()
	repos, err := repository.NewRepositories(conn, cfg.Database.QueryTimeout())
	if err != nil {
		return err
	}

	stored, err := repos.Snapshot.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count strategies: %w", err)
	}
	metrics.UpdateActiveStrategies(float64(stored))
	appLog.WithFields(logrus.Fields{
		"engine":     conn.Engine,
		"strategies": stored,
	}).Info("Database connection established")

	ingestSvc, err := ingest.NewService(cfg.API.Key, repos.Snapshot, appLog)
	if err != nil {
		return err
	}

	builder, err := newBuilder(repos.Snapshot)
	if err != nil {
		return err
	}

	renderer, err := dashboard.NewRenderer()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Deps{
		Config:    cfg,
		Logger:    appLog,
		Ingest:    ingestSvc,
		Dashboard: builder,
		Renderer:  renderer,
		Health: health.NewHandler(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Engine:      conn.Engine,
			Logger:      appLog,
			DB:          conn,
		}),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	appLog.Info("navwatch stopped")
	return nil
}

func newBuilder(repo repository.SnapshotRepository) (*dashboard.Builder, error) {
	loc, err := cfg.Dashboard.Location()
	if err != nil {
		return nil, err
	}
	return dashboard.NewBuilder(cfg, repo, dashboard.NewClock(loc, nil), appLog), nil
}

func runStatus(ctx context.Context) error {
	conn, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	repos, err := repository.NewRepositories(conn, cfg.Database.QueryTimeout())
	if err != nil {
		return err
	}
	builder, err := newBuilder(repos.Snapshot)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tNAV\tNAV-BTC\tFEE\tLAST TRADE\tLAST UPDATE")

	if statusStrategy != "" {
		row, err := builder.Row(ctx, statusStrategy)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("strategy %q not found", statusStrategy)
		}
		if err != nil {
			return err
		}
		writeStatusRow(w, *row)
		return w.Flush()
	}

	view := builder.Build(ctx)
	if view.Error != "" {
		return errors.New(view.Error)
	}

	for _, row := range view.Rows {
		writeStatusRow(w, row)
	}
	fmt.Fprintf(w, "TOTAL (%d)\t%s\t%s\t\t\t\n", view.Totals.Count, view.Totals.Nav, view.Totals.NavBtc)
	fmt.Fprintf(w, "\nAs of %s (%s)\n", view.CurrentTime, view.Timezone)
	return w.Flush()
}

func writeStatusRow(w io.Writer, row dashboard.Row) {
	trade := "-"
	if row.Trade != nil {
		trade = row.Trade.Indicator() + " " + row.Trade.TimeDiff
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s %s\n",
		row.Name, row.Nav, row.NavBtc, row.Fee, trade, row.Update.Indicator(), row.Update.TimeDiff)
}

func runPush(cmd *cobra.Command) error {
	update, err := buildUpdate(cmd)
	if err != nil {
		return err
	}

	apiKey := pushFlags.apiKey
	if apiKey == "" {
		apiKey = cfg.API.Key
	}

	clientCfg := client.DefaultConfig(pushFlags.url, apiKey)
	clientCfg.Logger = appLog
	c, err := client.New(clientCfg)
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Push(cmd.Context(), update)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", resp.Strategy, resp.Message)
	return nil
}

func buildUpdate(cmd *cobra.Command) (client.Update, error) {
	nav, err := decimal.NewFromString(pushFlags.nav)
	if err != nil {
		return client.Update{}, fmt.Errorf("--nav: %w", err)
	}

	update := client.Update{
		StrategyName: pushFlags.strategy,
		Nav:          nav,
		SystemToken:  pushFlags.systemToken,
		Timestamp:    pushFlags.timestamp,
	}
	if update.Timestamp == "" {
		update.Timestamp = time.Now().UTC().Format(models.TimestampLayout)
	}

	optional := []struct {
		flag  string
		value string
		dest  **decimal.Decimal
	}{
		{"nav-btc", pushFlags.navBtc, &update.NavBtc},
		{"fee-balance", pushFlags.feeBalance, &update.FeeCurrencyBalance},
		{"fee-balance-usd", pushFlags.feeBalanceUSD, &update.FeeCurrencyBalanceUSD},
	}
	for _, o := range optional {
		if !cmd.Flags().Changed(o.flag) {
			continue
		}
		d, err := decimal.NewFromString(o.value)
		if err != nil {
			return client.Update{}, fmt.Errorf("--%s: %w", o.flag, err)
		}
		*o.dest = &d
	}

	if cmd.Flags().Changed("last-trade") {
		lastTrade := pushFlags.lastTrade
		update.LastTrade = &lastTrade
	}

	return update, nil
}
