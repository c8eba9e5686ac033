// Package dashboard builds and renders the strategy status page.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/navwatch/internal/config"
	"github.com/yourusername/navwatch/internal/metrics"
	"github.com/yourusername/navwatch/internal/models"
	"github.com/yourusername/navwatch/internal/repository"
)

// CurrentTimeLayout is the page header time format.
const CurrentTimeLayout = "02.01.2006 15:04:05"

// StoreErrorMessage is shown instead of the table when rows cannot be read.
const StoreErrorMessage = "Strategy data is temporarily unavailable. Retrying on next refresh."

// Row is one rendered strategy.
type Row struct {
	Name   string
	Nav    string
	NavBtc string
	Fee    string
	Update Freshness
	// Trade is nil when the strategy never reported a trade.
	Trade *Freshness
}

// Totals aggregates all rows.
type Totals struct {
	Nav    string
	NavBtc string
	Count  int
}

// View is everything the page template needs.
type View struct {
	Title           string
	CurrentTime     string
	Timezone        string
	RefreshInterval int
	ShowInfo        bool
	Error           string
	Totals          Totals
	Rows            []Row
}

// Builder turns stored snapshots into a View.
type Builder struct {
	repo       repository.SnapshotRepository
	clock      *Clock
	format     NumberFormat
	thresholds Thresholds
	cfg        config.DashboardConfig
	showInfo   bool
	logger     *logrus.Entry
}

// NewBuilder creates a builder from configuration.
func NewBuilder(cfg *config.Config, repo repository.SnapshotRepository, clock *Clock, log *logrus.Logger) *Builder {
	return &Builder{
		repo:  repo,
		clock: clock,
		format: NumberFormat{
			Decimals:  cfg.Dashboard.NavDecimals,
			Thousands: cfg.Dashboard.ThousandsSeparator,
			Decimal:   cfg.Dashboard.DecimalSeparator,
		},
		thresholds: Thresholds{
			Success: cfg.Dashboard.SuccessThreshold,
			Warning: cfg.Dashboard.WarningThreshold,
		},
		cfg:      cfg.Dashboard,
		showInfo: !cfg.IsProduction(),
		logger:   log.WithField("component", "dashboard"),
	}
}

// Build reads all snapshots and computes the view. A store failure yields an
// empty view with Error set; it is never returned to the caller.
func (b *Builder) Build(ctx context.Context) *View {
	start := time.Now()

	view := &View{
		Title:           b.cfg.Title,
		CurrentTime:     b.clock.Now().Format(CurrentTimeLayout),
		Timezone:        b.clock.Location().String(),
		RefreshInterval: b.cfg.RefreshInterval,
		ShowInfo:        b.showInfo,
	}

	snapshots, err := b.repo.List(ctx)
	if err != nil {
		b.logger.WithError(err).Error("Database query error")
		metrics.RecordStoreError("list")
		view.Error = StoreErrorMessage
		snapshots = nil
	}

	totalNav := decimal.Zero
	totalNavBtc := decimal.Zero
	view.Rows = make([]Row, 0, len(snapshots))

	for _, s := range snapshots {
		totalNav = totalNav.Add(s.Nav)
		if s.NavBtc.Valid {
			totalNavBtc = totalNavBtc.Add(s.NavBtc.Decimal)
		}

		view.Rows = append(view.Rows, b.row(s))
	}

	view.Totals = Totals{
		Nav:    b.format.FormatNav(totalNav),
		NavBtc: b.format.FormatNav(totalNavBtc),
		Count:  len(view.Rows),
	}

	metrics.UpdateActiveStrategies(float64(view.Totals.Count))
	metrics.RecordDashboardRender(time.Since(start).Seconds())

	return view
}

// Row reads and renders a single strategy. It returns models.ErrNotFound
// when no row exists for name.
func (b *Builder) Row(ctx context.Context, name string) (*Row, error) {
	s, err := b.repo.GetByName(ctx, name)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			metrics.RecordStoreError("get")
		}
		return nil, err
	}
	row := b.row(s)
	return &row, nil
}

func (b *Builder) row(s *models.StrategySnapshot) Row {
	row := Row{
		Name:   s.StrategyName,
		Nav:    b.format.FormatNav(s.Nav),
		NavBtc: b.format.FormatNullNav(s.NavBtc),
		Fee:    FormatFee(s.SystemToken, s.FeeCurrencyBalance, s.FeeCurrencyBalanceUSD),
		Update: Assess(b.clock, b.thresholds, s.LastUpdate),
	}
	if s.LastTrade != nil && *s.LastTrade != "" {
		trade := Assess(b.clock, b.thresholds, *s.LastTrade)
		row.Trade = &trade
	}
	if row.Update.Status == StatusUnknown {
		b.logger.WithField("strategy_name", s.StrategyName).Warn("Unreadable last_update timestamp")
	}

	metrics.UpdateStrategyAge(row.Name, string(row.Update.Status), float64(row.Update.AgeMinutes))
	return row
}
