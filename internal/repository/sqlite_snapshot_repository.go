package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yourusername/navwatch/internal/models"
)

const sqliteSelectSnapshot = `
	SELECT id, strategy_name, nav, nav_btc, system_token,
		fee_currency_balance, fee_currency_balance_usd,
		last_trade, last_update, created_at
	FROM strategies
`

// SQLiteSnapshotRepository implements SnapshotRepository for the embedded store
type SQLiteSnapshotRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSQLiteSnapshotRepository creates a new snapshot repository
func NewSQLiteSnapshotRepository(db *sqlx.DB, timeout time.Duration) SnapshotRepository {
	return &SQLiteSnapshotRepository{db: db, timeout: timeout}
}

// Upsert inserts or replaces the row keyed by strategy_name
func (r *SQLiteSnapshotRepository) Upsert(ctx context.Context, s *models.StrategySnapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO strategies (
			strategy_name, nav, nav_btc, system_token,
			fee_currency_balance, fee_currency_balance_usd, last_trade, last_update
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (strategy_name) DO UPDATE SET
			nav = excluded.nav,
			nav_btc = excluded.nav_btc,
			system_token = excluded.system_token,
			fee_currency_balance = excluded.fee_currency_balance,
			fee_currency_balance_usd = excluded.fee_currency_balance_usd,
			last_trade = excluded.last_trade,
			last_update = excluded.last_update
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		s.StrategyName,
		s.Nav.String(),
		nullDecimalArg(s.NavBtc),
		s.SystemToken,
		nullDecimalArg(s.FeeCurrencyBalance),
		nullDecimalArg(s.FeeCurrencyBalanceUSD),
		s.LastTrade,
		s.LastUpdate,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert strategy snapshot: %w", err)
	}

	return nil
}

// GetByName retrieves a snapshot by strategy name
func (r *SQLiteSnapshotRepository) GetByName(ctx context.Context, name string) (*models.StrategySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var snapshot models.StrategySnapshot
	err := r.db.GetContext(ctx, &snapshot, sqliteSelectSnapshot+" WHERE strategy_name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy snapshot: %w", err)
	}

	return &snapshot, nil
}

// List retrieves all snapshots ordered by name
func (r *SQLiteSnapshotRepository) List(ctx context.Context) ([]*models.StrategySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var snapshots []*models.StrategySnapshot
	if err := r.db.SelectContext(ctx, &snapshots, sqliteSelectSnapshot+" ORDER BY strategy_name ASC"); err != nil {
		return nil, fmt.Errorf("failed to query strategy snapshots: %w", err)
	}

	return snapshots, nil
}

// Count returns the number of stored strategies
func (r *SQLiteSnapshotRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM strategies"); err != nil {
		return 0, fmt.Errorf("failed to count strategies: %w", err)
	}
	return count, nil
}
