package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/navwatch/internal/database"
	"github.com/yourusername/navwatch/internal/models"
)

// Decimals and timestamps cross the wire as text so no precision is lost
// and malformed stored values still reach the renderer.
const postgresSelectSnapshot = `
	SELECT id, strategy_name, nav::text, nav_btc::text, system_token,
		fee_currency_balance::text, fee_currency_balance_usd::text,
		to_char(last_trade, 'YYYY-MM-DD HH24:MI:SS'),
		to_char(last_update, 'YYYY-MM-DD HH24:MI:SS'),
		to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS')
	FROM strategies
`

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL
type PostgresSnapshotRepository struct {
	db      *database.DB
	timeout time.Duration
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB, timeout time.Duration) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db, timeout: timeout}
}

// Upsert inserts or replaces the row keyed by strategy_name
func (r *PostgresSnapshotRepository) Upsert(ctx context.Context, s *models.StrategySnapshot) error {
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
		VALUES ($1, $2::text::numeric, $3::text::numeric, $4,
			$5::text::numeric, $6::text::numeric, $7::text::timestamp, $8::text::timestamp)
		ON CONFLICT (strategy_name) DO UPDATE SET
			nav = EXCLUDED.nav,
			nav_btc = EXCLUDED.nav_btc,
			system_token = EXCLUDED.system_token,
			fee_currency_balance = EXCLUDED.fee_currency_balance,
			fee_currency_balance_usd = EXCLUDED.fee_currency_balance_usd,
			last_trade = EXCLUDED.last_trade,
			last_update = EXCLUDED.last_update
		RETURNING id
	`

	err := r.db.GetPool().QueryRow(ctx, query,
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
func (r *PostgresSnapshotRepository) GetByName(ctx context.Context, name string) (*models.StrategySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.GetPool().QueryRow(ctx, postgresSelectSnapshot+" WHERE strategy_name = $1", name)
	snapshot, err := scanPostgresSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy snapshot: %w", err)
	}

	return snapshot, nil
}

// List retrieves all snapshots ordered by name bytewise
func (r *PostgresSnapshotRepository) List(ctx context.Context) ([]*models.StrategySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.GetPool().Query(ctx, postgresSelectSnapshot+` ORDER BY strategy_name COLLATE "C" ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategy snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.StrategySnapshot
	for rows.Next() {
		snapshot, err := scanPostgresSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strategy snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// Count returns the number of stored strategies
func (r *PostgresSnapshotRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	if err := r.db.GetPool().QueryRow(ctx, "SELECT COUNT(*) FROM strategies").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count strategies: %w", err)
	}
	return count, nil
}

func scanPostgresSnapshot(row pgx.Row) (*models.StrategySnapshot, error) {
	var (
		s             models.StrategySnapshot
		nav           string
		navBtc        *string
		feeBalance    *string
		feeBalanceUSD *string
	)

	err := row.Scan(
		&s.ID, &s.StrategyName, &nav, &navBtc, &s.SystemToken,
		&feeBalance, &feeBalanceUSD, &s.LastTrade, &s.LastUpdate, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.Nav, err = decimal.NewFromString(nav); err != nil {
		return nil, fmt.Errorf("invalid stored nav %q: %w", nav, err)
	}
	if s.NavBtc, err = parseNullDecimal(navBtc); err != nil {
		return nil, err
	}
	if s.FeeCurrencyBalance, err = parseNullDecimal(feeBalance); err != nil {
		return nil, err
	}
	if s.FeeCurrencyBalanceUSD, err = parseNullDecimal(feeBalanceUSD); err != nil {
		return nil, err
	}

	return &s, nil
}

func nullDecimalArg(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.String()
	return &v
}

func parseNullDecimal(v *string) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid stored decimal %q: %w", *v, err)
	}
	return decimal.NewNullDecimal(d), nil
}
