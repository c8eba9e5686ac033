package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the canonical stored form of last_update and last_trade (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// StrategySnapshot is the latest reported state of one strategy.
// Optional columns are nil/invalid when the last write omitted them.
type StrategySnapshot struct {
	ID                    int64               `db:"id" json:"id"`
	StrategyName          string              `db:"strategy_name" json:"strategy_name"`
	Nav                   decimal.Decimal     `db:"nav" json:"nav"`
	NavBtc                decimal.NullDecimal `db:"nav_btc" json:"nav_btc"`
	SystemToken           *string             `db:"system_token" json:"system_token"`
	FeeCurrencyBalance    decimal.NullDecimal `db:"fee_currency_balance" json:"fee_currency_balance"`
	FeeCurrencyBalanceUSD decimal.NullDecimal `db:"fee_currency_balance_usd" json:"fee_currency_balance_usd"`
	LastTrade             *string             `db:"last_trade" json:"last_trade"`
	LastUpdate            string              `db:"last_update" json:"last_update"`
	CreatedAt             string              `db:"created_at" json:"created_at"`
}

// Validate performs basic validation on the snapshot before it is written
func (s *StrategySnapshot) Validate() error {
	if s.StrategyName == "" {
		return ErrStrategyNameRequired
	}
	return nil
}

// ParseTimestamp parses a stored timestamp as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, value, time.UTC)
}
