package repository

import (
	"context"

	"github.com/yourusername/navwatch/internal/models"
)

// SnapshotRepository defines the interface for strategy snapshot data access
type SnapshotRepository interface {
	// Upsert inserts the snapshot or fully replaces the row with the same
	// strategy name in one atomic statement. The assigned row ID is stored
	// back into s.ID.
	Upsert(ctx context.Context, s *models.StrategySnapshot) error
	GetByName(ctx context.Context, name string) (*models.StrategySnapshot, error)
	// List returns every row ordered by strategy name ascending.
	List(ctx context.Context) ([]*models.StrategySnapshot, error)
	Count(ctx context.Context) (int, error)
}
