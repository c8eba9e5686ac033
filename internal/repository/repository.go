package repository

import (
	"fmt"
	"time"

	"github.com/yourusername/navwatch/internal/config"
	"github.com/yourusername/navwatch/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Snapshot SnapshotRepository
}

// NewRepositories picks the implementation matching the open connection.
// Every call made through them is bounded by timeout.
func NewRepositories(conn *database.Connection, timeout time.Duration) (*Repositories, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch conn.Engine {
	case config.EnginePostgres:
		return &Repositories{Snapshot: NewPostgresSnapshotRepository(conn.Postgres, timeout)}, nil
	case config.EngineSQLite:
		return &Repositories{Snapshot: NewSQLiteSnapshotRepository(conn.SQLite, timeout)}, nil
	default:
		return nil, fmt.Errorf("unsupported database engine %q", conn.Engine)
	}
}
