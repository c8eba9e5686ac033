package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/yourusername/navwatch/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// Connection is an open handle on whichever engine the configuration selects.
// Exactly one of Postgres and SQLite is set.
type Connection struct {
	Engine   string
	Postgres *DB
	SQLite   *sqlx.DB
}

// Initialize opens the configured engine and applies the embedded schema.
func Initialize(ctx context.Context, cfg *config.DatabaseConfig) (*Connection, error) {
	conn, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := conn.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// Open connects to the configured engine without touching the schema.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Connection, error) {
	switch cfg.Engine {
	case config.EnginePostgres:
		db, err := NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Connection{Engine: config.EnginePostgres, Postgres: db}, nil
	case config.EngineSQLite:
		db, err := NewSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Connection{Engine: config.EngineSQLite, SQLite: db}, nil
	default:
		return nil, fmt.Errorf("unsupported database engine %q", cfg.Engine)
	}
}

// Migrate applies every embedded migration for the engine in file-name order.
// Migrations are written to be idempotent.
func (c *Connection) Migrate(ctx context.Context) error {
	statements, err := Migrations(c.Engine)
	if err != nil {
		return err
	}

	for _, m := range statements {
		var execErr error
		switch {
		case c.Postgres != nil:
			_, execErr = c.Postgres.GetPool().Exec(ctx, m.SQL)
		case c.SQLite != nil:
			_, execErr = c.SQLite.ExecContext(ctx, m.SQL)
		default:
			return fmt.Errorf("no open database connection")
		}
		if execErr != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Name, execErr)
		}
	}

	return nil
}

// Ping verifies connectivity of the underlying engine.
func (c *Connection) Ping(ctx context.Context) error {
	switch {
	case c.Postgres != nil:
		return c.Postgres.Ping(ctx)
	case c.SQLite != nil:
		return c.SQLite.PingContext(ctx)
	default:
		return fmt.Errorf("no open database connection")
	}
}

// Close releases the underlying engine.
func (c *Connection) Close() error {
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.SQLite != nil {
		return c.SQLite.Close()
	}
	return nil
}

// Migration is one embedded schema file.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded migrations for engine, sorted by name.
func Migrations(engine string) ([]Migration, error) {
	dir := path.Join("migrations", engine)
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for engine %q: %w", engine, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == ".sql" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFiles.ReadFile(path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Name: name, SQL: string(data)})
	}

	return migrations, nil
}
