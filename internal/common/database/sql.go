package database

import (
	"context"
	"database/sql"
	"fmt"

	"places-workers/internal/common/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLClient wraps a database/sql handle together with the driver that
// opened it, so stores can pick the matching SQL dialect.
type SQLClient struct {
	DB     *sql.DB
	Driver string
}

// Open connects to the database selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (*SQLClient, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return NewPostgres(cfg.Postgres)
	case DriverSQLite:
		return NewSQLite(cfg.SQLite)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Ping tests the database connection
func (c *SQLClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
