package restaurants

import (
	"context"
	"fmt"

	"places-workers/internal/common/database"
)

var schemas = map[string]string{
	database.DriverPostgres: `
	CREATE TABLE IF NOT EXISTS restaurants (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		photo TEXT,
		contact JSONB NOT NULL DEFAULT '{}'::jsonb,
		location JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	database.DriverSQLite: `
	CREATE TABLE IF NOT EXISTS restaurants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		photo TEXT,
		contact TEXT NOT NULL DEFAULT '{}',
		location TEXT,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// EnsureSchema creates the restaurants table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	ddl, ok := schemas[s.driver]
	if !ok {
		return fmt.Errorf("no restaurants schema for driver %q", s.driver)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating restaurants table: %w", err)
	}
	return nil
}
