package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"places-workers/internal/common/config"

	_ "modernc.org/sqlite"
)

// NewSQLite opens a SQLite database file, creating its directory if needed.
// The path ":memory:" gives a private in-memory database.
func NewSQLite(cfg config.SQLiteConfig) (*SQLClient, error) {
	path := cfg.Path
	inMemory := path == ":memory:" || strings.Contains(path, "mode=memory")

	if !inMemory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating sqlite directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return &SQLClient{DB: db, Driver: DriverSQLite}, nil
}
