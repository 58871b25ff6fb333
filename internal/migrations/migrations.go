package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add recipe lookup index",
		Up: `
			-- GetLast and Load filter by recipe and order by start time
			CREATE INDEX IF NOT EXISTS idx_requests_recipe_start ON requests(recipe_id, start_time DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_requests_recipe_start;
		`,
	},
	{
		Version: 2,
		Name:    "Add start time index",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_requests_start ON requests(start_time DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_requests_start;
		`,
	},
}

// InitSchema creates all tables. It must run before the migrations so that
// every table they touch exists.
func InitSchema(db *sql.DB) error {
	schema := `
	-- One row per request attempt; exactly one of status_code and error is set
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		recipe_id TEXT NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		request_headers TEXT NOT NULL,
		request_body TEXT,
		status_code INTEGER,
		response_headers TEXT,
		response_body TEXT,
		error TEXT,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_recipe ON requests(recipe_id);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if _, err := db.Exec(migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
