package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. DB_TYPE selects the
// driver: "sqlite" (default) opens the file at DB_PATH, "postgres"
// connects to DATABASE_URL.
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	switch dbType {
	case "sqlite":
		dbPath := os.Getenv("DB_PATH")
		if dbPath == "" {
			dataDir := "data"
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			dbPath = filepath.Join(dataDir, "lattice.db")
		}

		db, err := sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		DB = db

	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		DB = db

	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}

	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// Create content table
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS content (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			subcategories TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL,
			type TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			expected_read_time_sec INTEGER NOT NULL DEFAULT 0,
			prompt_version TEXT NOT NULL DEFAULT '',
			model_version TEXT NOT NULL DEFAULT '',
			generated_at TEXT NOT NULL DEFAULT '',
			source_url TEXT NOT NULL DEFAULT '',
			ttl INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create content table: %w", err)
	}

	// Create content_aggregates table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS content_aggregates (
			content_id TEXT PRIMARY KEY,
			helpful_count INTEGER NOT NULL DEFAULT 0,
			challenging_count INTEGER NOT NULL DEFAULT 0,
			view_count INTEGER NOT NULL DEFAULT 0,
			save_count INTEGER NOT NULL DEFAULT 0,
			last_interaction_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create content_aggregates table: %w", err)
	}

	// Create interaction_events table (append-only audit trail)
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS interaction_events (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			content_id TEXT NOT NULL,
			type TEXT NOT NULL,
			metadata TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create interaction_events table: %w", err)
	}

	// Create user_interests table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_interests (
			user_id TEXT NOT NULL,
			subcategory TEXT NOT NULL,
			weight REAL NOT NULL DEFAULT 0,
			last_updated TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, subcategory)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_interests table: %w", err)
	}

	return nil
}
