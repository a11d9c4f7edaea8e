package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create tables. Dates are stored as RFC3339 TEXT, difficulty_tags as
	// a JSON array.
	schema := `
	CREATE TABLE IF NOT EXISTS app_user (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS student (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		package TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		total_lessons INTEGER NOT NULL DEFAULT 0,
		used_lessons INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		coach_id TEXT,
		original_coach_id TEXT,
		is_renewed INTEGER NOT NULL DEFAULT 0,
		renewal_date TEXT,
		call_booked INTEGER NOT NULL DEFAULT 0,
		last_contact_date TEXT,
		contact_outcome TEXT,
		contact_outcome_date TEXT,
		contact_notes TEXT NOT NULL DEFAULT '',
		coach_comment TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		difficulty_tags TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT,
		FOREIGN KEY (coach_id) REFERENCES app_user(id)
	);

	CREATE INDEX IF NOT EXISTS idx_student_coach ON student(coach_id);
	CREATE INDEX IF NOT EXISTS idx_student_status ON student(status);
	CREATE INDEX IF NOT EXISTS idx_student_end_date ON student(end_date);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
