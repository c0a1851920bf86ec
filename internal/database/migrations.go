package database

import "database/sql"

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TEXT NOT NULL,
		customer TEXT NOT NULL,
		amount REAL NOT NULL,
		product TEXT,
		sender TEXT,
		source TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_entries_customer ON entries(customer);
	CREATE INDEX IF NOT EXISTS idx_entries_recorded_at ON entries(recorded_at);
	`

	_, err := db.Exec(schema)
	return err
}
