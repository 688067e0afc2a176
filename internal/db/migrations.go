package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS blocks (
			id         TEXT PRIMARY KEY,
			date       DATE NOT NULL,
			start_slot INTEGER NOT NULL,
			end_slot   INTEGER NOT NULL,
			provider   TEXT NOT NULL CHECK(provider IN ('parent_a', 'parent_b', 'nanny')),
			note       TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_blocks_date ON blocks(date);
		CREATE INDEX IF NOT EXISTS idx_blocks_provider ON blocks(provider);

		CREATE TABLE IF NOT EXISTS patterns (
			id         TEXT PRIMARY KEY,
			weekdays   TEXT NOT NULL,
			start_slot INTEGER NOT NULL,
			end_slot   INTEGER NOT NULL,
			provider   TEXT NOT NULL CHECK(provider IN ('parent_a', 'parent_b', 'nanny')),
			from_date  DATE NOT NULL,
			until_date DATE
		);

		CREATE TABLE IF NOT EXISTS reviews (
			id         TEXT PRIMARY KEY,
			state      TEXT NOT NULL CHECK(state IN ('proposed', 'approved', 'rejected', 'applied', 'apply_failed')),
			summary    TEXT NOT NULL DEFAULT '',
			payload    TEXT NOT NULL,
			failure    TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS journal (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
			actor          TEXT NOT NULL DEFAULT '',
			instruction    TEXT NOT NULL DEFAULT '',
			ai_summary     TEXT NOT NULL DEFAULT '',
			applied_count  INTEGER NOT NULL,
			affected_dates TEXT NOT NULL DEFAULT '[]',
			balance_shift  TEXT NOT NULL DEFAULT '{}'
		);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
