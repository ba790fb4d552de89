package db

import "fmt"

// migrate runs database migrations.
// Dates and times are stored as TEXT (YYYY-MM-DD, HH:MM:SS) so the driver
// never converts them to timestamps.
func (s *SQLite) migrate() error {
	query := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS offerings (
			id         TEXT PRIMARY KEY,
			course_id  TEXT NOT NULL DEFAULT '',
			year       INTEGER NOT NULL,
			term       INTEGER NOT NULL CHECK(term IN (1, 2)),
			phase      INTEGER NOT NULL CHECK(phase IN (1, 2)),
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS offering_dates (
			offering_id TEXT NOT NULL REFERENCES offerings(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			slot_date   TEXT NOT NULL,
			PRIMARY KEY (offering_id, slot_date)
		);

		CREATE TABLE IF NOT EXISTS offering_times (
			offering_id TEXT NOT NULL REFERENCES offerings(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			slot_time   TEXT NOT NULL,
			PRIMARY KEY (offering_id, slot_time)
		);

		CREATE TABLE IF NOT EXISTS defenses (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			year        INTEGER NOT NULL,
			term        INTEGER NOT NULL,
			offering_id TEXT NOT NULL,
			phase       INTEGER NOT NULL,
			candidate   TEXT NOT NULL,
			slot_date   TEXT NOT NULL,
			slot_time   TEXT NOT NULL,
			created_at  TEXT DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS defense_participants (
			defense_id INTEGER NOT NULL REFERENCES defenses(id) ON DELETE CASCADE,
			member_id  TEXT NOT NULL,
			role       TEXT NOT NULL CHECK(role IN ('advisor', 'committee')),
			PRIMARY KEY (defense_id, member_id)
		);

		CREATE TABLE IF NOT EXISTS availability (
			member_id   TEXT NOT NULL,
			year        INTEGER NOT NULL,
			term        INTEGER NOT NULL,
			offering_id TEXT NOT NULL,
			phase       INTEGER NOT NULL,
			slot_date   TEXT NOT NULL,
			slot_time   TEXT NOT NULL,
			available   INTEGER NOT NULL CHECK(available IN (0, 1)),
			updated_at  TEXT NOT NULL,
			UNIQUE (member_id, year, term, offering_id, phase, slot_date, slot_time)
		);

		CREATE INDEX IF NOT EXISTS idx_defenses_period ON defenses(year, term, phase);
		CREATE INDEX IF NOT EXISTS idx_offerings_period ON offerings(year, term, phase);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}
