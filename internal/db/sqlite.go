// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

// SQLite implements availability.Store using SQLite.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ availability.Store = (*SQLite)(nil)

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// A single connection keeps PRAGMA foreign_keys in effect for every query.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// FetchOfferings returns the offerings of the period's year, term and phase,
// each with its grid dates and times.
func (s *SQLite) FetchOfferings(ctx context.Context, period availability.Period) ([]availability.Offering, error) {
	query := `
		SELECT id, course_id, year, term, phase
		FROM offerings
		WHERE year = ? AND term = ? AND phase = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, period.Year, period.Term, period.Phase)
	if err != nil {
		return nil, fmt.Errorf("querying offerings: %w", err)
	}

	var offerings []availability.Offering
	for rows.Next() {
		var o availability.Offering
		if err := rows.Scan(&o.ID, &o.CourseID, &o.Year, &o.Term, &o.Phase); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning offering: %w", err)
		}
		offerings = append(offerings, o)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterating offerings: %w", err)
	}
	_ = rows.Close()

	for i := range offerings {
		def, err := s.gridDefinition(ctx, offerings[i].ID)
		if err != nil {
			return nil, err
		}
		offerings[i].Dates = def.Dates
		offerings[i].Times = def.Times
	}

	return offerings, nil
}

// FetchGrid returns the grid of an offering and the member's persisted
// availability for it.
func (s *SQLite) FetchGrid(ctx context.Context, member availability.MemberID, offering availability.Offering) (*availability.Grid, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM offerings WHERE id = ?`, offering.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", availability.ErrOfferingNotFound, offering.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying offering: %w", err)
	}

	def, err := s.gridDefinition(ctx, offering.ID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT slot_date, slot_time, available
		FROM availability
		WHERE member_id = ? AND year = ? AND term = ? AND offering_id = ? AND phase = ?
		ORDER BY slot_date, slot_time
	`

	rows, err := s.db.QueryContext(ctx, query, member, offering.Year, offering.Term, offering.ID, offering.Phase)
	if err != nil {
		return nil, fmt.Errorf("querying availability: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var persisted []availability.Record
	for rows.Next() {
		var (
			date, tod string
			available bool
		)
		if err := rows.Scan(&date, &tod, &available); err != nil {
			return nil, fmt.Errorf("scanning availability: %w", err)
		}
		key, err := parseKey(date, tod)
		if err != nil {
			return nil, err
		}
		persisted = append(persisted, availability.Record{Key: key, Available: available})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating availability: %w", err)
	}

	return &availability.Grid{Definition: def, Persisted: persisted}, nil
}

// FetchScheduledDefenses returns every defense scheduled in the period's year,
// term and phase, across offerings. A member sitting on another course's
// committee is just as busy.
func (s *SQLite) FetchScheduledDefenses(ctx context.Context, period availability.Period) ([]availability.Defense, error) {
	query := `
		SELECT d.id, d.year, d.term, d.offering_id, d.phase, d.candidate, d.slot_date, d.slot_time,
		       p.member_id, p.role
		FROM defenses d
		JOIN defense_participants p ON p.defense_id = d.id
		WHERE d.year = ? AND d.term = ? AND d.phase = ?
		ORDER BY d.slot_date, d.slot_time, d.id, p.role, p.member_id
	`

	rows, err := s.db.QueryContext(ctx, query, period.Year, period.Term, period.Phase)
	if err != nil {
		return nil, fmt.Errorf("querying defenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		defenses []availability.Defense
		index    = make(map[int64]int)
	)
	for rows.Next() {
		var (
			d         availability.Defense
			date, tod string
			p         availability.Participant
		)
		if err := rows.Scan(
			&d.ID,
			&d.Period.Year,
			&d.Period.Term,
			&d.Period.OfferingID,
			&d.Period.Phase,
			&d.Candidate,
			&date,
			&tod,
			&p.Member,
			&p.Role,
		); err != nil {
			return nil, fmt.Errorf("scanning defense: %w", err)
		}

		i, ok := index[d.ID]
		if !ok {
			key, err := parseKey(date, tod)
			if err != nil {
				return nil, err
			}
			// Slots are zone-less wall clock; UTC has no gaps to shift them.
			d.Slot = dateutil.JoinTimestamp(key.Date, key.Time, time.UTC)
			defenses = append(defenses, d)
			i = len(defenses) - 1
			index[d.ID] = i
		}
		defenses[i].Participants = append(defenses[i].Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating defenses: %w", err)
	}

	return defenses, nil
}

// ReplaceAvailability replaces every record of the scope in one transaction.
func (s *SQLite) ReplaceAvailability(ctx context.Context, scope availability.Scope, records []availability.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p := scope.Period
	_, err = tx.ExecContext(ctx, `
		DELETE FROM availability
		WHERE member_id = ? AND year = ? AND term = ? AND offering_id = ? AND phase = ?`,
		scope.Member, p.Year, p.Term, p.OfferingID, p.Phase,
	)
	if err != nil {
		return fmt.Errorf("clearing availability: %w", err)
	}

	query := `
		INSERT INTO availability (
			member_id, year, term, offering_id, phase, slot_date, slot_time, available, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	updatedAt := s.now().UTC().Format(time.RFC3339)
	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			scope.Member,
			p.Year,
			p.Term,
			p.OfferingID,
			p.Phase,
			r.Key.Date.String(),
			r.Key.Time.String(),
			r.Available,
			updatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting availability %s: %w", r.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// DeleteAvailability removes the record of one slot. Deleting a missing
// record is not an error.
func (s *SQLite) DeleteAvailability(ctx context.Context, scope availability.Scope, key availability.Key) error {
	p := scope.Period
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM availability
		WHERE member_id = ? AND year = ? AND term = ? AND offering_id = ? AND phase = ?
		  AND slot_date = ? AND slot_time = ?`,
		scope.Member, p.Year, p.Term, p.OfferingID, p.Phase,
		key.Date.String(), key.Time.String(),
	)
	if err != nil {
		return fmt.Errorf("deleting availability %s: %w", key, err)
	}
	return nil
}

// gridDefinition loads the dates and times of an offering in position order.
func (s *SQLite) gridDefinition(ctx context.Context, offeringID string) (availability.GridDefinition, error) {
	var def availability.GridDefinition

	dates, err := s.queryStrings(ctx,
		`SELECT slot_date FROM offering_dates WHERE offering_id = ? ORDER BY position`, offeringID)
	if err != nil {
		return def, fmt.Errorf("querying offering dates: %w", err)
	}
	for _, raw := range dates {
		d, err := parseDate(raw)
		if err != nil {
			return def, fmt.Errorf("parsing offering date: %w", err)
		}
		def.Dates = append(def.Dates, d)
	}

	times, err := s.queryStrings(ctx,
		`SELECT slot_time FROM offering_times WHERE offering_id = ? ORDER BY position`, offeringID)
	if err != nil {
		return def, fmt.Errorf("querying offering times: %w", err)
	}
	for _, raw := range times {
		t, err := dateutil.ParseTimeOfDay(raw)
		if err != nil {
			return def, fmt.Errorf("parsing offering time: %w", err)
		}
		def.Times = append(def.Times, t)
	}

	return def, nil
}

func (s *SQLite) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// parseDate accepts the stored YYYY-MM-DD form and the
// "2006-01-02T00:00:00Z" form some drivers return for date-like text.
func parseDate(s string) (dateutil.Date, error) {
	if len(s) == 20 && s[10] == 'T' && s[19] == 'Z' {
		s = s[:10]
	}
	return dateutil.ParseDate(s)
}

func parseKey(date, tod string) (availability.Key, error) {
	d, err := parseDate(date)
	if err != nil {
		return availability.Key{}, fmt.Errorf("parsing slot date: %w", err)
	}
	t, err := dateutil.ParseTimeOfDay(tod)
	if err != nil {
		return availability.Key{}, fmt.Errorf("parsing slot time: %w", err)
	}
	return availability.NewKey(d, t), nil
}
