package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/javiermolinar/defensegrid/internal/availability"
)

// ErrDuplicateOffering is returned when an offering id is already taken.
var ErrDuplicateOffering = errors.New("offering already exists")

// CreateOffering inserts an offering together with its grid dates and times.
func (s *SQLite) CreateOffering(ctx context.Context, o *availability.Offering) error {
	if err := availability.ValidatePeriod(o.Period()); err != nil {
		return err
	}
	if err := o.Definition().Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM offerings WHERE id = ?`, o.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking offering: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateOffering, o.ID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO offerings (id, course_id, year, term, phase) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.CourseID, o.Year, o.Term, o.Phase,
	)
	if err != nil {
		return fmt.Errorf("inserting offering: %w", err)
	}

	dateStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO offering_dates (offering_id, position, slot_date) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = dateStmt.Close() }()

	for i, d := range o.Dates {
		if _, err := dateStmt.ExecContext(ctx, o.ID, i, d.String()); err != nil {
			return fmt.Errorf("inserting offering date %s: %w", d, err)
		}
	}

	timeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO offering_times (offering_id, position, slot_time) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = timeStmt.Close() }()

	for i, t := range o.Times {
		if _, err := timeStmt.ExecContext(ctx, o.ID, i, t.String()); err != nil {
			return fmt.Errorf("inserting offering time %s: %w", t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// CreateDefense schedules a defense and records its participants.
// The slot is stored as the wall-clock date and time of its own location.
func (s *SQLite) CreateDefense(ctx context.Context, d *availability.Defense) error {
	if err := availability.ValidatePeriod(d.Period); err != nil {
		return err
	}
	if d.Candidate == "" {
		return errors.New("candidate is required")
	}
	if len(d.Participants) == 0 {
		return availability.ErrEmptyParticipants
	}
	for _, p := range d.Participants {
		if !p.Role.Valid() {
			return fmt.Errorf("%w: got %q", availability.ErrInvalidRole, p.Role)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	key := availability.KeyOf(d.Slot)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO defenses (year, term, offering_id, phase, candidate, slot_date, slot_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Period.Year, d.Period.Term, d.Period.OfferingID, d.Period.Phase,
		d.Candidate, key.Date.String(), key.Time.String(),
	)
	if err != nil {
		return fmt.Errorf("inserting defense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO defense_participants (defense_id, member_id, role) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range d.Participants {
		if _, err := stmt.ExecContext(ctx, id, p.Member, p.Role); err != nil {
			return fmt.Errorf("inserting participant %s: %w", p.Member, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.ID = id
	return nil
}
