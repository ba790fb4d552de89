package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

var testPeriod = availability.Period{Year: 2025, Term: 1, OfferingID: "tcc-1", Phase: 2}

func testOffering() *availability.Offering {
	return &availability.Offering{
		ID:       testPeriod.OfferingID,
		CourseID: "cs-tcc",
		Year:     testPeriod.Year,
		Term:     testPeriod.Term,
		Phase:    testPeriod.Phase,
		Dates: []dateutil.Date{
			dateutil.MustParseDate("2025-06-11"),
			dateutil.MustParseDate("2025-06-10"),
		},
		Times: []dateutil.TimeOfDay{
			dateutil.MustParseTimeOfDay("09:00:00"),
			dateutil.MustParseTimeOfDay("09:30:00"),
			dateutil.MustParseTimeOfDay("10:00:00"),
		},
	}
}

func key(date, tod string) availability.Key {
	return availability.NewKey(dateutil.MustParseDate(date), dateutil.MustParseTimeOfDay(tod))
}

func TestCreateOffering_FetchOfferings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateOffering(ctx, testOffering()); err != nil {
		t.Fatalf("CreateOffering failed: %v", err)
	}

	offerings, err := repo.FetchOfferings(ctx, testPeriod)
	if err != nil {
		t.Fatalf("FetchOfferings failed: %v", err)
	}
	if len(offerings) != 1 {
		t.Fatalf("expected 1 offering, got %d", len(offerings))
	}

	o := offerings[0]
	if !o.Matches(testPeriod) {
		t.Errorf("offering %+v does not match period", o)
	}
	if o.CourseID != "cs-tcc" {
		t.Errorf("course = %q, want cs-tcc", o.CourseID)
	}
	// Dates keep insertion order, not calendar order.
	if len(o.Dates) != 2 || o.Dates[0].String() != "2025-06-11" {
		t.Errorf("dates = %v, want insertion order", o.Dates)
	}
	if len(o.Times) != 3 || o.Times[2].String() != "10:00:00" {
		t.Errorf("times = %v", o.Times)
	}
}

func TestFetchOfferings_OtherPhase(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateOffering(ctx, testOffering()); err != nil {
		t.Fatalf("CreateOffering failed: %v", err)
	}

	other := testPeriod
	other.Phase = 1
	offerings, err := repo.FetchOfferings(ctx, other)
	if err != nil {
		t.Fatalf("FetchOfferings failed: %v", err)
	}
	if len(offerings) != 0 {
		t.Errorf("expected no offerings, got %d", len(offerings))
	}
}

func TestCreateOffering_Duplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateOffering(ctx, testOffering()); err != nil {
		t.Fatalf("CreateOffering failed: %v", err)
	}
	err := repo.CreateOffering(ctx, testOffering())
	if !errors.Is(err, ErrDuplicateOffering) {
		t.Errorf("expected ErrDuplicateOffering, got %v", err)
	}
}

func TestCreateOffering_Invalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	badTerm := testOffering()
	badTerm.Term = 3
	if err := repo.CreateOffering(ctx, badTerm); !errors.Is(err, availability.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}

	dupTime := testOffering()
	dupTime.Times = append(dupTime.Times, dupTime.Times[0])
	if err := repo.CreateOffering(ctx, dupTime); !errors.Is(err, availability.ErrMalformedGrid) {
		t.Errorf("expected ErrMalformedGrid, got %v", err)
	}
}

func TestFetchGrid_Empty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	o := testOffering()
	if err := repo.CreateOffering(ctx, o); err != nil {
		t.Fatalf("CreateOffering failed: %v", err)
	}

	grid, err := repo.FetchGrid(ctx, "m1", *o)
	if err != nil {
		t.Fatalf("FetchGrid failed: %v", err)
	}
	if grid.Definition.Size() != 6 {
		t.Errorf("grid size = %d, want 6", grid.Definition.Size())
	}
	if len(grid.Persisted) != 0 {
		t.Errorf("expected no persisted records, got %d", len(grid.Persisted))
	}
}

func TestFetchGrid_UnknownOffering(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FetchGrid(context.Background(), "m1", availability.Offering{ID: "nope"})
	if !errors.Is(err, availability.ErrOfferingNotFound) {
		t.Errorf("expected ErrOfferingNotFound, got %v", err)
	}
}

func TestReplaceAvailability(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	o := testOffering()
	if err := repo.CreateOffering(ctx, o); err != nil {
		t.Fatalf("CreateOffering failed: %v", err)
	}
	scope := availability.Scope{Period: testPeriod, Member: "m1"}

	first := []availability.Record{
		{Key: key("2025-06-10", "09:00:00"), Available: true},
		{Key: key("2025-06-10", "09:30:00"), Available: true},
	}
	if err := repo.ReplaceAvailability(ctx, scope, first); err != nil {
		t.Fatalf("ReplaceAvailability failed: %v", err)
	}

	second := []availability.Record{
		{Key: key("2025-06-11", "10:00:00"), Available: true},
		{Key: key("2025-06-10", "09:00:00"), Available: false},
	}
	if err := repo.ReplaceAvailability(ctx, scope, second); err != nil {
		t.Fatalf("ReplaceAvailability (second) failed: %v", err)
	}

	grid, err := repo.FetchGrid(ctx, "m1", *o)
	if err != nil {
		t.Fatalf("FetchGrid failed: %v", err)
	}
	if len(grid.Persisted) != 2 {
		t.Fatalf("expected 2 records after replace, got %d", len(grid.Persisted))
	}
	got := availability.Materialize(grid.Definition, grid.Persisted)
	if !got[key("2025-06-11", "10:00:00")] {
		t.Error("expected 2025-06-11 10:00 to be available")
	}
	if got[key("2025-06-10", "09:30:00")] {
		t.Error("record from the first replace should be gone")
	}
}

func TestReplaceAvailability_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	o := testOffering()
	if err := repo.CreateOffering(ctx, o); err != nil {
		t.Fatalf("CreateOffering failed: %v", err)
	}
	scope := availability.Scope{Period: testPeriod, Member: "m1"}
	records := availability.Snapshot(o.Definition(), availability.Map{key("2025-06-10", "09:00:00"): true}, nil)

	for range 2 {
		if err := repo.ReplaceAvailability(ctx, scope, records); err != nil {
			t.Fatalf("ReplaceAvailability failed: %v", err)
		}
	}

	grid, err := repo.FetchGrid(ctx, "m1", *o)
	if err != nil {
		t.Fatalf("FetchGrid failed: %v", err)
	}
	if len(grid.Persisted) != len(records) {
		t.Errorf("expected %d records, got %d", len(records), len(grid.Persisted))
	}
}

func TestReplaceAvailability_ScopedToMember(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	o := testOffering()
	if err := repo.CreateOffering(ctx, o); err != nil {
		t.Fatalf("CreateOffering failed: %v", err)
	}

	mine := availability.Scope{Period: testPeriod, Member: "m1"}
	theirs := availability.Scope{Period: testPeriod, Member: "m2"}
	rec := []availability.Record{{Key: key("2025-06-10", "09:00:00"), Available: true}}

	if err := repo.ReplaceAvailability(ctx, theirs, rec); err != nil {
		t.Fatalf("ReplaceAvailability failed: %v", err)
	}
	if err := repo.ReplaceAvailability(ctx, mine, nil); err != nil {
		t.Fatalf("ReplaceAvailability failed: %v", err)
	}

	grid, err := repo.FetchGrid(ctx, "m2", *o)
	if err != nil {
		t.Fatalf("FetchGrid failed: %v", err)
	}
	if len(grid.Persisted) != 1 {
		t.Errorf("other member's records should survive, got %d", len(grid.Persisted))
	}
}

func TestDeleteAvailability(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	o := testOffering()
	if err := repo.CreateOffering(ctx, o); err != nil {
		t.Fatalf("CreateOffering failed: %v", err)
	}
	scope := availability.Scope{Period: testPeriod, Member: "m1"}
	rec := []availability.Record{
		{Key: key("2025-06-10", "09:00:00"), Available: true},
		{Key: key("2025-06-10", "09:30:00"), Available: true},
	}
	if err := repo.ReplaceAvailability(ctx, scope, rec); err != nil {
		t.Fatalf("ReplaceAvailability failed: %v", err)
	}

	if err := repo.DeleteAvailability(ctx, scope, key("2025-06-10", "09:30:00")); err != nil {
		t.Fatalf("DeleteAvailability failed: %v", err)
	}
	// Missing records are fine.
	if err := repo.DeleteAvailability(ctx, scope, key("2025-06-11", "10:00:00")); err != nil {
		t.Fatalf("DeleteAvailability (missing) failed: %v", err)
	}

	grid, err := repo.FetchGrid(ctx, "m1", *o)
	if err != nil {
		t.Fatalf("FetchGrid failed: %v", err)
	}
	if len(grid.Persisted) != 1 || grid.Persisted[0].Key != key("2025-06-10", "09:00:00") {
		t.Errorf("unexpected records after delete: %v", grid.Persisted)
	}
}

func TestCreateDefense_FetchScheduledDefenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	slot := time.Date(2025, 6, 10, 9, 30, 0, 0, time.Local)
	d := &availability.Defense{
		Period:    testPeriod,
		Candidate: "Ada",
		Slot:      slot,
		Participants: []availability.Participant{
			{Member: "m1", Role: availability.RoleAdvisor},
			{Member: "m2", Role: availability.RoleCommittee},
		},
	}
	if err := repo.CreateDefense(ctx, d); err != nil {
		t.Fatalf("CreateDefense failed: %v", err)
	}
	if d.ID == 0 {
		t.Error("expected ID to be set after insert")
	}

	// Same year, term and phase in another offering still counts.
	other := testPeriod
	other.OfferingID = "tcc-2"
	if err := repo.CreateDefense(ctx, &availability.Defense{
		Period:       other,
		Candidate:    "Grace",
		Slot:         time.Date(2025, 6, 11, 14, 0, 0, 0, time.Local),
		Participants: []availability.Participant{{Member: "m1", Role: availability.RoleCommittee}},
	}); err != nil {
		t.Fatalf("CreateDefense (other offering) failed: %v", err)
	}

	defenses, err := repo.FetchScheduledDefenses(ctx, testPeriod)
	if err != nil {
		t.Fatalf("FetchScheduledDefenses failed: %v", err)
	}
	if len(defenses) != 2 {
		t.Fatalf("expected 2 defenses, got %d", len(defenses))
	}

	first := defenses[0]
	if first.Candidate != "Ada" || availability.KeyOf(first.Slot) != key("2025-06-10", "09:30:00") {
		t.Errorf("first defense = %+v", first)
	}
	if len(first.Participants) != 2 {
		t.Errorf("expected 2 participants, got %d", len(first.Participants))
	}
	if !first.HasParticipant("m2") {
		t.Error("m2 should take part in the first defense")
	}

	blocked := availability.DeriveConflicts(defenses, "m1")
	if blocked[key("2025-06-10", "10:00:00")] != availability.ReasonBooked {
		t.Error("expected 10:00 to be booked for m1")
	}
	if blocked[key("2025-06-11", "13:30:00")] != availability.ReasonAdjacentUnavailable {
		t.Error("expected 13:30 to be adjacent-unavailable for m1")
	}
}

func TestFetchScheduledDefenses_KeepsWallClockInDSTGap(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data not available: %v", err)
	}
	prev := time.Local
	time.Local = ny
	t.Cleanup(func() { time.Local = prev })

	repo := newTestRepo(t)
	ctx := context.Background()

	// 02:30 does not exist in New York on 2025-03-09.
	err = repo.CreateDefense(ctx, &availability.Defense{
		Period:       testPeriod,
		Candidate:    "Ada",
		Slot:         time.Date(2025, 3, 9, 2, 30, 0, 0, time.UTC),
		Participants: []availability.Participant{{Member: "m1", Role: availability.RoleAdvisor}},
	})
	if err != nil {
		t.Fatalf("CreateDefense failed: %v", err)
	}

	defenses, err := repo.FetchScheduledDefenses(ctx, testPeriod)
	if err != nil {
		t.Fatalf("FetchScheduledDefenses failed: %v", err)
	}
	if len(defenses) != 1 {
		t.Fatalf("expected 1 defense, got %d", len(defenses))
	}
	if got := availability.KeyOf(defenses[0].Slot); got != key("2025-03-09", "02:30:00") {
		t.Errorf("slot key = %s, want 2025-03-09 02:30:00", got)
	}
}

func TestCreateDefense_Invalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	slot := time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		defense availability.Defense
		wantErr error
	}{
		{
			name:    "no participants",
			defense: availability.Defense{Period: testPeriod, Candidate: "x", Slot: slot},
			wantErr: availability.ErrEmptyParticipants,
		},
		{
			name: "bad role",
			defense: availability.Defense{
				Period: testPeriod, Candidate: "x", Slot: slot,
				Participants: []availability.Participant{{Member: "m1", Role: "chair"}},
			},
			wantErr: availability.ErrInvalidRole,
		},
		{
			name: "bad period",
			defense: availability.Defense{
				Period: availability.Period{Year: 2025, Term: 1, Phase: 1}, Candidate: "x", Slot: slot,
				Participants: []availability.Participant{{Member: "m1", Role: availability.RoleAdvisor}},
			},
			wantErr: availability.ErrInvalidPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.CreateDefense(ctx, &tt.defense)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2025-06-10", want: "2025-06-10"},
		{in: "2025-06-10T00:00:00Z", want: "2025-06-10"},
		{in: "10/06/2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}
