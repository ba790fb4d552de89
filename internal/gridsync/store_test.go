package gridsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

var testPeriod = availability.Period{Year: 2025, Term: 1, OfferingID: "tcc-1", Phase: 2}

// fakeStore is an in-memory availability.Store. Hooks, when set, run before
// the default behaviour and may return an error to fail the call.
type fakeStore struct {
	mu        sync.Mutex
	offerings []availability.Offering
	defenses  []availability.Defense
	records   map[availability.Scope][]availability.Record

	replaced []availability.Scope
	deleted  []availability.Key

	onFetchOfferings func(ctx context.Context, p availability.Period) error
	onFetchGrid      func(ctx context.Context) error
	onFetchDefenses  func(ctx context.Context) error
	onReplace        func(ctx context.Context, records []availability.Record) error
	onDelete         func(key availability.Key) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		offerings: []availability.Offering{testOffering(testPeriod)},
		records:   make(map[availability.Scope][]availability.Record),
	}
}

func testOffering(p availability.Period) availability.Offering {
	return availability.Offering{
		ID:    p.OfferingID,
		Year:  p.Year,
		Term:  p.Term,
		Phase: p.Phase,
		Dates: []dateutil.Date{
			dateutil.MustParseDate("2025-06-10"),
			dateutil.MustParseDate("2025-06-11"),
		},
		Times: []dateutil.TimeOfDay{
			dateutil.MustParseTimeOfDay("09:00:00"),
			dateutil.MustParseTimeOfDay("09:30:00"),
			dateutil.MustParseTimeOfDay("10:00:00"),
		},
	}
}

func (f *fakeStore) FetchOfferings(ctx context.Context, p availability.Period) ([]availability.Offering, error) {
	if f.onFetchOfferings != nil {
		if err := f.onFetchOfferings(ctx, p); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.offerings), nil
}

func (f *fakeStore) FetchGrid(ctx context.Context, member availability.MemberID, o availability.Offering) (*availability.Grid, error) {
	if f.onFetchGrid != nil {
		if err := f.onFetchGrid(ctx); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	scope := availability.Scope{Period: o.Period(), Member: member}
	return &availability.Grid{
		Definition: o.Definition(),
		Persisted:  slices.Clone(f.records[scope]),
	}, nil
}

func (f *fakeStore) FetchScheduledDefenses(ctx context.Context, _ availability.Period) ([]availability.Defense, error) {
	if f.onFetchDefenses != nil {
		if err := f.onFetchDefenses(ctx); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.defenses), nil
}

func (f *fakeStore) ReplaceAvailability(ctx context.Context, scope availability.Scope, records []availability.Record) error {
	if f.onReplace != nil {
		if err := f.onReplace(ctx, records); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[scope] = slices.Clone(records)
	f.replaced = append(f.replaced, scope)
	return nil
}

func (f *fakeStore) DeleteAvailability(_ context.Context, scope availability.Scope, key availability.Key) error {
	if f.onDelete != nil {
		if err := f.onDelete(key); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[scope] = slices.DeleteFunc(f.records[scope], func(r availability.Record) bool {
		return r.Key == key
	})
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) persisted(member availability.MemberID) availability.Map {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := make(availability.Map)
	for _, r := range f.records[availability.Scope{Period: testPeriod, Member: member}] {
		m[r.Key] = r.Available
	}
	return m
}

func (f *fakeStore) replaceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replaced)
}

// recordingLogger keeps warnings so tests can check cleanup failures.
type recordingLogger struct {
	nopLogger
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func key(date, tod string) availability.Key {
	return availability.NewKey(dateutil.MustParseDate(date), dateutil.MustParseTimeOfDay(tod))
}

func defense(t *testing.T, ts string, member availability.MemberID) availability.Defense {
	t.Helper()
	slot, err := dateutil.ParseTimestamp(ts, time.Local)
	if err != nil {
		t.Fatalf("parsing %q: %v", ts, err)
	}
	return availability.Defense{
		Period:       testPeriod,
		Candidate:    "candidate",
		Slot:         slot,
		Participants: []availability.Participant{{Member: member, Role: availability.RoleCommittee}},
	}
}

// loadedCoordinator returns a coordinator that has loaded testPeriod.
func loadedCoordinator(t *testing.T, store *fakeStore, opts ...Option) *Coordinator {
	t.Helper()
	c := New(store, "m1", opts...)
	if err := c.SelectPeriod(context.Background(), testPeriod); err != nil {
		t.Fatalf("SelectPeriod failed: %v", err)
	}
	if c.State() != StateReady {
		t.Fatalf("state = %s, want ready", c.State())
	}
	return c
}

var errBoom = errors.New("boom")
