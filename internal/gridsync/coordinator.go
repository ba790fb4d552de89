// Package gridsync coordinates the availability grid of one committee member:
// loading a period from the store, tracking local edits against the last
// synchronized baseline, and pushing the edited grid back.
package gridsync

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

// State is the lifecycle state of a Coordinator.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateDirty
	StateSyncing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDirty:
		return "dirty"
	case StateSyncing:
		return "syncing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(l Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// Coordinator owns the grid state of one member. All methods are safe for
// concurrent use; the lock is never held across store calls.
type Coordinator struct {
	store  availability.Store
	member availability.MemberID
	log    Logger
	newID  func() string

	mu    sync.Mutex
	state State
	// gen identifies the latest period selection. Loads finishing with an
	// older generation are discarded.
	gen    uint64
	period availability.Period
	def    availability.GridDefinition

	// Saved state (synced with the store)
	baseline availability.Map

	// Working state (local edits)
	current availability.Map

	// Replaced wholesale, never mutated
	blocked availability.Blocked

	lastErr error
}

// New creates a coordinator for member backed by store.
func New(store availability.Store, member availability.MemberID, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		member: member,
		log:    nopLogger{},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Member returns the member whose grid is coordinated.
func (c *Coordinator) Member() availability.MemberID {
	return c.member
}

// SelectPeriod loads the grid of period. It is rejected with
// ErrUnsyncedChanges while there are unsynchronized edits and with
// ErrSyncInProgress while a push is running: callers leaving a grid go
// through RequestNavigation and ResolveNavigation first. When several
// selections overlap, the last one wins and earlier calls return
// ErrSuperseded.
//
// Records stored as available on slots that are now blocked are loaded as
// unavailable and deleted from the store on a best-effort basis.
func (c *Coordinator) SelectPeriod(ctx context.Context, period availability.Period) error {
	c.mu.Lock()
	switch c.state {
	case StateDirty:
		c.mu.Unlock()
		return ErrUnsyncedChanges
	case StateSyncing:
		c.mu.Unlock()
		return ErrSyncInProgress
	}
	c.gen++
	gen := c.gen
	c.state = StateLoading
	c.period = period
	c.clearGrid()
	c.mu.Unlock()

	c.log.Debugf("loading grid for %s (member %s)", period, c.member)

	if err := availability.ValidatePeriod(period); err != nil {
		return c.loadFailed(gen, period, err)
	}

	res, err := c.fetch(ctx, period)
	if err != nil {
		return c.loadFailed(gen, period, err)
	}
	persisted, err := c.loadComplete(gen, res)
	if err != nil {
		return err
	}

	scope := availability.Scope{Period: period, Member: c.member}
	c.cleanupBlocked(ctx, "load "+c.newID(), scope, res.blocked, persisted)
	return nil
}

type loadResult struct {
	def       availability.GridDefinition
	persisted []availability.Record
	blocked   availability.Blocked
}

// fetch runs the offering to grid chain and the scheduled defense fetch
// concurrently. Both must succeed.
func (c *Coordinator) fetch(ctx context.Context, period availability.Period) (*loadResult, error) {
	var (
		def      availability.GridDefinition
		grid     *availability.Grid
		defenses []availability.Defense
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		offerings, err := c.store.FetchOfferings(gctx, period)
		if err != nil {
			return fmt.Errorf("fetching offerings: %w", err)
		}
		i := slices.IndexFunc(offerings, func(o availability.Offering) bool {
			return o.Matches(period)
		})
		if i < 0 {
			return fmt.Errorf("%w: %s", availability.ErrOfferingNotFound, period)
		}
		offering := offerings[i]

		grid, err = c.store.FetchGrid(gctx, c.member, offering)
		if err != nil {
			return fmt.Errorf("fetching grid: %w", err)
		}
		if grid == nil {
			return fmt.Errorf("%w: empty grid response", availability.ErrMalformedGrid)
		}

		// The offering defines the grid; the grid response is the fallback
		// for stores that do not expose it on offerings.
		def = offering.Definition()
		if def.Size() == 0 {
			def = grid.Definition
		}
		return def.Validate()
	})

	g.Go(func() error {
		var err error
		defenses, err = c.store.FetchScheduledDefenses(gctx, period)
		if err != nil {
			return fmt.Errorf("fetching scheduled defenses: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &loadResult{
		def:       def,
		persisted: grid.Persisted,
		blocked:   availability.DeriveConflicts(defenses, c.member),
	}, nil
}

// loadComplete installs a fetched grid with blocked slots forced to false.
// It returns the materialized store values before clamping.
func (c *Coordinator) loadComplete(gen uint64, res *loadResult) (availability.Map, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.log.Debugf("discarding stale grid load (generation %d, current %d)", gen, c.gen)
		return nil, ErrSuperseded
	}

	persisted := availability.Materialize(res.def, res.persisted)
	c.def = res.def
	c.baseline = availability.Resolve(persisted, res.blocked)
	c.current = c.baseline.Clone()
	c.blocked = res.blocked
	c.state = StateReady
	c.lastErr = nil

	c.log.Infof("loaded grid for %s: %d slots, %d available, %d blocked",
		c.period, res.def.Size(), c.baseline.Available(), len(res.blocked))
	return persisted, nil
}

func (c *Coordinator) loadFailed(gen uint64, period availability.Period, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.log.Debugf("discarding stale grid load failure: %v", err)
		return ErrSuperseded
	}

	c.state = StateIdle
	c.clearGrid()
	lerr := &LoadError{Period: period, Err: err}
	c.lastErr = lerr

	c.log.Errorf("%v", lerr)
	return lerr
}

// clearGrid drops the loaded grid. Callers hold c.mu.
func (c *Coordinator) clearGrid() {
	c.def = availability.GridDefinition{}
	c.baseline = nil
	c.current = nil
	c.blocked = nil
}

// ReloadConflicts refetches the scheduled defenses of the loaded period and
// replaces the blocked slots. Local edits are kept except on slots that are
// now blocked; those, and their stored records, become unavailable.
func (c *Coordinator) ReloadConflicts(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateReady && c.state != StateDirty {
		state := c.state
		c.mu.Unlock()
		if state == StateSyncing {
			return ErrSyncInProgress
		}
		return ErrNoGrid
	}
	gen := c.gen
	period := c.period
	c.mu.Unlock()

	defenses, err := c.store.FetchScheduledDefenses(ctx, period)
	if err != nil {
		return fmt.Errorf("fetching scheduled defenses: %w", err)
	}
	blocked := availability.DeriveConflicts(defenses, c.member)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.blocked = blocked
	// A running push owns baseline and current; the next reload clamps them.
	var previous availability.Map
	if c.state != StateSyncing {
		previous = c.baseline
		c.baseline = availability.Resolve(c.baseline, blocked)
		c.current = availability.Resolve(c.current, blocked)
		c.updateState()
	}
	scope := availability.Scope{Period: period, Member: c.member}
	c.mu.Unlock()

	c.log.Debugf("reloaded conflicts for %s: %d blocked", period, len(blocked))
	c.cleanupBlocked(ctx, "reload "+c.newID(), scope, blocked, previous)
	return nil
}

// ToggleSlot sets one slot. Blocked slots are left unchanged.
func (c *Coordinator) ToggleSlot(key availability.Key, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	if !c.def.Contains(key) {
		return fmt.Errorf("%w: %s", availability.ErrSlotNotInGrid, key)
	}

	c.current = availability.ToggleSlot(key, value, c.blocked, c.current)
	c.updateState()
	return nil
}

// ToggleColumn selects every eligible slot of date, or clears them when the
// column is already complete.
func (c *Coordinator) ToggleColumn(date dateutil.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkEditable(); err != nil {
		return err
	}
	if !c.def.HasDate(date) {
		return fmt.Errorf("%w: date %s", availability.ErrSlotNotInGrid, date)
	}

	c.current = availability.ToggleColumn(date, c.def, c.current, c.blocked)
	c.updateState()
	return nil
}

func (c *Coordinator) checkEditable() error {
	switch c.state {
	case StateReady, StateDirty:
		return nil
	case StateSyncing:
		return ErrSyncInProgress
	default:
		return ErrNoGrid
	}
}

func (c *Coordinator) updateState() {
	if availability.CountChanges(c.current, c.baseline) > 0 {
		c.state = StateDirty
	} else {
		c.state = StateReady
	}
}

// Synchronize pushes the whole grid of the member with a single full-replace
// call. Blocked slots are always sent as unavailable. With no pending changes
// it does nothing. On failure the local edits are kept and a *SyncError is
// returned.
func (c *Coordinator) Synchronize(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		c.mu.Unlock()
		return nil
	case StateSyncing:
		c.mu.Unlock()
		return ErrSyncInProgress
	case StateIdle, StateLoading:
		c.mu.Unlock()
		return ErrNoGrid
	}

	c.state = StateSyncing
	scope := availability.Scope{Period: c.period, Member: c.member}
	snapshot := availability.Snapshot(c.def, c.current, c.blocked)
	blocked := c.blocked
	previous := c.baseline
	changes := availability.CountChanges(c.current, c.baseline)
	c.mu.Unlock()

	syncID := c.newID()
	c.log.Infof("sync %s: pushing %d slots (%d changed) for %s", syncID, len(snapshot), changes, scope)

	if err := c.store.ReplaceAvailability(ctx, scope, snapshot); err != nil {
		return c.syncFailed(syncID, scope, err)
	}
	c.syncSucceeded(syncID, snapshot)

	c.cleanupBlocked(ctx, "sync "+syncID, scope, blocked, previous)
	return nil
}

func (c *Coordinator) syncSucceeded(syncID string, snapshot []availability.Record) {
	baseline := make(availability.Map, len(snapshot))
	for _, r := range snapshot {
		baseline[r.Key] = r.Available
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseline = baseline
	c.current = baseline.Clone()
	c.state = StateReady
	c.lastErr = nil
	c.log.Infof("sync %s: done", syncID)
}

func (c *Coordinator) syncFailed(syncID string, scope availability.Scope, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDirty
	serr := &SyncError{Scope: scope, Err: err}
	c.lastErr = serr
	c.log.Errorf("sync %s: %v", syncID, serr)
	return serr
}

// cleanupBlocked removes stale persisted records of slots that were stored as
// available but are now blocked. Failures are only logged.
func (c *Coordinator) cleanupBlocked(ctx context.Context, op string, scope availability.Scope, blocked availability.Blocked, previous availability.Map) {
	for _, k := range blocked.Keys() {
		if !previous[k] {
			continue
		}
		if err := c.store.DeleteAvailability(ctx, scope, k); err != nil {
			c.log.Warnf("%s: cleaning up blocked slot %s: %v", op, k, err)
			continue
		}
		c.log.Debugf("%s: removed stale availability for blocked slot %s", op, k)
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Period returns the last selected period.
func (c *Coordinator) Period() availability.Period {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.period
}

// Grid returns the definition of the loaded grid.
func (c *Coordinator) Grid() availability.GridDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return availability.GridDefinition{
		Dates: slices.Clone(c.def.Dates),
		Times: slices.Clone(c.def.Times),
	}
}

// CurrentMap returns a copy of the edited availability.
func (c *Coordinator) CurrentMap() availability.Map {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// BaselineMap returns a copy of the last synchronized availability.
func (c *Coordinator) BaselineMap() availability.Map {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseline.Clone()
}

// BlockedMap returns the blocked slots. The map must not be modified.
func (c *Coordinator) BlockedMap() availability.Blocked {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked
}

// PendingChangeCount returns the number of slots edited since the last
// successful load or push.
func (c *Coordinator) PendingChangeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return availability.CountChanges(c.current, c.baseline)
}

// ChangedKeys returns the edited slots in grid order.
func (c *Coordinator) ChangedKeys() []availability.Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return availability.ChangedKeys(c.current, c.baseline)
}

// ColumnState reports the selection state of one date.
func (c *Coordinator) ColumnState(date dateutil.Date) availability.ColumnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return availability.ColumnStateOf(date, c.def, c.current, c.blocked)
}

// LastError returns the error of the last failed load or push, cleared by the
// next success.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
