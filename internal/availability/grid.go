package availability

import (
	"fmt"
	"slices"

	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

// GridDefinition is the set of candidate dates and times of day of a grid.
// The order of both sequences is the presentation order.
type GridDefinition struct {
	Dates []dateutil.Date
	Times []dateutil.TimeOfDay
}

// Size returns the number of cells in the grid.
func (g GridDefinition) Size() int {
	return len(g.Dates) * len(g.Times)
}

// Validate rejects definitions that cannot be materialized into exactly
// |Dates| x |Times| distinct cells.
func (g GridDefinition) Validate() error {
	seenDates := make(map[dateutil.Date]bool, len(g.Dates))
	for _, d := range g.Dates {
		if d.IsZero() {
			return fmt.Errorf("%w: zero date", ErrMalformedGrid)
		}
		if seenDates[d] {
			return fmt.Errorf("%w: duplicate date %s", ErrMalformedGrid, d)
		}
		seenDates[d] = true
	}
	seenTimes := make(map[dateutil.TimeOfDay]bool, len(g.Times))
	for _, t := range g.Times {
		if !t.Valid() {
			return fmt.Errorf("%w: time of day out of range (%d)", ErrMalformedGrid, int(t))
		}
		if seenTimes[t] {
			return fmt.Errorf("%w: duplicate time %s", ErrMalformedGrid, t)
		}
		seenTimes[t] = true
	}
	return nil
}

// HasDate reports whether date is a column of the grid.
func (g GridDefinition) HasDate(date dateutil.Date) bool {
	return slices.Contains(g.Dates, date)
}

// Contains reports whether k is a cell of the grid.
func (g GridDefinition) Contains(k Key) bool {
	return g.HasDate(k.Date) && slices.Contains(g.Times, k.Time)
}

// Column returns the keys of one date in time order.
func (g GridDefinition) Column(date dateutil.Date) []Key {
	keys := make([]Key, 0, len(g.Times))
	for _, t := range g.Times {
		keys = append(keys, Key{Date: date, Time: t})
	}
	return keys
}

// Keys returns every cell, date by date, in presentation order.
func (g GridDefinition) Keys() []Key {
	keys := make([]Key, 0, g.Size())
	for _, d := range g.Dates {
		keys = append(keys, g.Column(d)...)
	}
	return keys
}

// Materialize builds the dense availability map of a grid. Every cell gets an
// entry; persisted values are copied for cells of the grid, everything else
// defaults to false. Records outside the grid are dropped.
func Materialize(def GridDefinition, persisted []Record) Map {
	m := make(Map, def.Size())
	for _, d := range def.Dates {
		for _, t := range def.Times {
			m[Key{Date: d, Time: t}] = false
		}
	}
	for _, r := range persisted {
		if _, ok := m[r.Key]; ok {
			m[r.Key] = r.Available
		}
	}
	return m
}

// Resolve returns a copy of current with every blocked key forced to false.
func Resolve(current Map, blocked Blocked) Map {
	out := current.Clone()
	for k := range blocked {
		if _, ok := out[k]; ok {
			out[k] = false
		}
	}
	return out
}

// Snapshot returns the outbound records of a full-replace synchronization:
// one record per grid cell, in grid order, with blocked cells forced to false.
func Snapshot(def GridDefinition, current Map, blocked Blocked) []Record {
	records := make([]Record, 0, def.Size())
	for _, k := range def.Keys() {
		records = append(records, Record{Key: k, Available: current[k] && !blocked.Has(k)})
	}
	return records
}
