package availability

import (
	"slices"

	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

// ColumnState summarizes the selection of one date's eligible slots.
type ColumnState struct {
	Complete bool // at least one eligible slot and all of them available
	Partial  bool // some, but not all, eligible slots available
}

// CountChanges returns the number of keys whose value differs between current
// and baseline. A key present in only one map counts as changed from or to the
// implicit false default.
func CountChanges(current, baseline Map) int {
	return len(ChangedKeys(current, baseline))
}

// ChangedKeys returns the keys that differ between current and baseline, in
// grid order.
func ChangedKeys(current, baseline Map) []Key {
	var changed []Key
	for k, v := range current {
		if b, ok := baseline[k]; !ok || b != v {
			changed = append(changed, k)
		}
	}
	for k := range baseline {
		if _, ok := current[k]; !ok {
			changed = append(changed, k)
		}
	}
	slices.SortFunc(changed, Key.Compare)
	return changed
}

// ColumnStateOf reports whether the eligible (non-blocked) slots of date are
// completely or partially selected.
func ColumnStateOf(date dateutil.Date, def GridDefinition, current Map, blocked Blocked) ColumnState {
	eligible, selected := 0, 0
	for _, k := range def.Column(date) {
		if blocked.Has(k) {
			continue
		}
		eligible++
		if current[k] {
			selected++
		}
	}
	return ColumnState{
		Complete: eligible > 0 && selected == eligible,
		Partial:  selected > 0 && selected < eligible,
	}
}

// ToggleColumn selects every eligible slot of date, or clears them all when
// the column is already complete. Blocked slots are left untouched. The input
// map is not modified.
func ToggleColumn(date dateutil.Date, def GridDefinition, current Map, blocked Blocked) Map {
	value := !ColumnStateOf(date, def, current, blocked).Complete
	next := current.Clone()
	for _, k := range def.Column(date) {
		if blocked.Has(k) {
			continue
		}
		next[k] = value
	}
	return next
}

// ToggleSlot sets one slot to value. Blocked slots cannot change: current is
// returned as is. Otherwise a modified copy is returned.
func ToggleSlot(key Key, value bool, blocked Blocked, current Map) Map {
	if blocked.Has(key) {
		return current
	}
	next := current.Clone()
	next[key] = value
	return next
}
