package gridsync

import (
	"errors"
	"fmt"

	"github.com/javiermolinar/defensegrid/internal/availability"
)

// Coordinator errors.
var (
	ErrLoadFailed      = errors.New("loading grid failed")
	ErrSyncFailed      = errors.New("synchronizing availability failed")
	ErrUnsyncedChanges = errors.New("grid has unsynchronized changes")
	ErrSyncInProgress  = errors.New("synchronization in progress")
	ErrNoGrid          = errors.New("no grid loaded")
	ErrSuperseded      = errors.New("load superseded by a newer period selection")
)

// LoadError reports why a period could not be loaded. It matches both
// ErrLoadFailed and the underlying cause with errors.Is.
type LoadError struct {
	Period availability.Period
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading grid for %s: %v", e.Period, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailed, e.Err}
}

// SyncError reports a failed push. Local edits are kept and the push can be
// retried.
type SyncError struct {
	Scope availability.Scope
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("synchronizing %s: %v", e.Scope, e.Err)
}

func (e *SyncError) Unwrap() []error {
	return []error{ErrSyncFailed, e.Err}
}
