package gridsync

import (
	"context"
	"fmt"

	"github.com/javiermolinar/defensegrid/internal/availability"
)

// NavigationChoice is the user's answer to a guarded navigation prompt.
type NavigationChoice int

const (
	NavCancel NavigationChoice = iota
	NavDiscard
	NavSync
)

func (n NavigationChoice) String() string {
	switch n {
	case NavCancel:
		return "cancel"
	case NavDiscard:
		return "discard"
	case NavSync:
		return "sync"
	default:
		return fmt.Sprintf("choice(%d)", int(n))
	}
}

// NavigationRequest tells the caller whether leaving the grid needs
// confirmation.
type NavigationRequest struct {
	MustConfirm  bool
	PendingCount int
}

// RequestNavigation is called before any action that would drop the grid.
// Confirmation is required only while there are unsynchronized edits.
func (c *Coordinator) RequestNavigation() NavigationRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateDirty {
		return NavigationRequest{}
	}
	return NavigationRequest{
		MustConfirm:  true,
		PendingCount: availability.CountChanges(c.current, c.baseline),
	}
}

// ResolveNavigation applies the user's choice and reports whether the
// navigation may proceed.
//
//	NavDiscard  drop local edits, proceed
//	NavSync     push, proceed only on success
//	NavCancel   keep editing
func (c *Coordinator) ResolveNavigation(ctx context.Context, choice NavigationChoice) (bool, error) {
	switch choice {
	case NavCancel:
		return false, nil
	case NavDiscard:
		return c.discard()
	case NavSync:
		if err := c.Synchronize(ctx); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown navigation choice %s", choice)
	}
}

func (c *Coordinator) discard() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateSyncing:
		return false, ErrSyncInProgress
	case StateDirty:
		n := availability.CountChanges(c.current, c.baseline)
		c.current = c.baseline.Clone()
		c.state = StateReady
		c.log.Infof("discarded %d unsynchronized changes for %s", n, c.period)
	}
	return true, nil
}
