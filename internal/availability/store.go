package availability

import "context"

// Store is the remote source of truth for offerings, scheduled defenses and
// persisted availability.
type Store interface {
	// FetchOfferings returns the offerings of a period. The one whose ID matches
	// the period's OfferingID defines the grid.
	FetchOfferings(ctx context.Context, period Period) ([]Offering, error)

	// FetchGrid returns the grid shape and the member's persisted availability
	// for an offering.
	FetchGrid(ctx context.Context, member MemberID, offering Offering) (*Grid, error)

	// FetchScheduledDefenses returns every defense already scheduled in the period.
	FetchScheduledDefenses(ctx context.Context, period Period) ([]Defense, error)

	// ReplaceAvailability replaces every persisted record of the scope with
	// records. It is idempotent.
	ReplaceAvailability(ctx context.Context, scope Scope, records []Record) error

	// DeleteAvailability removes the persisted record of one slot, if any.
	DeleteAvailability(ctx context.Context, scope Scope, key Key) error
}
