// Package availability defines the domain types of the defense availability
// grid: periods, offerings, scheduled defenses, slot keys and availability maps,
// together with the pure operations that derive conflicts, materialize grids
// and diff edits against a baseline.
package availability

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

// Domain errors.
var (
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrMalformedGrid     = errors.New("malformed grid definition")
	ErrOfferingNotFound  = errors.New("offering not found for period")
	ErrSlotNotInGrid     = errors.New("slot is not part of the grid")
	ErrInvalidRole       = errors.New("role must be 'advisor' or 'committee'")
	ErrEmptyParticipants = errors.New("defense must have at least one participant")
)

// MemberID identifies a committee member (advisor or examiner).
type MemberID string

// Role is the part a participant plays in a defense.
type Role string

const (
	RoleAdvisor   Role = "advisor"
	RoleCommittee Role = "committee"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleAdvisor, RoleCommittee:
		return true
	default:
		return false
	}
}

// Period identifies one availability grid instance.
type Period struct {
	Year       int    `json:"year" validate:"min=1900,max=9999"`
	Term       int    `json:"term" validate:"oneof=1 2"`
	OfferingID string `json:"offeringId" validate:"required"`
	Phase      int    `json:"phase" validate:"oneof=1 2"`
}

func (p Period) String() string {
	return fmt.Sprintf("%d/%d %s phase %d", p.Year, p.Term, p.OfferingID, p.Phase)
}

// Scope is the unit of a full-replace synchronization: one member's
// availability for one period.
type Scope struct {
	Period Period
	Member MemberID
}

func (s Scope) String() string {
	return fmt.Sprintf("%s member %s", s.Period, s.Member)
}

// Offering is a course offering for which a defense grid exists.
type Offering struct {
	ID       string
	CourseID string
	Year     int
	Term     int
	Phase    int
	Dates    []dateutil.Date
	Times    []dateutil.TimeOfDay
}

// Matches reports whether the offering is the one a period refers to.
func (o Offering) Matches(p Period) bool {
	return o.ID == p.OfferingID && o.Year == p.Year && o.Term == p.Term && o.Phase == p.Phase
}

// Period returns the period this offering belongs to.
func (o Offering) Period() Period {
	return Period{Year: o.Year, Term: o.Term, OfferingID: o.ID, Phase: o.Phase}
}

// Definition returns the grid shape advertised by the offering.
func (o Offering) Definition() GridDefinition {
	return GridDefinition{Dates: slices.Clone(o.Dates), Times: slices.Clone(o.Times)}
}

// Participant is a member taking part in a defense.
type Participant struct {
	Member MemberID
	Role   Role
}

// Defense is an already scheduled thesis defense.
type Defense struct {
	ID           int64
	Period       Period
	Candidate    string
	Slot         time.Time
	Participants []Participant
}

// HasParticipant reports whether member takes part in the defense in any role.
func (d Defense) HasParticipant(member MemberID) bool {
	for _, p := range d.Participants {
		if p.Member == member {
			return true
		}
	}
	return false
}

// Key identifies one grid cell. It is a comparable value type, so it can be
// used directly as a map key.
type Key struct {
	Date dateutil.Date
	Time dateutil.TimeOfDay
}

// NewKey builds a Key.
func NewKey(date dateutil.Date, tod dateutil.TimeOfDay) Key {
	return Key{Date: date, Time: tod}
}

// KeyOf places a timestamp on the grid.
func KeyOf(ts time.Time) Key {
	d, t := dateutil.SplitTimestamp(ts)
	return Key{Date: d, Time: t}
}

// ParseKey parses a date (YYYY-MM-DD) and a time of day (HH:MM[:SS]).
func ParseKey(date, tod string) (Key, error) {
	d, err := dateutil.ParseDate(date)
	if err != nil {
		return Key{}, err
	}
	t, err := dateutil.ParseTimeOfDay(tod)
	if err != nil {
		return Key{}, err
	}
	return Key{Date: d, Time: t}, nil
}

// Shift returns the key on the same date with its time moved by minutes.
func (k Key) Shift(minutes int) Key {
	return Key{Date: k.Date, Time: dateutil.ShiftTimeOfDay(k.Time, minutes)}
}

// Compare orders keys by date, then time.
func (k Key) Compare(o Key) int {
	if c := k.Date.Compare(o.Date); c != 0 {
		return c
	}
	return cmp.Compare(k.Time, o.Time)
}

func (k Key) String() string {
	return k.Date.String() + " " + k.Time.String()
}

// Record is one persisted availability entry.
type Record struct {
	Key       Key
	Available bool
}

// Map holds the availability value of each grid cell.
type Map map[Key]bool

// Clone returns a deep copy of m. A nil map clones to an empty map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	maps.Copy(out, m)
	return out
}

// Available returns the number of cells marked available.
func (m Map) Available() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Reason explains why a slot is blocked. Both reasons are equally blocking.
type Reason string

const (
	ReasonBooked              Reason = "booked"
	ReasonAdjacentUnavailable Reason = "adjacent-unavailable"
)

// Blocked maps the slots a member cannot offer to the reason why.
// A Blocked value is never mutated after it has been derived.
type Blocked map[Key]Reason

// Has reports whether k is blocked.
func (b Blocked) Has(k Key) bool {
	_, ok := b[k]
	return ok
}

// Keys returns the blocked keys in grid order.
func (b Blocked) Keys() []Key {
	keys := slices.Collect(maps.Keys(b))
	slices.SortFunc(keys, Key.Compare)
	return keys
}

// Grid is what the store returns for one member and offering.
type Grid struct {
	Definition GridDefinition
	Persisted  []Record
}
