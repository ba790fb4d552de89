// Package api defines the JSON wire format of the availability store HTTP API
// and the conversions to and from domain types.
package api

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

// Routes.
const (
	PathOfferings    = "/api/offerings"
	PathGrid         = "/api/grid"
	PathDefenses     = "/api/defenses"
	PathAvailability = "/api/availability"
)

// Query parameters.
const (
	ParamYear     = "year"
	ParamTerm     = "term"
	ParamOffering = "offering"
	ParamPhase    = "phase"
	ParamMember   = "member"
	ParamDate     = "date"
	ParamTime     = "time"
)

// HeaderRequestID carries the client generated request id.
const HeaderRequestID = "X-Request-Id"

// Offering is the wire form of availability.Offering.
type Offering struct {
	ID         string   `json:"id"`
	CourseID   string   `json:"courseId"`
	Year       int      `json:"year"`
	Term       int      `json:"term"`
	Phase      int      `json:"phase"`
	Dates      []string `json:"dates"`
	TimesOfDay []string `json:"timesOfDay"`
}

// Slot is one availability entry.
type Slot struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeOfDay string `json:"timeOfDay" validate:"required"`
	Available bool   `json:"available"`
}

// Grid is the response of the grid endpoint.
type Grid struct {
	Dates        []string `json:"dates"`
	TimesOfDay   []string `json:"timesOfDay"`
	Availability []Slot   `json:"availability"`
}

// Participant is a defense participant.
type Participant struct {
	Member string `json:"member" validate:"required"`
	Role   string `json:"role" validate:"oneof=advisor committee"`
}

// Defense is a scheduled defense. Slot is a local timestamp without zone.
type Defense struct {
	ID           int64         `json:"id"`
	OfferingID   string        `json:"offeringId"`
	Candidate    string        `json:"candidate"`
	Slot         string        `json:"slot"`
	Participants []Participant `json:"participants"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error"`
}

// PeriodQuery encodes a period as query parameters.
func PeriodQuery(p availability.Period) url.Values {
	q := url.Values{}
	q.Set(ParamYear, strconv.Itoa(p.Year))
	q.Set(ParamTerm, strconv.Itoa(p.Term))
	q.Set(ParamOffering, p.OfferingID)
	q.Set(ParamPhase, strconv.Itoa(p.Phase))
	return q
}

// ParsePeriodQuery decodes and validates a period from query parameters.
func ParsePeriodQuery(q url.Values) (availability.Period, error) {
	var (
		p   availability.Period
		err error
	)
	if p.Year, err = atoi(q, ParamYear); err != nil {
		return p, err
	}
	if p.Term, err = atoi(q, ParamTerm); err != nil {
		return p, err
	}
	if p.Phase, err = atoi(q, ParamPhase); err != nil {
		return p, err
	}
	p.OfferingID = q.Get(ParamOffering)
	if err := availability.ValidatePeriod(p); err != nil {
		return p, err
	}
	return p, nil
}

func atoi(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", availability.ErrInvalidPeriod, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", availability.ErrInvalidPeriod, name)
	}
	return v, nil
}

// FromOffering converts a domain offering.
func FromOffering(o availability.Offering) Offering {
	return Offering{
		ID:         o.ID,
		CourseID:   o.CourseID,
		Year:       o.Year,
		Term:       o.Term,
		Phase:      o.Phase,
		Dates:      dateStrings(o.Dates),
		TimesOfDay: timeStrings(o.Times),
	}
}

// FromGrid converts a domain grid.
func FromGrid(g *availability.Grid) Grid {
	return Grid{
		Dates:        dateStrings(g.Definition.Dates),
		TimesOfDay:   timeStrings(g.Definition.Times),
		Availability: FromRecords(g.Persisted),
	}
}

// FromRecords converts availability records.
func FromRecords(records []availability.Record) []Slot {
	slots := make([]Slot, 0, len(records))
	for _, r := range records {
		slots = append(slots, Slot{
			Date:      r.Key.Date.String(),
			TimeOfDay: r.Key.Time.String(),
			Available: r.Available,
		})
	}
	return slots
}

// ToRecords converts wire slots to records.
func ToRecords(slots []Slot) ([]availability.Record, error) {
	records := make([]availability.Record, 0, len(slots))
	for _, s := range slots {
		k, err := availability.ParseKey(s.Date, s.TimeOfDay)
		if err != nil {
			return nil, err
		}
		records = append(records, availability.Record{Key: k, Available: s.Available})
	}
	return records, nil
}

// FromDefense converts a domain defense. The slot is written as the wall
// clock time of its own location.
func FromDefense(d availability.Defense) Defense {
	participants := make([]Participant, 0, len(d.Participants))
	for _, p := range d.Participants {
		participants = append(participants, Participant{Member: string(p.Member), Role: string(p.Role)})
	}
	return Defense{
		ID:           d.ID,
		OfferingID:   d.Period.OfferingID,
		Candidate:    d.Candidate,
		Slot:         d.Slot.Format(dateutil.TimestampLayout),
		Participants: participants,
	}
}

// ParseSlot parses a defense slot timestamp in loc.
func ParseSlot(s string, loc *time.Location) (time.Time, error) {
	return dateutil.ParseTimestamp(s, loc)
}

func dateStrings(dates []dateutil.Date) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}

func timeStrings(times []dateutil.TimeOfDay) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.String())
	}
	return out
}
