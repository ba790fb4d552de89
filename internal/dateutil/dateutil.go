// Package dateutil provides calendar-date and time-of-day values and the
// arithmetic used to place timestamps on an availability grid.
package dateutil

import (
	"errors"
	"fmt"
	"time"
)

// Layouts used on the wire and in storage.
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	ShortTimeLayout = "15:04"
	TimestampLayout = "2006-01-02T15:04:05"
)

const secondsPerDay = 24 * 60 * 60

// Validation errors.
var (
	ErrInvalidDateFormat      = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidTimeFormat      = errors.New("time must be in HH:MM:SS or HH:MM format")
	ErrInvalidTimestampFormat = errors.New("timestamp must be in YYYY-MM-DDTHH:MM:SS format")
)

// Date is a calendar date without a time or location.
// It is comparable and safe to use as part of a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t using t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate builds a Date, normalizing out-of-range values the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return DateOf(t), nil
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and constants.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Compare(o) < 0
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// TimeOfDay is a wall-clock time expressed as seconds since midnight.
// Valid values are in [0, 86400).
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay parses "HH:MM:SS" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := TimeLayout
	if len(s) == len(ShortTimeLayout) {
		layout = ShortTimeLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()), nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }

// Second returns the second component.
func (t TimeOfDay) Second() int { return int(t) % 60 }

// String formats t as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Short formats t as HH:MM.
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// ShiftTimeOfDay moves t by a signed number of minutes, wrapping around midnight.
// Shifting by +n and then -n always returns the original value.
func ShiftTimeOfDay(t TimeOfDay, minutes int) TimeOfDay {
	s := (int(t) + minutes*60) % secondsPerDay
	if s < 0 {
		s += secondsPerDay
	}
	return TimeOfDay(s)
}

// TruncateTimeOfDay rounds t down to a multiple of granularity.
// A non-positive granularity returns t unchanged.
func TruncateTimeOfDay(t TimeOfDay, granularity time.Duration) TimeOfDay {
	step := int(granularity / time.Second)
	if step <= 0 {
		return t
	}
	return TimeOfDay(int(t) / step * step)
}

// SplitTimestamp returns the calendar date and time of day of ts using the
// location ts already carries. Sub-second precision is dropped.
func SplitTimestamp(ts time.Time) (Date, TimeOfDay) {
	return DateOf(ts), NewTimeOfDay(ts.Hour(), ts.Minute(), ts.Second())
}

// JoinTimestamp combines a date and a time of day in loc.
func JoinTimestamp(d Date, t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// ParseTimestamp parses a zone-less "YYYY-MM-DDTHH:MM:SS" (or space separated)
// timestamp in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{TimestampLayout, "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	// Fall back to RFC3339 and keep the wall clock it encodes.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestampFormat, s)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
