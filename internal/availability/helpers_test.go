package availability

import (
	"testing"
	"time"

	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

// key builds a Key from "YYYY-MM-DD" and "HH:MM:SS", panicking on bad input.
func key(date, tod string) Key {
	return NewKey(dateutil.MustParseDate(date), dateutil.MustParseTimeOfDay(tod))
}

// scenarioGrid is the two-date, three-time grid used throughout the tests.
func scenarioGrid() GridDefinition {
	return GridDefinition{
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

// defenseAt builds a defense at a local timestamp with the given participants.
func defenseAt(t *testing.T, ts string, participants ...Participant) Defense {
	t.Helper()
	slot, err := dateutil.ParseTimestamp(ts, time.Local)
	if err != nil {
		t.Fatalf("parsing %q: %v", ts, err)
	}
	return Defense{Candidate: "candidate", Slot: slot, Participants: participants}
}
