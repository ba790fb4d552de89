package integration

import (
	"context"
	"testing"
	"time"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/gridsync"
)

// Defense slots travel as zone-less wall clock timestamps, so the blocked
// cells must not move with the client's location.
func TestConflictsIgnoreClientLocation(t *testing.T) {
	locations := []*time.Location{
		time.UTC,
		time.FixedZone("BRT", -3*60*60),
		time.FixedZone("NZST", 12*60*60),
	}

	repo := openRepo(t)
	createOffering(t, repo, phase1)
	createDefense(t, repo, phase1, "2025-06-10T10:00:00",
		availability.Participant{Member: member, Role: availability.RoleCommittee},
	)

	for _, loc := range locations {
		t.Run(loc.String(), func(t *testing.T) {
			coord := gridsync.New(openRemote(t, repo, loc), member)
			if err := coord.SelectPeriod(context.Background(), phase1); err != nil {
				t.Fatalf("SelectPeriod failed: %v", err)
			}

			// 10:30 is outside the grid but still derived.
			blocked := coord.BlockedMap()
			if len(blocked) != 3 {
				t.Fatalf("expected 3 blocked slots, got %v", blocked)
			}
			for _, tod := range []string{"10:00", "10:30"} {
				if blocked[key("2025-06-10", tod)] != availability.ReasonBooked {
					t.Errorf("%s = %q, want booked", tod, blocked[key("2025-06-10", tod)])
				}
			}
			if blocked[key("2025-06-10", "09:30")] != availability.ReasonAdjacentUnavailable {
				t.Errorf("09:30 = %q, want adjacent-unavailable", blocked[key("2025-06-10", "09:30")])
			}
		})
	}
}

func TestDefenseAtMidnightWrapsWithinDate(t *testing.T) {
	repo := openRepo(t)
	createOffering(t, repo, phase1)
	createDefense(t, repo, phase1, "2025-06-11T00:00:00",
		availability.Participant{Member: member, Role: availability.RoleAdvisor},
	)

	coord := gridsync.New(openRemote(t, repo, time.UTC), member)
	if err := coord.SelectPeriod(context.Background(), phase1); err != nil {
		t.Fatalf("SelectPeriod failed: %v", err)
	}

	// The buffer stays on the defense's date and never reaches 2025-06-10.
	for k := range coord.BlockedMap() {
		if k.Date.String() != "2025-06-11" {
			t.Errorf("unexpected blocked slot %s", k)
		}
	}
	for _, k := range coord.Grid().Column(key("2025-06-10", "09:00").Date) {
		if coord.BlockedMap().Has(k) {
			t.Errorf("slot %s should be open", k)
		}
	}
}
