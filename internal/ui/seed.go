package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

func (a *App) offeringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offering",
		Short: "Manage course offerings in the local database",
	}
	cmd.AddCommand(a.offeringAddCmd())
	return cmd
}

func (a *App) offeringAddCmd() *cobra.Command {
	var (
		pf     periodFlags
		course string
		dates  []string
		times  []string
	)

	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Add a course offering with its defense grid",
		Long: `Add a course offering together with the dates and times of its grid.

Example:
  defensegrid offering add tcc-2025-1 --course=TCC --year=2025 --term=1 --phase=2 \
    --dates=2025-06-10,2025-06-11 --times=09:00,09:30,10:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf.offering = args[0]
			period, err := a.period(pf)
			if err != nil {
				return err
			}

			o := &availability.Offering{
				ID:       period.OfferingID,
				CourseID: course,
				Year:     period.Year,
				Term:     period.Term,
				Phase:    period.Phase,
			}
			if o.Dates, err = parseDates(dates); err != nil {
				return err
			}
			if o.Times, err = parseTimes(times); err != nil {
				return err
			}

			local, err := a.openLocal()
			if err != nil {
				return err
			}
			if err := local.CreateOffering(cmd.Context(), o); err != nil {
				return fmt.Errorf("creating offering: %w", err)
			}

			fmt.Fprintf(a.out, "Created offering %s (%s): %d dates x %d times\n",
				o.ID, period, len(o.Dates), len(o.Times))
			return nil
		},
	}

	pf.bind(cmd)
	cmd.Flags().StringVar(&course, "course", "", "Course id")
	cmd.Flags().StringSliceVar(&dates, "dates", nil, "Grid dates (YYYY-MM-DD, comma-separated)")
	cmd.Flags().StringSliceVar(&times, "times", nil, "Grid times of day (HH:MM, comma-separated)")

	_ = cmd.MarkFlagRequired("dates")
	_ = cmd.MarkFlagRequired("times")

	return cmd
}

func (a *App) defenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defense",
		Short: "Manage scheduled defenses in the local database",
	}
	cmd.AddCommand(a.defenseAddCmd())
	return cmd
}

func (a *App) defenseAddCmd() *cobra.Command {
	var (
		pf        periodFlags
		slot      string
		advisor   string
		committee []string
	)

	cmd := &cobra.Command{
		Use:   "add CANDIDATE",
		Short: "Schedule a defense",
		Long: `Schedule a thesis defense. Its participants can no longer offer the
slot, nor the slot right before it.

Example:
  defensegrid defense add "Ana Souza" --offering=tcc-2025-1 --slot=2025-06-10T09:30 \
    --advisor=prof-lima --committee=prof-silva,prof-reis`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := a.period(pf)
			if err != nil {
				return err
			}
			ts, err := parseSlot(slot)
			if err != nil {
				return err
			}

			d := &availability.Defense{
				Period:    period,
				Candidate: args[0],
				Slot:      ts,
			}
			if advisor != "" {
				d.Participants = append(d.Participants, availability.Participant{
					Member: availability.MemberID(advisor),
					Role:   availability.RoleAdvisor,
				})
			}
			for _, m := range committee {
				d.Participants = append(d.Participants, availability.Participant{
					Member: availability.MemberID(strings.TrimSpace(m)),
					Role:   availability.RoleCommittee,
				})
			}

			local, err := a.openLocal()
			if err != nil {
				return err
			}
			if err := local.CreateDefense(cmd.Context(), d); err != nil {
				return fmt.Errorf("creating defense: %w", err)
			}

			fmt.Fprintf(a.out, "Scheduled defense #%d: %s at %s with %d participants\n",
				d.ID, d.Candidate, d.Slot.Format("2006-01-02 15:04"), len(d.Participants))
			return nil
		},
	}

	pf.bind(cmd)
	cmd.Flags().StringVar(&slot, "slot", "", "Defense slot (YYYY-MM-DDTHH:MM[:SS], local time)")
	cmd.Flags().StringVar(&advisor, "advisor", "", "Advisor member id")
	cmd.Flags().StringSliceVar(&committee, "committee", nil, "Committee member ids (comma-separated)")

	_ = cmd.MarkFlagRequired("slot")

	return cmd
}

func parseDates(values []string) ([]dateutil.Date, error) {
	dates := make([]dateutil.Date, 0, len(values))
	for _, v := range values {
		d, err := dateutil.ParseDate(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func parseTimes(values []string) ([]dateutil.TimeOfDay, error) {
	times := make([]dateutil.TimeOfDay, 0, len(values))
	for _, v := range values {
		t, err := dateutil.ParseTimeOfDay(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, nil
}

// parseSlot accepts a local timestamp with or without seconds.
func parseSlot(s string) (time.Time, error) {
	if ts, err := time.ParseInLocation("2006-01-02T15:04", s, time.Local); err == nil {
		return ts, nil
	}
	return dateutil.ParseTimestamp(s, time.Local)
}
