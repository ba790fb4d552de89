package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
	"github.com/javiermolinar/defensegrid/internal/gridsync"
)

func (a *App) setCmd() *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "set DATE TIME on|off",
		Short: "Offer or withdraw one slot",
		Long: `Set one slot of your grid and synchronize it.

Blocked slots are left unchanged.

Example:
  defensegrid set 2025-06-10 09:30 on`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := availability.ParseKey(args[0], args[1])
			if err != nil {
				return err
			}
			value, err := parseOnOff(args[2])
			if err != nil {
				return err
			}

			period, err := a.period(pf)
			if err != nil {
				return err
			}
			coord, err := a.loadCoordinator(cmd.Context(), period)
			if err != nil {
				return err
			}

			if err := coord.ToggleSlot(key, value); err != nil {
				return err
			}
			if reason, ok := coord.BlockedMap()[key]; ok {
				fmt.Fprintf(a.out, "%s is blocked (%s), nothing changed.\n", key, FormatReason(reason))
				return nil
			}
			return a.synchronize(cmd.Context(), coord)
		},
	}

	pf.bind(cmd)
	return cmd
}

func (a *App) columnCmd() *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "column DATE",
		Short: "Offer or withdraw a whole date",
		Long: `Toggle every open slot of a date and synchronize.

If all open slots of the date are offered they are withdrawn, otherwise
all of them are offered. Blocked slots are left unchanged.

Example:
  defensegrid column 2025-06-10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateutil.ParseDate(args[0])
			if err != nil {
				return err
			}

			period, err := a.period(pf)
			if err != nil {
				return err
			}
			coord, err := a.loadCoordinator(cmd.Context(), period)
			if err != nil {
				return err
			}

			if err := coord.ToggleColumn(date); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %s\n", date, FormatColumnState(coord.ColumnState(date)))
			return a.synchronize(cmd.Context(), coord)
		},
	}

	pf.bind(cmd)
	return cmd
}

// synchronize pushes pending edits and reports the outcome.
func (a *App) synchronize(ctx context.Context, coord *gridsync.Coordinator) error {
	n := coord.PendingChangeCount()
	if n == 0 {
		fmt.Fprintln(a.out, "Nothing to synchronize.")
		return nil
	}
	if err := coord.Synchronize(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Synchronized %d changes.\n", n)
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("value must be on or off, got %q", s)
	}
}
