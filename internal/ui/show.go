package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/gridsync"
)

func (a *App) showCmd() *cobra.Command {
	var pf periodFlags
	var noColor bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show your availability grid",
		Long: `Display the availability grid of the selected period.

Each row is a time of day and each column a defense date. Blocked slots
are marked and can not be offered.

Example:
  defensegrid show --offering=tcc-2025-1 --phase=2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}

			period, err := a.period(pf)
			if err != nil {
				return err
			}
			coord, err := a.loadCoordinator(cmd.Context(), period)
			if err != nil {
				return err
			}

			a.printCoordinator(coord)
			return nil
		},
	}

	pf.bind(cmd)
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

// printCoordinator prints the grid held by coord with a summary.
func (a *App) printCoordinator(coord *gridsync.Coordinator) {
	def := coord.Grid()
	current := coord.CurrentMap()
	blocked := coord.BlockedMap()

	fmt.Fprintf(a.out, "=== %s | member %s ===\n\n", colorHeader.Sprint(coord.Period().String()), coord.Member())
	if def.Size() == 0 {
		fmt.Fprintln(a.out, "The grid has no dates or times yet.")
		return
	}

	PrintGrid(a.out, GridView{
		Definition: def,
		Current:    current,
		Blocked:    blocked,
		Changed:    coord.ChangedKeys(),
	})
	fmt.Fprintln(a.out)
	PrintLegend(a.out)

	offered, open := offeredSlots(def, current, blocked)
	fmt.Fprintf(a.out, "Offered: %s\n", AvailabilityBar(offered, open, 20))
	if n := coord.PendingChangeCount(); n > 0 {
		fmt.Fprintf(a.out, "%s\n", colorPending.Sprint(fmt.Sprintf("%d changes not synchronized", n)))
	}
}

// offeredSlots counts the available slots and the slots that may be offered.
func offeredSlots(def availability.GridDefinition, current availability.Map, blocked availability.Blocked) (offered, open int) {
	resolved := availability.Resolve(current, blocked)
	for _, k := range def.Keys() {
		if blocked.Has(k) {
			continue
		}
		open++
		if resolved[k] {
			offered++
		}
	}
	return offered, open
}
