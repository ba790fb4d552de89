package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) conflictsCmd() *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List the slots you can not offer",
		Long: `List the slots blocked by scheduled defenses you take part in.

A slot is blocked when you already have a defense in it, or when it is
the slot right before one of your defenses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := a.period(pf)
			if err != nil {
				return err
			}
			coord, err := a.loadCoordinator(cmd.Context(), period)
			if err != nil {
				return err
			}

			def := coord.Grid()
			blocked := coord.BlockedMap()

			count := 0
			for _, k := range blocked.Keys() {
				if !def.Contains(k) {
					continue
				}
				count++
				fmt.Fprintf(a.out, "  %s %s  %s\n", k.Date, k.Time.Short(), FormatReason(blocked[k]))
			}
			if count == 0 {
				fmt.Fprintln(a.out, "No conflicts in this grid.")
				return nil
			}
			fmt.Fprintf(a.out, "\n%s\n", colorMuted.Sprint(fmt.Sprintf("%d blocked slots", count)))
			return nil
		},
	}

	pf.bind(cmd)
	return cmd
}
