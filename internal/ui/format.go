package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/dateutil"
)

// Cell marks used by the grid printer.
const (
	markAvailable = "●"
	markFree      = "·"
	markPending   = "*"
)

const (
	timeColWidth = 7 // "09:30  "
	cellWidth    = 7 // "Jun 10 "
)

// GridView is everything needed to print a grid.
type GridView struct {
	Definition availability.GridDefinition
	Current    availability.Map
	Blocked    availability.Blocked
	Changed    []availability.Key
	Width      int // terminal width (0 = detect)
}

// PrintGrid writes the grid as a table: one row per time of day, one column
// per date. Dates that do not fit the width are printed in further blocks.
func PrintGrid(w io.Writer, v GridView) {
	width := v.Width
	if width <= 0 {
		width = termWidth()
	}
	perBlock := max(1, (width-timeColWidth)/cellWidth)

	changed := make(map[availability.Key]bool, len(v.Changed))
	for _, k := range v.Changed {
		changed[k] = true
	}

	dates := v.Definition.Dates
	for start := 0; start < len(dates); start += perBlock {
		end := min(start+perBlock, len(dates))
		if start > 0 {
			fmt.Fprintln(w)
		}
		printBlock(w, v, dates[start:end], changed)
	}
}

func printBlock(w io.Writer, v GridView, dates []dateutil.Date, changed map[availability.Key]bool) {
	var header strings.Builder
	header.WriteString(strings.Repeat(" ", timeColWidth))
	for _, d := range dates {
		fmt.Fprintf(&header, "%-*s", cellWidth, d.In(time.UTC).Format("Jan 02"))
	}
	fmt.Fprintln(w, colorHeader.Sprint(strings.TrimRight(header.String(), " ")))

	for _, tod := range v.Definition.Times {
		var line strings.Builder
		fmt.Fprintf(&line, "%-*s", timeColWidth, tod.Short())
		for _, d := range dates {
			k := availability.NewKey(d, tod)
			line.WriteString(cell(k, v.Current, v.Blocked, changed[k]))
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}

// cell renders one grid cell padded to cellWidth. Padding is computed on
// the plain mark so color codes do not skew the columns.
func cell(k availability.Key, current availability.Map, blocked availability.Blocked, pending bool) string {
	mark, colored := cellMark(k, current, blocked)
	plain := "  " + mark
	out := "  " + colored
	if pending {
		plain += markPending
		out += colorPending.Sprint(markPending)
	}
	return out + strings.Repeat(" ", max(0, cellWidth-len([]rune(plain))))
}

func cellMark(k availability.Key, current availability.Map, blocked availability.Blocked) (plain, colored string) {
	if style, ok := blockedStyles[blocked[k]]; ok {
		return style.mark, style.color.Sprint(style.mark)
	}
	if current[k] {
		return markAvailable, colorOffered.Sprint(markAvailable)
	}
	return markFree, colorMuted.Sprint(markFree)
}

// PrintLegend writes the meaning of the cell marks.
func PrintLegend(w io.Writer) {
	booked := blockedStyles[availability.ReasonBooked]
	adjacent := blockedStyles[availability.ReasonAdjacentUnavailable]
	fmt.Fprintf(w, "%s available  %s not offered  %s booked  %s before a defense  %s not synchronized\n",
		colorOffered.Sprint(markAvailable),
		colorMuted.Sprint(markFree),
		booked.color.Sprint(booked.mark),
		adjacent.color.Sprint(adjacent.mark),
		colorPending.Sprint(markPending),
	)
}

// AvailabilityBar creates a bar showing the share of offered slots.
func AvailabilityBar(offered, total, width int) string {
	if total == 0 {
		return "[" + strings.Repeat("░", width) + "] (0 slots)"
	}

	pct := (offered * 100) / total
	filled := (offered * width) / total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", colorOffered.Sprint(bar), fmt.Sprintf("%d/%d slots (%d%%)", offered, total, pct))
}

// FormatColumnState describes the selection state of a date column.
func FormatColumnState(cs availability.ColumnState) string {
	switch {
	case cs.Complete:
		return colorOffered.Sprint("all open slots offered")
	case cs.Partial:
		return "partially offered"
	default:
		return colorMuted.Sprint("nothing offered")
	}
}

// FormatReason returns a human readable blocked reason.
func FormatReason(r availability.Reason) string {
	style, ok := blockedStyles[r]
	if !ok {
		return string(r)
	}
	return style.color.Sprint(style.label)
}
