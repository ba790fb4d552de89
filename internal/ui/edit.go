package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/defensegrid/internal/gridsync"
	"github.com/javiermolinar/defensegrid/internal/tui"
)

func (a *App) editCmd() *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your grid interactively",
		Long: `Open the interactive grid editor.

Edits stay local until synchronized. Leaving the grid with pending edits
asks whether to synchronize or discard them.

With --loglevel=debug the session log is written to a temp file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := a.period(pf)
			if err != nil {
				return err
			}
			member, err := a.memberID()
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}

			// The alternate screen owns the terminal while the editor runs.
			restore, err := redirectLog()
			if err != nil {
				return err
			}
			defer restore()

			coord := gridsync.New(store, member, gridsync.WithLogger(Log))
			return tui.Run(cmd.Context(), coord, period)
		},
	}

	pf.bind(cmd)
	return cmd
}

// redirectLog sends Log to a temp file at debug level and discards it
// otherwise. The returned func restores stderr.
func redirectLog() (func(), error) {
	if !Log.IsLevelEnabled(logrus.DebugLevel) {
		Log.SetOutput(io.Discard)
		return func() { Log.SetOutput(os.Stderr) }, nil
	}

	path := filepath.Join(os.TempDir(), "defensegrid-edit.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	Log.SetOutput(f)
	fmt.Fprintf(os.Stderr, "Debug log: %s\n", path)
	return func() {
		Log.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}
