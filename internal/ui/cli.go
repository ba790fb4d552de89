// Package ui implements the defensegrid command line.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/defensegrid/internal/availability"
	"github.com/javiermolinar/defensegrid/internal/config"
	"github.com/javiermolinar/defensegrid/internal/db"
	"github.com/javiermolinar/defensegrid/internal/gridsync"
	"github.com/javiermolinar/defensegrid/internal/remote"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

var (
	errNoMember  = errors.New("no member given: use --member or set [member] id in the config")
	errLocalOnly = errors.New("this command needs the local database; unset [remote] base_url")
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	root   *cobra.Command
	out    io.Writer

	configPath string
	logLevel   string
	member     string

	store availability.Store
	local *db.SQLite
}

// NewApp creates a new CLI application with the given config. The store is
// opened on first use.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg, out: os.Stdout}

	a.root = &cobra.Command{
		Use:   "defensegrid",
		Short: "Thesis defense availability grid",
		Long: `defensegrid keeps a committee member's availability grid for thesis
defenses in sync with the shared store.

Slots already taken by a scheduled defense, and the slot right before
each of them, are blocked and can never be offered.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	a.root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.config/defensegrid/config.toml)")
	a.root.PersistentFlags().StringVarP(&a.logLevel, "loglevel", "l", "", "Log level: debug, info, warn, error (default from config)")
	a.root.PersistentFlags().StringVarP(&a.member, "member", "m", "", "Committee member id (default from config)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.setCmd())
	a.root.AddCommand(a.columnCmd())
	a.root.AddCommand(a.conflictsCmd())
	a.root.AddCommand(a.editCmd())
	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.offeringCmd())
	a.root.AddCommand(a.defenseCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "defensegrid %s (commit: %s)\n", Version, Commit)
		},
	}
}

// setup applies the global flags before any command runs.
func (a *App) setup(_ *cobra.Command, _ []string) error {
	if a.configPath != "" {
		cfg, err := config.LoadFrom(a.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a.config = cfg
	}

	level := a.config.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	if err := SetLogLevel(level); err != nil {
		return err
	}

	if a.config.UI.NoColor {
		DisableColor()
	}
	return nil
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the store if one was opened.
func (a *App) Close() error {
	if a.local != nil {
		return a.local.Close()
	}
	return nil
}

// openStore returns the configured store: the remote API when a base url is
// set, the local database otherwise.
func (a *App) openStore() (availability.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if a.config.UsesRemote() {
		client, err := remote.New(remote.Config{
			BaseURL:  a.config.Remote.BaseURL,
			RetryMax: a.config.Remote.RetryMax,
			Timeout:  a.config.RemoteTimeout(),
			Logger:   Log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating remote client: %w", err)
		}
		Log.Debugf("using remote store at %s", a.config.Remote.BaseURL)
		a.store = client
		return a.store, nil
	}

	local, err := a.openLocal()
	if err != nil {
		return nil, err
	}
	a.store = local
	return a.store, nil
}

// openLocal returns the local database, creating its directory if needed.
func (a *App) openLocal() (*db.SQLite, error) {
	if a.local != nil {
		return a.local, nil
	}
	if a.config.UsesRemote() {
		return nil, errLocalOnly
	}
	if err := ensureDir(a.config.Storage.DBPath); err != nil {
		return nil, err
	}
	local, err := db.New(a.config.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	Log.Debugf("using database %s", a.config.Storage.DBPath)
	a.local = local
	return a.local, nil
}

func (a *App) memberID() (availability.MemberID, error) {
	m := a.member
	if m == "" {
		m = a.config.Member.ID
	}
	if m == "" {
		return "", errNoMember
	}
	return availability.MemberID(m), nil
}

// loadCoordinator opens the store and loads the member's grid for period.
func (a *App) loadCoordinator(ctx context.Context, period availability.Period) (*gridsync.Coordinator, error) {
	member, err := a.memberID()
	if err != nil {
		return nil, err
	}
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	coord := gridsync.New(store, member, gridsync.WithLogger(Log))
	if err := coord.SelectPeriod(ctx, period); err != nil {
		return nil, err
	}
	return coord, nil
}

// periodFlags are the flags selecting a period. Zero values fall back to
// the config.
type periodFlags struct {
	year     int
	term     int
	offering string
	phase    int
}

func (pf *periodFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&pf.year, "year", 0, "Academic year (default from config)")
	cmd.Flags().IntVar(&pf.term, "term", 0, "Term: 1 or 2 (default from config)")
	cmd.Flags().StringVar(&pf.offering, "offering", "", "Course offering id (default from config)")
	cmd.Flags().IntVar(&pf.phase, "phase", 0, "Defense phase: 1 or 2 (default from config)")
}

func (a *App) period(pf periodFlags) (availability.Period, error) {
	p := a.config.DefaultPeriod()
	if pf.year != 0 {
		p.Year = pf.year
	}
	if pf.term != 0 {
		p.Term = pf.term
	}
	if pf.offering != "" {
		p.OfferingID = pf.offering
	}
	if pf.phase != 0 {
		p.Phase = pf.phase
	}
	if err := availability.ValidatePeriod(p); err != nil {
		return p, err
	}
	return p, nil
}
