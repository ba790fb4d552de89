package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/defensegrid/internal/config"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  defensegrid config`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			return a.runConfigInteractive(cmd.InOrStdin(), path)
		},
	}
}

func (a *App) runConfigInteractive(in io.Reader, configPath string) error {
	fmt.Fprintf(a.out, "Config file: %s\n\n", configPath)

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if file exists
	_, fileErr := os.Stat(configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(a.out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(a.out, "Created %s\n\n", configPath)
	}

	printConfig(a.out, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(a.out, reader, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Member.ID = promptValue(a.out, reader, "Member id", cfg.Member.ID)
	cfg.Period.Year = promptInt(a.out, reader, "Year", cfg.Period.Year)
	cfg.Period.Term = promptInt(a.out, reader, "Term (1 or 2)", cfg.Period.Term)
	cfg.Period.OfferingID = promptValue(a.out, reader, "Offering id", cfg.Period.OfferingID)
	cfg.Period.Phase = promptInt(a.out, reader, "Phase (1 or 2)", cfg.Period.Phase)
	cfg.Storage.DBPath = promptValue(a.out, reader, "Database path", cfg.Storage.DBPath)
	cfg.Remote.BaseURL = promptValue(a.out, reader, "Remote base URL (empty for local database)", cfg.Remote.BaseURL)
	cfg.Log.Level = promptValue(a.out, reader, "Log level", cfg.Log.Level)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(a.out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[member]")
	fmt.Fprintf(w, "  id              = %s\n", cfg.Member.ID)
	fmt.Fprintln(w, "\n[period]")
	fmt.Fprintf(w, "  year            = %d\n", cfg.Period.Year)
	fmt.Fprintf(w, "  term            = %d\n", cfg.Period.Term)
	fmt.Fprintf(w, "  offering_id     = %s\n", cfg.Period.OfferingID)
	fmt.Fprintf(w, "  phase           = %d\n", cfg.Period.Phase)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path         = %s\n", cfg.Storage.DBPath)
	if cfg.UsesRemote() {
		fmt.Fprintln(w, "\n[remote]")
		fmt.Fprintf(w, "  base_url        = %s\n", cfg.Remote.BaseURL)
		fmt.Fprintf(w, "  retry_max       = %d\n", cfg.Remote.RetryMax)
		fmt.Fprintf(w, "  timeout_seconds = %d\n", cfg.Remote.TimeoutSeconds)
	}
	fmt.Fprintln(w, "\n[server]")
	fmt.Fprintf(w, "  listen          = %s\n", cfg.Server.Listen)
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level           = %s\n", cfg.Log.Level)
}

func promptYesNo(w io.Writer, reader *bufio.Reader, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(w io.Writer, reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Fprintf(w, "  %s: ", label)
	} else {
		fmt.Fprintf(w, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(w io.Writer, reader *bufio.Reader, label string, current int) int {
	for {
		value := promptValue(w, reader, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(w, "  Invalid number %q\n", value)
	}
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	if path == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}
