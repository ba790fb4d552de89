package ui

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/defensegrid/internal/server"
)

func (a *App) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local database over HTTP",
		Long: `Start the availability API backed by the local database.

Other members point [remote] base_url at this server to share one store.

Example:
  defensegrid serve --listen=:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openLocal()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = a.config.Server.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(store, Log).Start(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config)")
	return cmd
}
