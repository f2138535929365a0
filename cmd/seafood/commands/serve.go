package commands

import (
	"context"

	"github.com/spf13/cobra"

	"seafoodpulse/internal/app"
	"seafoodpulse/internal/config"
)

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the HTTP API and the WebSocket event stream until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			return a.Run(ctx)
		}, func(cfg *config.Config) {
			if servePort > 0 {
				cfg.Server.Port = servePort
			}
		})
	},
}
