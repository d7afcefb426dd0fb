package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/scalebar/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the queue and previews over HTTP",
		Long: `Start the HTTP API. The server works on the same saved queue and settings
as the other commands, so "scalebar list" shows tasks added over HTTP.`,
		Example: `  scalebar serve --addr :8080
  curl localhost:8080/api/tasks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, store, err := c.loadSettings()
			if err != nil {
				return err
			}
			sessions, err := c.sessionStore()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv, err := server.New(ctx, runner, store, sessions, c.Logger)
			if err != nil {
				return err
			}
			printInfo("Serving on %s", StyleLink.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
