package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxysheet/internal/server"
	"github.com/matzehuels/proxysheet/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the sheet pipeline over HTTP.

  GET  /healthz
  POST /api/v1/decklist   parse decklist text
  POST /api/v1/sheets     render a deck into a zip of sheets

Custom images must be sent inline as data URLs. The cache backend comes from
the [cache] config section; set redis_url to share it between instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			backend, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(backend, c.keyer(), c.Logger)
			ropts := c.resolverOptions(false, "")
			ropts.InlineOnly = true
			runner.Resolver = pipeline.NewResolver(backend, runner.Keyer, ropts)
			defer runner.Close()

			c.Logger.Info("cache", "backend", c.Config.Cache.ResolvedBackend())
			srv := server.New(runner, server.Options{Config: c.Config, Logger: c.Logger})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")

	return cmd
}
