package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxysheet/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The config file is loaded in PersistentPreRunE, after flag parsing, so
// --config takes effect for every subcommand. Commands that do not need
// it (completion, help) still load it; a missing default file is fine.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Proxysheet lays out trading-card proxies on printable duplex sheets",
		Long: `Proxysheet turns a decklist into print-ready JPEG sheets: up to 18 cards per
page, with card backs mirrored so that duplex printing lines fronts and backs up.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/proxysheet/config.toml)")

	// Register all subcommands
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
