package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/proxysheet/pkg/deck"
	"github.com/matzehuels/proxysheet/pkg/pipeline"
	"github.com/matzehuels/proxysheet/pkg/source/local"
)

// maxPrintedDiagnostics bounds the warnings printed after an export; the
// full list is in diagnostics.json.
const maxPrintedDiagnostics = 10

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	exportFlags
	output  string // output directory
	noCache bool   // disable the card and image cache
	refresh bool   // bypass cached catalog data
	watch   bool   // re-export whenever the deck file changes
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <deck>",
		Short: "Render a deck into printable sheets",
		Long: `Render a deck into duplex JPEG sheets (Sheet1_Front.jpg, Sheet1_Back.jpg, ...).

The deck is a plain decklist, or a .toml/.json deck file with custom images.
Print the sheets double-sided, flipping on the long edge.

Examples:
  proxysheet export deck.txt
  proxysheet export deck.toml -o sheets --back back.png
  proxysheet export deck.txt --watch`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDeckFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			err := c.runExport(cmd.Context(), path, opts)
			if !opts.watch {
				return err
			}
			if err != nil {
				printError("%v", err)
			}
			printInfo("Watching %s for changes (Ctrl-C to stop)", path)
			return watchFile(cmd.Context(), path, watchDebounce, c.Logger, func() error {
				return c.runExport(cmd.Context(), path, opts)
			})
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default from config, else .)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the card and image cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch cards and images, updating the cache")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-export whenever the deck file changes")

	return cmd
}

// runExport loads the deck, runs the pipeline and writes the sheets.
func (c *CLI) runExport(ctx context.Context, path string, opts exportOpts) error {
	timer := startTimer(c.Logger)

	d, err := deck.Load(path)
	if err != nil {
		return err
	}
	timer.step("deck loaded", "entries", len(d.Cards))
	popts, err := opts.options(c.Config)
	if err != nil {
		return err
	}
	if popts.UniversalBack, err = c.loadUniversalBack(d, opts.exportFlags); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.refresh, d.Dir)
	if err != nil {
		return err
	}
	defer runner.Close()

	cards := deck.Expand(d.Cards)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d cards", len(cards)))
	popts.OnResolved = func(done, total int) {
		if done == total {
			spinner.SetMessage("Composing sheets")
			return
		}
		spinner.SetMessage("Resolving cards %d/%d", done, total)
	}
	spinner.Start()
	result, err := runner.Execute(ctx, cards, popts)
	spinner.Stop()
	if result == nil {
		return err
	}
	timer.step("sheets composed", "pages", result.Stats.Pages)

	outDir := firstNonZero(opts.output, c.Config.Export.OutputDir, ".")
	paths, werr := pipeline.WriteOutputs(outDir, result.Outputs)
	if werr != nil {
		return werr
	}
	report, werr := pipeline.WriteDiagnosticsFile(outDir, result.Diagnostics)
	if werr != nil {
		return werr
	}

	printSuccess("Exported %d sheet sides from %s", len(paths), filepath.Base(path))
	printStats(result.Stats)
	for _, p := range paths {
		printFile(p)
	}
	if report != "" {
		printDiagnostics(result.Diagnostics, maxPrintedDiagnostics)
		printFile(report)
	}
	timer.done("export finished", "sides", len(paths), "diagnostics", len(result.Diagnostics))
	return err
}

// loadUniversalBack reads the back image named by the flag, the deck file
// or the config, in that order. Relative paths in a deck file are relative
// to the deck.
func (c *CLI) loadUniversalBack(d *deck.Deck, flags exportFlags) ([]byte, error) {
	ref, base := flags.universalBack, ""
	if ref == "" && d.UniversalBack != "" {
		ref, base = d.UniversalBack, d.Dir
	}
	if ref == "" {
		ref = c.Config.Export.UniversalBack
	}
	if ref == "" {
		return nil, nil
	}
	return local.NewResolver(local.Options{BaseDir: base}).Load(ref)
}
