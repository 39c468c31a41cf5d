package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxysheet/pkg/deck"
)

// Output formats of the parse command.
const (
	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	format string // text, json or toml
	output string // output file path (stdout if empty)
}

// parseCommand creates the parse command, which checks a deck and prints
// it normalized. Converting a decklist to TOML is the usual first step
// before adding custom images.
func (c *CLI) parseCommand() *cobra.Command {
	opts := parseOpts{format: formatText}

	cmd := &cobra.Command{
		Use:   "parse <deck>",
		Short: "Validate a deck and print it normalized",
		Long: `Validate a deck and print it normalized.

Examples:
  proxysheet parse deck.txt                       # normalized decklist
  proxysheet parse deck.txt --format toml -o deck.toml`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDeckFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := deck.Load(args[0])
			if err != nil {
				return err
			}
			c.Logger.Info("parsed deck", "entries", len(d.Cards), "cards", d.Count())

			w := io.Writer(os.Stdout)
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writeDeck(w, d, opts.format); err != nil {
				return err
			}
			if opts.output != "" {
				printSuccess("Wrote %d entries", len(d.Cards))
				printFile(opts.output)
				printNextStep("Render it", "proxysheet export "+opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json or toml")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

// writeDeck renders d in the given format. Text output cannot express
// custom images, so custom entries are written as comments.
func writeDeck(w io.Writer, d *deck.Deck, format string) error {
	switch format {
	case formatText:
		var b strings.Builder
		for _, e := range d.Cards {
			if e.Custom() {
				fmt.Fprintf(&b, "// %d %s (custom: %s)\n", e.Quantity, e.Name, e.Front)
				continue
			}
			b.WriteString(deck.FormatEntry(e))
			b.WriteByte('\n')
		}
		_, err := io.WriteString(w, b.String())
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case formatTOML:
		return toml.NewEncoder(w).Encode(d)
	default:
		return fmt.Errorf("unknown format %q (use text, json or toml)", format)
	}
}
