package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/proxysheet/pkg/deck"
	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/integrations/scryfall"
	"github.com/matzehuels/proxysheet/pkg/pipeline"
)

// pickOpts holds the command-line flags for the pick command.
type pickOpts struct {
	quantity int
	set      string
	append   string
	refresh  bool
}

// pickCommand creates the pick command.
func (c *CLI) pickCommand() *cobra.Command {
	var opts pickOpts

	cmd := &cobra.Command{
		Use:   "pick <card name>",
		Short: "Choose a printing of a card interactively",
		Long: `Search every printing of a card and pick one from a list.

The choice is printed as a decklist line, or appended to a deck file.

Examples:
  proxysheet pick "Lightning Bolt"
  proxysheet pick "Sol Ring" --set cmm
  proxysheet pick "Counterspell" -n 4 --append deck.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPick(cmd.Context(), strings.Join(args, " "), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.quantity, "quantity", "n", 1, "number of copies in the emitted line")
	cmd.Flags().StringVar(&opts.set, "set", "", "only list printings from this set")
	cmd.Flags().StringVar(&opts.append, "append", "", "append the line to this deck file instead of printing it")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch the printing list, updating the cache")

	return cmd
}

func (c *CLI) runPick(ctx context.Context, name string, opts pickOpts, out io.Writer) error {
	if opts.quantity < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "quantity must be at least 1")
	}
	if err := errors.ValidateSetCode(opts.set); err != nil {
		return err
	}

	backend, err := c.newCache(ctx, false)
	if err != nil {
		return err
	}
	defer backend.Close()
	client := pipeline.NewCatalogClient(backend, c.keyer(), c.resolverOptions(opts.refresh, ""))

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Searching printings of %s", name))
	spinner.Start()
	cards, err := client.SearchPrintings(ctx, name, opts.refresh)
	spinner.Stop()
	if err != nil {
		return err
	}
	cards = filterPrintings(cards, opts.set)
	if len(cards) == 0 {
		return errors.New(errors.ErrCodeCardNotFound, "no printings of %q in set %q", name, opts.set)
	}

	selected := &cards[0]
	if len(cards) > 1 {
		final, err := tea.NewProgram(NewPrintingListModel(cards[0].Name, cards), tea.WithContext(ctx)).Run()
		if err != nil {
			return err
		}
		selected = final.(PrintingListModel).Selected
		if selected == nil {
			printInfo("Nothing selected")
			return nil
		}
	}

	line := deck.FormatEntry(printingEntry(*selected, opts.quantity))
	if opts.append == "" {
		_, err := fmt.Fprintln(out, line)
		return err
	}
	if err := appendLine(opts.append, line); err != nil {
		return err
	}
	printSuccess("Added %s to %s", line, opts.append)
	return nil
}

// filterPrintings keeps printings from set; an empty set keeps all.
func filterPrintings(cards []scryfall.Card, set string) []scryfall.Card {
	if set == "" {
		return cards
	}
	var out []scryfall.Card
	for _, c := range cards {
		if strings.EqualFold(c.Set, set) {
			out = append(out, c)
		}
	}
	return out
}

func printingEntry(c scryfall.Card, quantity int) deck.Entry {
	return deck.Entry{
		Quantity: quantity,
		Name:     c.Name,
		Set:      c.Set,
		Number:   c.Number,
	}
}

// appendLine adds line to a text deck, starting a new line if the file
// does not end with one.
func appendLine(path, line string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		line = "\n" + line
	}
	_, err = fmt.Fprintln(f, line)
	return err
}
