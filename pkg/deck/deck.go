// Package deck reads decks into printable cards.
//
// Three formats are understood:
//
//   - Decklist text as exported by most deck builders
//     ("4 Lightning Bolt", "1 Delver of Secrets (ISD) 51")
//   - TOML deck files with one [[card]] table per entry
//   - JSON deck files with a "cards" array
//
// The structured formats add what text cannot express: custom image paths,
// border flags and a universal back for the whole deck.
//
// # Usage
//
//	d, err := deck.Load("burn.txt")
//	if err != nil {
//	    return err
//	}
//	cards := deck.Expand(d.Cards) // one source.Card per physical copy
package deck

import (
	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/source"
)

// MaxQuantity is the largest number of copies a single entry may request.
const MaxQuantity = 999

// Entry is one line of a deck: a card and how many copies to print.
//
// An entry with a Front image is a custom card; otherwise it is looked up in
// the catalog by Set and Number, or by Name when either is missing.
type Entry struct {
	Quantity    int    `json:"quantity" toml:"quantity"`
	Name        string `json:"name,omitempty" toml:"name,omitempty"`
	Set         string `json:"set,omitempty" toml:"set,omitempty"`
	Number      string `json:"number,omitempty" toml:"number,omitempty"`
	Foil        bool   `json:"foil,omitempty" toml:"foil,omitempty"`
	Commander   bool   `json:"commander,omitempty" toml:"commander,omitempty"`
	Front       string `json:"front,omitempty" toml:"front,omitempty"`
	Back        string `json:"back,omitempty" toml:"back,omitempty"`
	DoubleFaced bool   `json:"double_faced,omitempty" toml:"double_faced,omitempty"`

	source.Finish
}

// Custom reports whether the entry carries its own images.
func (e Entry) Custom() bool {
	return e.Front != ""
}

// Card converts the entry into a single printable card.
func (e Entry) Card() source.Card {
	if e.Custom() {
		return source.Custom{
			Name:        e.Name,
			FrontPath:   e.Front,
			BackPath:    e.Back,
			DoubleFaced: e.DoubleFaced,
			Print:       e.Finish,
		}
	}
	return source.Remote{Name: e.Name, Set: e.Set, Number: e.Number, Print: e.Finish}
}

// Validate checks the entry's fields.
func (e Entry) Validate() error {
	if e.Quantity < 1 || e.Quantity > MaxQuantity {
		return errors.New(errors.ErrCodeInvalidDeck, "quantity %d out of range 1-%d", e.Quantity, MaxQuantity)
	}
	if e.Custom() {
		if e.Name != "" {
			return errors.ValidateCardName(e.Name)
		}
		return nil
	}
	if e.Name == "" && (e.Set == "" || e.Number == "") {
		return errors.New(errors.ErrCodeInvalidDeck, "card needs a name or a set and collector number")
	}
	if e.Name != "" {
		if err := errors.ValidateCardName(e.Name); err != nil {
			return err
		}
	}
	if err := errors.ValidateSetCode(e.Set); err != nil {
		return err
	}
	return errors.ValidateCollectorNumber(e.Number)
}

// Deck is a parsed deck file.
type Deck struct {
	// Dir is the directory of the deck file; relative image paths are
	// resolved against it. Empty for decks that did not come from a file.
	Dir string `json:"-" toml:"-"`

	// UniversalBack is a path or data URL for the back of single-faced cards.
	UniversalBack string `json:"universal_back,omitempty" toml:"universal_back,omitempty"`

	Cards []Entry `json:"cards" toml:"card"`
}

// Count returns the number of physical cards in the deck.
func (d *Deck) Count() int {
	n := 0
	for _, e := range d.Cards {
		n += e.Quantity
	}
	return n
}

// Expand returns one card per physical copy, in deck order.
func Expand(entries []Entry) []source.Card {
	var n int
	for _, e := range entries {
		n += max(e.Quantity, 0)
	}
	cards := make([]source.Card, 0, n)
	for _, e := range entries {
		c := e.Card()
		for range e.Quantity {
			cards = append(cards, c)
		}
	}
	return cards
}
