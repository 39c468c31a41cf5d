package deck

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/proxysheet/pkg/errors"
)

// Format reads a deck from file contents.
type Format interface {
	// Parse decodes data into a deck.
	Parse(data []byte) (*Deck, error)
	// Supports reports whether this format handles the given filename.
	Supports(filename string) bool
	// Type returns the format identifier ("toml", "json", "text").
	Type() string
}

// TOML reads deck files of the form:
//
//	universal_back = "backs/classic.png"
//
//	[[card]]
//	quantity = 4
//	name = "Lightning Bolt"
//	set = "M10"
//	number = "146"
type TOML struct{}

func (TOML) Type() string { return "toml" }

func (TOML) Supports(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".toml")
}

func (TOML) Parse(data []byte) (*Deck, error) {
	var d Deck
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDeck, err, "toml deck")
	}
	return &d, d.Normalize()
}

// JSON reads deck files with a top-level "cards" array using the same
// fields as [TOML].
type JSON struct{}

func (JSON) Type() string { return "json" }

func (JSON) Supports(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

func (JSON) Parse(data []byte) (*Deck, error) {
	var d Deck
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDeck, err, "json deck")
	}
	return &d, d.Normalize()
}

// Text reads decklist text. It supports every filename, so it belongs last
// in a format list.
type Text struct{}

func (Text) Type() string           { return "text" }
func (Text) Supports(_ string) bool { return true }

func (Text) Parse(data []byte) (*Deck, error) {
	entries, err := ParseDecklist(string(data))
	if err != nil {
		return nil, err
	}
	return &Deck{Cards: entries}, nil
}

// Formats returns the built-in formats in detection order.
func Formats() []Format {
	return []Format{TOML{}, JSON{}, Text{}}
}

// DetectFormat finds a format that supports the given file path.
// Returns an error if no format matches.
func DetectFormat(path string, formats ...Format) (Format, error) {
	name := filepath.Base(path)
	for _, f := range formats {
		if f.Supports(name) {
			return f, nil
		}
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported deck file: %s", name)
}

// Load reads the deck file at path with the built-in formats.
func Load(path string) (*Deck, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "deck %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "deck %s", path)
	}
	f, err := DetectFormat(path, Formats()...)
	if err != nil {
		return nil, err
	}
	d, err := f.Parse(data)
	if err != nil {
		return nil, err
	}
	d.Dir = filepath.Dir(path)
	return d, nil
}

// Normalize applies defaults to structured entries and validates them.
// Decks built in code (API requests) go through it like parsed files.
func (d *Deck) Normalize() error {
	for i := range d.Cards {
		e := &d.Cards[i]
		if e.Quantity == 0 {
			e.Quantity = 1
		}
		e.Set = strings.ToUpper(strings.TrimSpace(e.Set))
		e.Name = strings.TrimSpace(e.Name)
		if err := e.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDeck, err, "card %d", i+1)
		}
	}
	if len(d.Cards) == 0 {
		return errors.New(errors.ErrCodeInvalidDeck, "no cards found")
	}
	return nil
}
