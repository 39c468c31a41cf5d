// Package source turns deck cards into printable image bytes.
//
// A [Card] is either a [Remote] card looked up in an online catalog or a
// [Custom] card whose images the user supplies. Resolvers for each kind live
// in subpackages (source/scryfall, source/local); a [Dispatcher] routes every
// card to the right one.
//
// # Usage
//
//	d := &source.Dispatcher{
//	    Remote: scryfall.NewResolver(client, scryfall.Options{}),
//	    Custom: local.NewResolver(local.Options{BaseDir: deckDir}),
//	}
//	imgs, err := d.Resolve(ctx, source.Remote{Name: "Lightning Bolt"})
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/proxysheet/pkg/errors"
)

// Card is one printable card. The set of implementations is closed:
// [Remote] and [Custom].
type Card interface {
	// Label is a short human-readable name for logs and diagnostics.
	Label() string

	// Finish returns the print finish requested for the card.
	Finish() Finish

	card()
}

// Finish holds per-card print settings. The zero value prints a black
// border on both faces.
type Finish struct {
	NoFrontBorder bool `json:"no_front_border,omitempty" toml:"no_front_border,omitempty"`
	NoBackBorder  bool `json:"no_back_border,omitempty" toml:"no_back_border,omitempty"`
}

// Remote is a card fetched from the catalog by name, or by set code and
// collector number when both are given.
type Remote struct {
	Name   string
	Set    string
	Number string
	Print  Finish
}

func (r Remote) Label() string {
	switch {
	case r.Name != "" && r.Set != "":
		return fmt.Sprintf("%s (%s) %s", r.Name, strings.ToUpper(r.Set), r.Number)
	case r.Name != "":
		return r.Name
	default:
		return strings.TrimSpace(strings.ToUpper(r.Set) + " " + r.Number)
	}
}

func (r Remote) Finish() Finish { return r.Print }
func (Remote) card()            {}

// Custom is a card with user-supplied images. Inline bytes take precedence
// over paths; a path may also be a base64 data URL.
type Custom struct {
	Name        string
	FrontPath   string
	BackPath    string
	Front       []byte
	Back        []byte
	DoubleFaced bool
	Print       Finish
}

func (c Custom) Label() string {
	if c.Name != "" {
		return c.Name
	}
	if c.FrontPath != "" && !strings.HasPrefix(c.FrontPath, "data:") {
		return c.FrontPath
	}
	return "custom card"
}

func (c Custom) Finish() Finish { return c.Print }
func (Custom) card()            {}

// Images are the resolved image bytes of a card.
//
// Zero values: Back is nil for single-faced cards or when the back image
// could not be obtained; Name may be empty, in which case callers fall back
// to [Card.Label].
type Images struct {
	Name        string
	Front       []byte
	Back        []byte
	DoubleFaced bool
}

// Resolver fetches the images of a card.
type Resolver interface {
	// Resolve returns the images of card.
	//
	// A resolver may return partial Images together with a non-nil error,
	// for instance a front image when the back face failed to download.
	// Callers record the error and print what they got.
	//
	// Implementations must honor context cancellation and be safe for
	// concurrent use.
	Resolve(ctx context.Context, card Card) (Images, error)

	// Name returns the resolver's identifier for logging.
	Name() string
}

// Dispatcher routes each card to the resolver for its kind.
// A nil resolver rejects cards of that kind with an UNSUPPORTED error.
type Dispatcher struct {
	Remote Resolver
	Custom Resolver
}

// Resolve implements [Resolver].
func (d *Dispatcher) Resolve(ctx context.Context, card Card) (Images, error) {
	var r Resolver
	switch card.(type) {
	case Remote:
		r = d.Remote
	case Custom:
		r = d.Custom
	default:
		return Images{}, errors.New(errors.ErrCodeUnsupported, "unknown card type %T", card)
	}
	if r == nil {
		return Images{}, errors.New(errors.ErrCodeUnsupported, "no resolver for %s", card.Label())
	}
	return r.Resolve(ctx, card)
}

// Name implements [Resolver].
func (d *Dispatcher) Name() string { return "dispatch" }

var _ Resolver = (*Dispatcher)(nil)
