// Package scryfall resolves [source.Remote] cards through the Scryfall catalog.
package scryfall

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proxysheet/pkg/errors"
	catalog "github.com/matzehuels/proxysheet/pkg/integrations/scryfall"
	"github.com/matzehuels/proxysheet/pkg/source"
)

// Options configures a [Resolver].
type Options struct {
	// Size is the preferred image rendition. Defaults to large.
	Size catalog.Size

	// Refresh bypasses cached card metadata and images.
	Refresh bool

	// Logger receives per-card debug output. Defaults to a discarding logger.
	Logger *log.Logger
}

// Resolver implements [source.Resolver] for remote cards.
type Resolver struct {
	client *catalog.Client
	opts   Options
}

// NewResolver wraps a catalog client.
func NewResolver(client *catalog.Client, opts Options) *Resolver {
	if opts.Size == "" {
		opts.Size = catalog.SizeLarge
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Resolver{client: client, opts: opts}
}

// Name implements [source.Resolver].
func (r *Resolver) Name() string { return "scryfall" }

// Resolve looks the card up and downloads its front image, and its back
// image for double-faced layouts. A failed back download returns the front
// together with the error.
func (r *Resolver) Resolve(ctx context.Context, c source.Card) (source.Images, error) {
	rc, ok := c.(source.Remote)
	if !ok {
		return source.Images{}, errors.New(errors.ErrCodeUnsupported, "scryfall cannot resolve %T", c)
	}

	card, err := r.client.FetchCard(ctx, catalog.Lookup{Name: rc.Name, Set: rc.Set, Number: rc.Number}, r.opts.Refresh)
	if err != nil {
		return source.Images{}, err
	}

	imgs := source.Images{Name: card.Name, DoubleFaced: card.DoubleFaced()}
	url, ok := card.ImageURL(0, r.opts.Size)
	if !ok {
		return imgs, errors.New(errors.ErrCodeNotFound, "%s has no front image", card.Name)
	}
	if imgs.Front, err = r.client.FetchImage(ctx, url, r.opts.Refresh); err != nil {
		return imgs, err
	}
	r.opts.Logger.Debug("resolved front", "card", card.Name, "layout", card.Layout, "bytes", len(imgs.Front))

	if !imgs.DoubleFaced {
		return imgs, nil
	}
	url, ok = card.ImageURL(1, r.opts.Size)
	if !ok {
		return imgs, errors.New(errors.ErrCodeNotFound, "%s has no back image", card.Name)
	}
	if imgs.Back, err = r.client.FetchImage(ctx, url, r.opts.Refresh); err != nil {
		return imgs, err
	}
	r.opts.Logger.Debug("resolved back", "card", card.Name, "bytes", len(imgs.Back))
	return imgs, nil
}

var _ source.Resolver = (*Resolver)(nil)
