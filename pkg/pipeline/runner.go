package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/proxysheet/pkg/cache"
	"github.com/matzehuels/proxysheet/pkg/errors"
	catalog "github.com/matzehuels/proxysheet/pkg/integrations/scryfall"
	"github.com/matzehuels/proxysheet/pkg/observability"
	"github.com/matzehuels/proxysheet/pkg/sheet"
	"github.com/matzehuels/proxysheet/pkg/source"
	"github.com/matzehuels/proxysheet/pkg/source/local"
	"github.com/matzehuels/proxysheet/pkg/source/scryfall"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating resolution logic.
//
// The Runner is stateless except for the cache, resolver and logger. It
// doesn't store results, so multiple goroutines can share one Runner.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Resolver source.Resolver
	Logger   *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The resolver defaults to [NewResolver] over the same cache.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Resolver: NewResolver(c, keyer, ResolverOptions{Logger: logger}),
		Logger:   logger,
	}
}

// ResolverOptions configures [NewResolver].
type ResolverOptions struct {
	// Catalog client
	BaseURL   string
	UserAgent string
	ImageSize catalog.Size
	TTL       time.Duration
	Refresh   bool

	// Custom cards
	BaseDir    string
	InlineOnly bool

	Logger *log.Logger
}

// NewCatalogClient builds a Scryfall client over the shared cache.
func NewCatalogClient(c cache.Cache, keyer cache.Keyer, opts ResolverOptions) *catalog.Client {
	client := catalog.NewClient(c, opts.TTL)
	if keyer != nil {
		client.SetKeyer(keyer)
	}
	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	return client
}

// NewResolver builds the standard dispatcher: remote cards through the
// Scryfall catalog, custom cards from local files and inline bytes.
func NewResolver(c cache.Cache, keyer cache.Keyer, opts ResolverOptions) *source.Dispatcher {
	client := NewCatalogClient(c, keyer, opts)
	return &source.Dispatcher{
		Remote: scryfall.NewResolver(client, scryfall.Options{
			Size:    opts.ImageSize,
			Refresh: opts.Refresh,
			Logger:  opts.Logger,
		}),
		Custom: local.NewResolver(local.Options{
			BaseDir:    opts.BaseDir,
			InlineOnly: opts.InlineOnly,
		}),
	}
}

// Execute resolves cards and composes them into sheets.
//
// The returned Result is never nil once options validate. A non-nil error
// alongside it means some pages failed (or ctx was cancelled); Outputs
// still holds every page side that succeeded.
func (r *Runner) Execute(ctx context.Context, cards []source.Card, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if len(cards) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDeck, "no cards to print")
	}
	if len(cards) > MaxCards {
		return nil, errors.New(errors.ErrCodeInvalidDeck, "%d cards exceeds the limit of %d", len(cards), MaxCards)
	}
	r.applyLogger(&opts)

	exporter, err := sheet.NewExporter(opts.SheetOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Resolve
	resolveStart := time.Now()
	slots, diags, stats, err := r.Resolve(ctx, cards, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Diagnostics = diags
	result.Stats = stats
	result.Stats.ResolveTime = time.Since(resolveStart)

	r.Logger.Info("resolved cards",
		"cards", stats.Cards,
		"unique", stats.Unique,
		"failed", stats.Failed,
		"duration", result.Stats.ResolveTime)

	// Stage 2: Compose
	composeStart := time.Now()
	var errs []error
	for out, err := range exporter.Export(ctx, slots) {
		result.Diagnostics = append(result.Diagnostics, out.Diagnostics...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result.Outputs = append(result.Outputs, out)
		result.Stats.Bytes += len(out.Data)
	}
	result.Stats.Pages = len(sheet.Paginate(slots, exporter.Options().PageSize))
	result.Stats.ComposeTime = time.Since(composeStart)

	r.Logger.Info("composed sheets",
		"pages", result.Stats.Pages,
		"outputs", len(result.Outputs),
		"bytes", result.Stats.Bytes,
		"duration", result.Stats.ComposeTime)

	return result, stderrors.Join(errs...)
}

// resolved is the outcome of one unique card.
type resolved struct {
	card   source.Card
	images source.Images
	err    error
}

// Resolve fetches the images of every unique card and returns one slot per
// copy, in input order. Identical catalog lookups are fetched once.
//
// Per-card failures become resolve_failed diagnostics; the copy is still
// printed with whatever images were obtained. Only cancellation is
// returned as an error.
func (r *Runner) Resolve(ctx context.Context, cards []source.Card, opts Options) ([]sheet.Slot, []sheet.Diagnostic, Stats, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, Stats{}, err
	}
	r.applyLogger(&opts)
	resolver := r.Resolver
	if resolver == nil {
		resolver = NewResolver(r.Cache, r.Keyer, ResolverOptions{Logger: opts.Logger})
	}

	index := make([]int, len(cards)) // card -> unique
	var unique []*resolved
	seen := make(map[string]int)
	for i, c := range cards {
		key := dedupeKey(c, i)
		u, ok := seen[key]
		if !ok {
			u = len(unique)
			seen[key] = u
			unique = append(unique, &resolved{card: c})
		}
		index[i] = u
	}

	start := time.Now()
	hooks := observability.Export()
	hooks.OnResolveStart(ctx, len(unique))

	var done atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, u := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u.images, u.err = resolver.Resolve(gctx, u.card)
			if u.err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			if u.err != nil {
				opts.Logger.Warn("card not resolved", "card", u.card.Label(), "resolver", resolver.Name(), "err", u.err)
			} else {
				opts.Logger.Debug("resolved card", "card", u.card.Label(), "double_faced", u.images.DoubleFaced)
			}
			if opts.OnResolved != nil {
				opts.OnResolved(int(done.Add(1)), len(unique))
			}
			return nil
		})
	}
	err := g.Wait()

	stats := Stats{Cards: len(cards), Unique: len(unique)}
	for _, u := range unique {
		if u.err != nil {
			stats.Failed++
		}
	}
	hooks.OnResolveComplete(ctx, len(unique), stats.Failed, time.Since(start), err)
	if err != nil {
		return nil, nil, stats, err
	}

	pageSize := opts.EffectivePageSize()
	slots := make([]sheet.Slot, len(cards))
	var diags []sheet.Diagnostic
	for i, c := range cards {
		u := unique[index[i]]
		name := u.images.Name
		if name == "" {
			name = c.Label()
		}
		s := sheet.NewSlot(name, u.images.Front, u.images.Back, u.images.DoubleFaced)
		finish := c.Finish()
		s.FrontBorder = !finish.NoFrontBorder && !opts.NoBorders
		s.BackBorder = !finish.NoBackBorder && !opts.NoBorders
		slots[i] = s

		if u.err != nil {
			d := sheet.Diagnostic{
				SlotID: s.ID,
				Card:   c.Label(),
				Page:   i / pageSize,
				Side:   sheet.Front,
				Cell:   i % pageSize,
				Reason: sheet.ReasonResolveFailed,
				Err:    u.err,
			}
			hooks.OnDiagnostic(ctx, string(d.Reason), d.Card)
			diags = append(diags, d)
		}
	}
	return slots, diags, stats, nil
}

// dedupeKey identifies cards that resolve to the same images. Custom cards
// with inline bytes are never merged.
func dedupeKey(c source.Card, i int) string {
	switch v := c.(type) {
	case source.Remote:
		return "remote|" + strings.ToLower(strings.TrimSpace(v.Name)) + "|" + strings.ToLower(v.Set) + "|" + v.Number
	case source.Custom:
		if len(v.Front) == 0 && len(v.Back) == 0 {
			return "custom|" + v.Name + "|" + v.FrontPath + "|" + v.BackPath
		}
	}
	return fmt.Sprintf("card|%d", i)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil || opts.Logger == discard {
		opts.Logger = r.Logger
	}
}
