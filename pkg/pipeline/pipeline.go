// Package pipeline provides the resolve → compose pipeline for proxysheet.
//
// This package ties card resolution and sheet export together so that the
// CLI and the HTTP API behave identically.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Resolve: fetch front and back images for every unique card, in parallel
//  2. Compose: paginate the copies and export each page side as a JPEG
//
// Per-card failures never stop a run. They surface as resolve_failed
// diagnostics next to the compositor's own diagnostics.
//
// # Usage
//
//	resolver := pipeline.NewResolver(c, nil, pipeline.ResolverOptions{BaseDir: dir})
//	runner := pipeline.NewRunner(c, nil, logger)
//	runner.Resolver = resolver
//	result, err := runner.Execute(ctx, deck.Expand(d.Cards), pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = pipeline.WriteOutputs("sheets", result.Outputs)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/sheet"
	"github.com/matzehuels/proxysheet/pkg/sheet/encode"
	"github.com/matzehuels/proxysheet/pkg/sheet/grid"
	"github.com/matzehuels/proxysheet/pkg/sheet/raster"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultConcurrency bounds parallel card resolution. The catalog client
	// paces its own requests, so this mostly overlaps image downloads.
	DefaultConcurrency = 8

	// MaxCards caps a single run.
	MaxCards = 2000
)

var discard = log.NewWithOptions(io.Discard, log.Options{})

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains the configuration of one pipeline run.
type Options struct {
	// PageSize is the number of cards per page; zero fills every cell.
	PageSize int

	// MaxBytes is the per-page JPEG budget; zero means encode.DefaultMaxBytes.
	MaxBytes int64

	// Policy decides what happens when a page cannot meet MaxBytes.
	Policy encode.Policy

	// Style is the border look; the zero value means raster.DefaultStyle().
	Style raster.Style

	// NoBorders prints every card full-bleed, overriding per-card finishes.
	NoBorders bool

	// UniversalBack is an encoded image printed behind every card that has
	// no back of its own.
	UniversalBack []byte

	// OnPageError chooses whether a failed page ends the run.
	OnPageError sheet.PageErrorPolicy

	// Concurrency bounds parallel card resolution.
	Concurrency int

	// Workers bounds per-page image decoding; zero means runtime.NumCPU().
	Workers int

	// Marker labels every page side with a QR code; empty disables it.
	Marker string

	// OnResolved, if set, is called after each unique card resolves, from
	// the resolving goroutine. It must be safe for concurrent use.
	OnResolved func(done, total int)

	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must be positive, got %d", o.Concurrency)
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	if o.PageSize < 0 || o.PageSize > grid.Reference().Size() {
		return errors.New(errors.ErrCodeInvalidInput, "page size %d outside 1-%d", o.PageSize, grid.Reference().Size())
	}
	if o.Logger == nil {
		o.Logger = discard
	}
	o.validated = true
	return nil
}

// EffectivePageSize returns the page size after defaults.
func (o *Options) EffectivePageSize() int {
	if o.PageSize == 0 {
		return grid.Reference().Size()
	}
	return o.PageSize
}

// SheetOptions converts the pipeline options to exporter options.
func (o *Options) SheetOptions() sheet.Options {
	return sheet.Options{
		PageSize:      o.PageSize,
		Style:         o.Style,
		UniversalBack: o.UniversalBack,
		Encode: encode.Options{
			MaxBytes: o.MaxBytes,
			Policy:   o.Policy,
		},
		OnPageError: o.OnPageError,
		Workers:     o.Workers,
		Marker:      o.Marker,
		Logger:      o.Logger,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Outputs are the encoded page sides that succeeded, in print order.
	Outputs []sheet.Output

	// Diagnostics collects every resolve and export problem of the run.
	Diagnostics []sheet.Diagnostic

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Cards       int // copies printed
	Unique      int // distinct cards resolved
	Failed      int // distinct cards that failed to resolve
	Pages       int // page groups
	Bytes       int // total output size
	ResolveTime time.Duration
	ComposeTime time.Duration
}
