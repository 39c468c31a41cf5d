package sheet

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/observability"
	"github.com/matzehuels/proxysheet/pkg/sheet/encode"
	"github.com/matzehuels/proxysheet/pkg/sheet/grid"
	"github.com/matzehuels/proxysheet/pkg/sheet/raster"
)

// DefaultAspectTolerance is the relative aspect difference reported as an
// aspect_mismatch diagnostic.
const DefaultAspectTolerance = 0.05

var discardLogger = log.New(io.Discard)

// PageErrorPolicy decides whether an export goes on after a page fails.
type PageErrorPolicy int

const (
	// Continue yields the failed page's error and moves to the next page.
	Continue PageErrorPolicy = iota
	// Abort yields the failed page's error and ends the export.
	Abort
)

// Options configures an [Exporter].
type Options struct {
	// Template is the page layout; the zero value means grid.Reference().
	Template grid.Template

	// PageSize is the number of cards per page; zero means every cell of
	// Template. It cannot exceed the template's cell count.
	PageSize int

	// Style is the bordered look; the zero value means raster.DefaultStyle().
	Style raster.Style

	// UniversalBack is an encoded image used as the back of every card
	// without a back of its own. Nil means the built-in default back; bytes
	// that fail to decode leave those back cells blank.
	UniversalBack []byte

	// Encode controls the JPEG size budget. Encode.OnAttempt is still called.
	Encode encode.Options

	OnPageError PageErrorPolicy

	// AspectTolerance bounds aspect_mismatch reports; zero means
	// DefaultAspectTolerance and a negative value disables the check.
	AspectTolerance float64

	// Workers bounds the per-page decode fan-out; zero means runtime.NumCPU().
	Workers int

	// Marker labels every page side with a QR code; empty disables it.
	Marker string

	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults applies defaults and validates the options.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Template.Size() == 0 {
		o.Template = grid.Reference()
	}
	if o.PageSize == 0 {
		o.PageSize = o.Template.Size()
	}
	if o.PageSize < 0 || o.PageSize > o.Template.Size() {
		return errors.New(errors.ErrCodeInvalidInput, "page size %d outside 1-%d", o.PageSize, o.Template.Size())
	}
	if o.Style == (raster.Style{}) {
		o.Style = raster.DefaultStyle()
	}
	if o.Style.BorderSize < 0 || o.Style.CornerRadius < 0 || o.Style.Overdraw < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "border style values must not be negative")
	}
	if o.AspectTolerance == 0 {
		o.AspectTolerance = DefaultAspectTolerance
	}
	if o.OnPageError != Continue && o.OnPageError != Abort {
		return errors.New(errors.ErrCodeInvalidPolicy, "unknown page error policy %d", o.OnPageError)
	}
	if err := o.Encode.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = discardLogger
	}
	o.validated = true
	return nil
}

// Output is one encoded page side.
type Output struct {
	Page        int // zero-based
	Side        Side
	Name        string
	Data        []byte
	Quality     float64
	Attempts    int
	OverBudget  bool
	Diagnostics []Diagnostic
}

// FileName returns the name of a page side, e.g. "Sheet1_Front.jpg".
func FileName(page int, side Side) string {
	return fmt.Sprintf("Sheet%d_%s.jpg", page+1, side)
}

// Exporter turns slots into encoded page sides. It keeps no state between
// Export calls.
type Exporter struct {
	opts Options
}

// NewExporter validates opts and returns an exporter.
func NewExporter(opts Options) (*Exporter, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Exporter{opts: opts}, nil
}

// Options returns the effective options.
func (e *Exporter) Options() Options { return e.opts }

// Export returns a lazy sequence with one element per page side: page 1
// front, page 1 back, page 2 front, and so on. Nothing is rendered until
// the sequence is iterated, and breaking out of the loop stops the export.
//
// A page that fails yields its error. Under [Continue] the sequence goes on
// with the next page; under [Abort] it ends. Cancellation of ctx always ends
// the sequence with ctx's error.
func (e *Exporter) Export(ctx context.Context, slots []Slot) iter.Seq2[Output, error] {
	return func(yield func(Output, error) bool) {
		b, runDiags := e.newBuilder()
		for _, group := range Paginate(slots, e.opts.PageSize) {
			for _, side := range []Side{Front, Back} {
				var (
					out Output
					err = ctx.Err()
				)
				if err != nil {
					out = Output{Page: group.Index, Side: side, Name: FileName(group.Index, side)}
				} else {
					out, err = e.page(ctx, b, group, side)
				}
				// Run-level diagnostics ride on the first output, whatever its side.
				if runDiags != nil {
					e.report(ctx, runDiags)
					out.Diagnostics = append(runDiags, out.Diagnostics...)
					runDiags = nil
				}
				if !yield(out, err) {
					return
				}
				if err != nil && (ctx.Err() != nil || e.opts.OnPageError == Abort) {
					return
				}
			}
		}
	}
}

func (e *Exporter) newBuilder() (*Builder, []Diagnostic) {
	b := &Builder{
		Template:        e.opts.Template,
		Style:           e.opts.Style,
		AspectTolerance: max(e.opts.AspectTolerance, 0),
		Workers:         e.opts.Workers,
		Marker:          e.opts.Marker,
		Logger:          e.opts.Logger,
	}
	if len(e.opts.UniversalBack) == 0 {
		return b, nil
	}
	img, err := raster.Decode(e.opts.UniversalBack)
	if err != nil {
		b.UniversalBackErr = err
		return b, []Diagnostic{{
			Card:   "universal back",
			Side:   Back,
			Cell:   -1,
			Reason: ReasonDecodeFailed,
			Err:    err,
		}}
	}
	b.UniversalBack = img
	return b, nil
}

func (e *Exporter) page(ctx context.Context, b *Builder, group PageGroup, side Side) (Output, error) {
	start := time.Now()
	hooks := observability.Export()
	hooks.OnPageStart(ctx, group.Index, side.String())

	out := Output{Page: group.Index, Side: side, Name: FileName(group.Index, side)}
	img, diags, err := b.Build(ctx, group, side)
	out.Diagnostics = diags
	if err != nil {
		return e.fail(ctx, out, err, start)
	}

	encOpts := e.opts.Encode
	encOpts.OnAttempt = func(a encode.Attempt) {
		hooks.OnEncodeAttempt(ctx, group.Index, side.String(), a.Quality, a.Size)
		e.opts.Logger.Debug("encode attempt", "page", group.Index+1, "side", side, "quality", a.Quality, "bytes", a.Size)
		if e.opts.Encode.OnAttempt != nil {
			e.opts.Encode.OnAttempt(a)
		}
	}
	res, err := encode.Encode(img, encOpts)
	out.Data = res.Data
	out.Quality = res.Quality
	out.Attempts = len(res.Attempts)
	out.OverBudget = res.OverBudget
	if res.OverBudget {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Page:   group.Index,
			Side:   side,
			Cell:   -1,
			Reason: ReasonOverBudget,
			Err:    fmt.Errorf("%d bytes at quality %.1f exceeds %d", len(res.Data), res.Quality, e.opts.Encode.MaxBytes),
		})
	}
	if err != nil {
		return e.fail(ctx, out, err, start)
	}

	e.report(ctx, out.Diagnostics)
	duration := time.Since(start)
	e.opts.Logger.Info("exported page",
		"name", out.Name,
		"bytes", len(out.Data),
		"quality", out.Quality,
		"duration", duration)
	hooks.OnPageComplete(ctx, group.Index, side.String(), len(out.Data), out.Quality, duration, nil)
	return out, nil
}

func (e *Exporter) fail(ctx context.Context, out Output, err error, start time.Time) (Output, error) {
	if ctxErr := ctx.Err(); ctxErr != nil && stderrors.Is(err, ctxErr) {
		return out, err
	}
	out.Diagnostics = append(out.Diagnostics, Diagnostic{
		Page:   out.Page,
		Side:   out.Side,
		Cell:   -1,
		Reason: ReasonPageFailed,
		Err:    err,
	})
	e.report(ctx, out.Diagnostics)
	e.opts.Logger.Error("page failed", "name", out.Name, "err", err)
	observability.Export().OnPageComplete(ctx, out.Page, out.Side.String(), len(out.Data), out.Quality, time.Since(start), err)
	return out, fmt.Errorf("%s: %w", out.Name, err)
}

func (e *Exporter) report(ctx context.Context, diags []Diagnostic) {
	hooks := observability.Export()
	for _, d := range diags {
		hooks.OnDiagnostic(ctx, string(d.Reason), d.Card)
		e.opts.Logger.Warn("card diagnostic", "page", d.Page+1, "side", d.Side, "cell", d.Cell, "card", d.Card, "reason", d.Reason, "err", d.Err)
	}
}

// Collect drains an export. It returns every successful output in order
// and the joined errors of the failed pages.
func Collect(seq iter.Seq2[Output, error]) ([]Output, error) {
	var (
		outs []Output
		errs []error
	)
	for out, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		outs = append(outs, out)
	}
	return outs, stderrors.Join(errs...)
}
