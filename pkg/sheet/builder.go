package sheet

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/sheet/grid"
	"github.com/matzehuels/proxysheet/pkg/sheet/raster"
)

// Builder renders single page sides. A Builder holds no per-page state and
// may be shared by goroutines.
type Builder struct {
	Template grid.Template
	Style    raster.Style

	// UniversalBack replaces the default back for every card that has no
	// back of its own. Nil means raster.DefaultBack().
	UniversalBack image.Image

	// UniversalBackErr is set when a universal back was configured but could
	// not be decoded. Those back cells stay white with a decode_failed
	// diagnostic each.
	UniversalBackErr error

	// AspectTolerance is the relative aspect difference above which an
	// aspect_mismatch diagnostic is reported. Zero disables the check.
	AspectTolerance float64

	// Workers bounds the decode fan-out; zero means runtime.NumCPU().
	Workers int

	// Marker, when set, prints a QR code reading "<Marker> SheetN_Side" in
	// the top margin: right-aligned on fronts and left-aligned on backs so
	// that both land in the same corner of the printed sheet.
	Marker string

	Logger *log.Logger
}

// cellJob is one image to place on the page.
type cellJob struct {
	slot   Slot
	cell   int
	data   []byte
	img    image.Image // set for fallback backs, which are already decoded
	border bool
	err    error
}

// Build renders one side of group into a new white page. Cells whose image
// is missing or undecodable stay white and are reported as diagnostics.
//
// Images decode in parallel; drawing happens afterwards on the calling
// goroutine in slot order. If ctx is cancelled before decoding finishes no
// page is returned.
func (b *Builder) Build(ctx context.Context, group PageGroup, side Side) (*image.NRGBA, []Diagnostic, error) {
	tmpl := b.Template
	if tmpl.Size() == 0 || tmpl.Width <= 0 || tmpl.Height <= 0 {
		return nil, nil, errors.New(errors.ErrCodeSurfaceUnavailable, "template has no drawable cells")
	}
	if len(group.Slots) > tmpl.Size() {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "page %d has %d cards, template holds %d", group.Index+1, len(group.Slots), tmpl.Size())
	}

	var diags []Diagnostic
	diag := func(s Slot, cell int, reason Reason, err error) {
		diags = append(diags, Diagnostic{
			SlotID: s.ID,
			Card:   s.Label(),
			Page:   group.Index,
			Side:   side,
			Cell:   cell,
			Reason: reason,
			Err:    err,
		})
	}

	jobs := make([]cellJob, 0, len(group.Slots))
	for i, s := range group.Slots {
		switch side {
		case Front:
			if len(s.Front) == 0 {
				diag(s, i, ReasonMissingFront, nil)
				continue
			}
			jobs = append(jobs, cellJob{slot: s, cell: i, data: s.Front, border: s.FrontBorder})
		case Back:
			job := cellJob{slot: s, cell: tmpl.Mirror(i), border: s.BackBorder}
			if s.DoubleFaced && len(s.Back) > 0 {
				job.data = s.Back
			} else {
				if s.DoubleFaced {
					diag(s, job.cell, ReasonMissingBack, nil)
				}
				if b.UniversalBackErr != nil {
					job.err = b.UniversalBackErr
				} else {
					job.img = b.fallbackBack()
				}
			}
			jobs = append(jobs, job)
		}
	}

	if err := b.decodeAll(ctx, jobs); err != nil {
		return nil, nil, err
	}

	page, err := newPage(tmpl.Width, tmpl.Height)
	if err != nil {
		return nil, nil, err
	}

	for _, job := range jobs {
		if job.err != nil {
			diag(job.slot, job.cell, ReasonDecodeFailed, job.err)
			continue
		}
		cell := tmpl.Cells[job.cell]
		if b.AspectTolerance > 0 && job.data != nil && raster.AspectMismatch(job.img, cell, b.AspectTolerance) {
			bounds := job.img.Bounds()
			diag(job.slot, job.cell, ReasonAspectMismatch,
				fmt.Errorf("image is %dx%d, card face is %dx%d; stretching", bounds.Dx(), bounds.Dy(), cell.Height(), cell.Width()))
		}
		opts := raster.CellOptions{Border: job.border, Back: side == Back, Style: b.Style}
		if err := raster.DrawCell(page, cell, job.img, opts); err != nil {
			return nil, diags, errors.Wrap(errors.ErrCodeSurfaceUnavailable, err, "draw cell %d", job.cell)
		}
	}

	if b.Marker != "" {
		b.drawMarker(page, group, side)
	}

	b.logger().Debug("built page", "page", group.Index+1, "side", side, "cells", len(jobs), "diagnostics", len(diags))
	return page, diags, nil
}

// decodeAll decodes every job that carries bytes. Per-image failures are
// stored on the job; only cancellation is returned.
func (b *Builder) decodeAll(ctx context.Context, jobs []cellJob) error {
	var g errgroup.Group
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.SetLimit(workers)

	for i := range jobs {
		if jobs[i].data == nil {
			continue
		}
		job := &jobs[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			job.img, job.err = raster.Decode(job.data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (b *Builder) drawMarker(page *image.NRGBA, group PageGroup, side Side) {
	margin := b.Template.Height
	for _, c := range b.Template.Cells {
		margin = min(margin, c.Y0)
	}
	pad := margin / 8
	size := margin - 2*pad
	if size < raster.MinMarkerSize {
		b.logger().Debug("top margin too small for marker", "margin", margin)
		return
	}
	x := b.Template.Width - pad - size
	if side == Back {
		x = pad
	}
	text := fmt.Sprintf("%s Sheet%d_%s", b.Marker, group.Index+1, side)
	if err := raster.DrawMarker(page, image.Rect(x, pad, x+size, pad+size), text); err != nil {
		b.logger().Warn("marker not drawn", "page", group.Index+1, "side", side, "err", err)
	}
}

func (b *Builder) fallbackBack() image.Image {
	if b.UniversalBack != nil {
		return b.UniversalBack
	}
	return raster.DefaultBack()
}

func (b *Builder) logger() *log.Logger {
	if b.Logger == nil {
		return discardLogger
	}
	return b.Logger
}

// newPage allocates a white page. Allocation failures surface as
// SURFACE_UNAVAILABLE instead of crashing the export.
func newPage(width, height int) (page *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = errors.New(errors.ErrCodeSurfaceUnavailable, "allocate %dx%d page: %v", width, height, r)
		}
	}()
	return imaging.New(width, height, color.White), nil
}
