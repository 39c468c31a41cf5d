package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/sheet/grid"
)

// Reference cell style, in pixels.
const (
	DefaultBorderSize   = 37.5
	DefaultCornerRadius = 46
	DefaultOverdraw     = 1
)

// Style controls the bordered look of a card.
type Style struct {
	BorderSize   float64
	CornerRadius float64
	Overdraw     float64
}

// DefaultStyle returns the reference style.
func DefaultStyle() Style {
	return Style{
		BorderSize:   DefaultBorderSize,
		CornerRadius: DefaultCornerRadius,
		Overdraw:     DefaultOverdraw,
	}
}

// CellOptions selects how an image is drawn into a cell.
type CellOptions struct {
	Border bool  // draw black border and rounded corners
	Back   bool  // rotate a further 180°
	Style  Style // zero value means DefaultStyle
}

// DrawCell draws img into cell on dst. Pixels outside the cell are never
// touched. The cell is repainted completely: anything not covered by the
// card is white.
func DrawCell(dst xdraw.Image, cell grid.Cell, img image.Image, opts CellOptions) error {
	if img == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no image to draw")
	}
	w, h := cell.Width(), cell.Height()
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeInvalidTemplate, "empty cell %v", cell.Rect())
	}
	if !cell.Rect().In(dst.Bounds()) {
		return errors.New(errors.ErrCodeInvalidTemplate, "cell %v outside page %v", cell.Rect(), dst.Bounds())
	}
	style := opts.Style
	if style == (Style{}) {
		style = DefaultStyle()
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	// The face is the card in its own upright frame: portrait, so its
	// width is the cell height.
	fw, fh := float64(h), float64(w)

	dc.Push()
	dc.Translate(float64(w)/2, float64(h)/2)
	dc.Rotate(gg.Radians(90))
	if opts.Back {
		dc.Rotate(gg.Radians(180))
	}
	dc.Translate(-fw/2, -fh/2)

	if opts.Border {
		drawBordered(dc, img, fw, fh, style)
	} else {
		face := imaging.Resize(img, h, w, imaging.Lanczos)
		dc.DrawImage(face, 0, 0)
	}
	dc.Pop()

	xdraw.Draw(dst, cell.Rect(), dc.Image(), image.Point{}, xdraw.Src)
	return nil
}

func drawBordered(dc *gg.Context, img image.Image, fw, fh float64, style Style) {
	b := style.BorderSize
	dc.SetColor(color.Black)
	dc.DrawRectangle(0, 0, fw, fh)
	dc.Fill()

	iw := int(math.Round(fw - 2*b))
	ih := int(math.Round(fh - 2*b))
	if iw > 0 && ih > 0 {
		inner := imaging.Resize(img, iw, ih, imaging.Lanczos)
		dc.Push()
		dc.Translate(b, b)
		dc.DrawImage(inner, 0, 0)
		dc.Pop()
	}

	dc.SetColor(color.White)
	corners := []struct{ x, y, sx, sy float64 }{
		{0, 0, 1, 1},
		{fw, 0, -1, 1},
		{0, fh, 1, -1},
		{fw, fh, -1, -1},
	}
	for _, c := range corners {
		dc.Push()
		dc.Translate(c.x, c.y)
		dc.Scale(c.sx, c.sy)
		cornerPath(dc, style.CornerRadius, style.Overdraw)
		dc.Fill()
		dc.Pop()
	}
}

// cornerPath traces the area between the top-left corner of the face and
// a quarter disc of radius r, pushed o pixels beyond both edges.
func cornerPath(dc *gg.Context, r, o float64) {
	dc.MoveTo(-o, -o)
	dc.LineTo(r, -o)
	dc.DrawArc(r, r, r, -math.Pi/2, -math.Pi)
	dc.LineTo(-o, r)
	dc.ClosePath()
}

// AspectMismatch reports whether img's width/height ratio differs from the
// upright card face of cell by more than tolerance (relative).
func AspectMismatch(img image.Image, cell grid.Cell, tolerance float64) bool {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || cell.Width() <= 0 || cell.Height() <= 0 {
		return false
	}
	face := float64(cell.Height()) / float64(cell.Width())
	got := float64(b.Dx()) / float64(b.Dy())
	return math.Abs(got-face)/face > tolerance
}
