package grid

import (
	"image"

	"github.com/matzehuels/proxysheet/pkg/errors"
)

// Reference sheet geometry.
const (
	ReferenceWidth  = 3600
	ReferenceHeight = 5400
	ReferenceCellW  = 1101
	ReferenceCellH  = 804
)

var (
	referenceXs = []int{127, 1249, 2373}
	referenceYs = []int{288, 1092, 1896, 2700, 3504, 4308}
)

// Cell is an axis-aligned box on the page. X1 and Y1 are exclusive.
type Cell struct {
	X0, Y0, X1, Y1 int
}

// Width returns X1-X0.
func (c Cell) Width() int { return c.X1 - c.X0 }

// Height returns Y1-Y0.
func (c Cell) Height() int { return c.Y1 - c.Y0 }

// Rect returns the cell as an image.Rectangle in page coordinates.
func (c Cell) Rect() image.Rectangle {
	return image.Rect(c.X0, c.Y0, c.X1, c.Y1)
}

// Template is an immutable page layout. Build one with [New] or [Reference];
// the zero value has no cells.
type Template struct {
	Width   int
	Height  int
	Columns int
	Rows    int
	Cells   []Cell
}

// New builds a template from column and row origins. Every cell is
// cellW×cellH. It fails with INVALID_TEMPLATE when a cell leaves the page,
// when origins are not strictly increasing, or when neighbouring cells overlap.
func New(width, height int, xs, ys []int, cellW, cellH int) (Template, error) {
	if width <= 0 || height <= 0 {
		return Template{}, errors.New(errors.ErrCodeInvalidTemplate, "page size %dx%d must be positive", width, height)
	}
	if cellW <= 0 || cellH <= 0 {
		return Template{}, errors.New(errors.ErrCodeInvalidTemplate, "cell size %dx%d must be positive", cellW, cellH)
	}
	if len(xs) == 0 || len(ys) == 0 {
		return Template{}, errors.New(errors.ErrCodeInvalidTemplate, "template needs at least one row and one column")
	}
	if err := checkAxis("column", xs, cellW, width); err != nil {
		return Template{}, err
	}
	if err := checkAxis("row", ys, cellH, height); err != nil {
		return Template{}, err
	}

	cells := make([]Cell, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			cells = append(cells, Cell{X0: x, Y0: y, X1: x + cellW, Y1: y + cellH})
		}
	}
	return Template{
		Width:   width,
		Height:  height,
		Columns: len(xs),
		Rows:    len(ys),
		Cells:   cells,
	}, nil
}

func checkAxis(name string, origins []int, size, limit int) error {
	for i, o := range origins {
		if o < 0 || o+size > limit {
			return errors.New(errors.ErrCodeInvalidTemplate, "%s %d at %d does not fit the page (%d+%d > %d)", name, i, o, o, size, limit)
		}
		if i > 0 && o < origins[i-1]+size {
			return errors.New(errors.ErrCodeInvalidTemplate, "%s %d at %d overlaps %s %d", name, i, o, name, i-1)
		}
	}
	return nil
}

// Reference returns the reference sheet template.
func Reference() Template {
	t, err := New(ReferenceWidth, ReferenceHeight, referenceXs, referenceYs, ReferenceCellW, ReferenceCellH)
	if err != nil {
		panic("grid: reference template is invalid: " + err.Error())
	}
	return t
}

// Size returns the number of cells, i.e. the number of cards per page.
func (t Template) Size() int { return len(t.Cells) }

// Cell returns cell i, or false when i is out of range.
func (t Template) Cell(i int) (Cell, bool) {
	if i < 0 || i >= len(t.Cells) {
		return Cell{}, false
	}
	return t.Cells[i], true
}

// Mirror returns the back-side cell for front cell i: same row, column
// reversed. Mirror is an involution. Out-of-range indexes are returned
// unchanged.
func (t Template) Mirror(i int) int {
	if t.Columns <= 0 || i < 0 || i >= len(t.Cells) {
		return i
	}
	row, col := i/t.Columns, i%t.Columns
	return row*t.Columns + (t.Columns - 1 - col)
}

// Bounds returns the page rectangle.
func (t Template) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.Width, t.Height)
}
