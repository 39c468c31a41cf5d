package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/sheet/grid"
	"github.com/matzehuels/proxysheet/pkg/sheet/raster"
)

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	green = color.NRGBA{G: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// smallTemplate is a 3x2 sheet that keeps tests fast.
func smallTemplate(t *testing.T) grid.Template {
	t.Helper()
	tmpl, err := grid.New(400, 200, []int{10, 140, 270}, []int{10, 100}, 110, 80)
	require.NoError(t, err)
	return tmpl
}

var smallStyle = raster.Style{BorderSize: 4, CornerRadius: 5, Overdraw: 1}

func cardPNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(60, 84, c), imaging.PNG))
	return buf.Bytes()
}

func center(c grid.Cell) (int, int) {
	return (c.X0 + c.X1) / 2, (c.Y0 + c.Y1) / 2
}

func assertColor(t *testing.T, img image.Image, x, y int, want color.NRGBA, tol int) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	got := color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d >= -tol && d <= tol
	}
	assert.Truef(t, near(got.R, want.R) && near(got.G, want.G) && near(got.B, want.B),
		"pixel (%d,%d) = %v, want %v", x, y, got, want)
}

// defaultBackCenter is the color at the middle of the built-in back.
func defaultBackCenter() color.NRGBA {
	return raster.BackEmblem
}

func reasons(diags []Diagnostic) []Reason {
	out := make([]Reason, len(diags))
	for i, d := range diags {
		out[i] = d.Reason
	}
	return out
}

// ===== Paginate =====

func TestPaginate(t *testing.T) {
	mk := func(n int) []Slot {
		slots := make([]Slot, n)
		for i := range slots {
			slots[i] = Slot{ID: string(rune('a' + i%26)), Name: string(rune('a' + i%26))}
		}
		return slots
	}

	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{"empty", 0, 18, nil},
		{"one", 1, 18, []int{1}},
		{"full page", 18, 18, []int{18}},
		{"one over", 19, 18, []int{18, 1}},
		{"two full", 36, 18, []int{18, 18}},
		{"sixty", 60, 18, []int{18, 18, 18, 6}},
		{"size clamped", 3, 0, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := mk(tt.n)
			groups := Paginate(slots, tt.size)
			require.Len(t, groups, len(tt.sizes))

			var flat []Slot
			for i, g := range groups {
				assert.Equal(t, i, g.Index)
				assert.Len(t, g.Slots, tt.sizes[i])
				flat = append(flat, g.Slots...)
			}
			if tt.n > 0 {
				assert.Equal(t, slots, flat)
			}
		})
	}
}

func TestNewSlot(t *testing.T) {
	s := NewSlot("Delver of Secrets", []byte{1}, []byte{2}, true)

	_, err := uuid.Parse(s.ID)
	assert.NoError(t, err)
	assert.True(t, s.FrontBorder)
	assert.True(t, s.BackBorder)
	assert.True(t, s.DoubleFaced)
	assert.NotEqual(t, s.ID, NewSlot("Delver of Secrets", nil, nil, false).ID)
	assert.Equal(t, "Delver of Secrets", s.Label())
	assert.Equal(t, "x", Slot{ID: "x"}.Label())
}

func TestSideString(t *testing.T) {
	assert.Equal(t, "Front", Front.String())
	assert.Equal(t, "Back", Back.String())
	assert.Equal(t, "Sheet1_Front.jpg", FileName(0, Front))
	assert.Equal(t, "Sheet12_Back.jpg", FileName(11, Back))
}

// ===== Builder =====

func TestBuilderFrontAndBack(t *testing.T) {
	tmpl := smallTemplate(t)
	b := &Builder{Template: tmpl, Style: smallStyle}

	dfc := NewSlot("Delver of Secrets", cardPNG(t, red), cardPNG(t, blue), true)
	single := NewSlot("Ponder", cardPNG(t, green), nil, false)
	group := PageGroup{Index: 0, Slots: []Slot{dfc, single}}

	front, diags, err := b.Build(context.Background(), group, Front)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, tmpl.Bounds(), front.Bounds())

	x, y := center(tmpl.Cells[0])
	assertColor(t, front, x, y, red, 8)
	x, y = center(tmpl.Cells[1])
	assertColor(t, front, x, y, green, 8)
	for i := 2; i < tmpl.Size(); i++ {
		x, y = center(tmpl.Cells[i])
		assertColor(t, front, x, y, white, 0)
	}

	back, diags, err := b.Build(context.Background(), group, Back)
	require.NoError(t, err)
	assert.Empty(t, diags)

	// Slot 0 is mirrored into cell 2, slot 1 stays in the middle column.
	x, y = center(tmpl.Cells[2])
	assertColor(t, back, x, y, blue, 8)
	x, y = center(tmpl.Cells[1])
	assertColor(t, back, x, y, defaultBackCenter(), 24)
	x, y = center(tmpl.Cells[0])
	assertColor(t, back, x, y, white, 0)
}

func TestBuilderUniversalBack(t *testing.T) {
	tmpl := smallTemplate(t)
	b := &Builder{Template: tmpl, Style: smallStyle, UniversalBack: imaging.New(60, 84, green)}

	group := PageGroup{Slots: []Slot{NewSlot("Opt", cardPNG(t, red), nil, false)}}
	back, _, err := b.Build(context.Background(), group, Back)
	require.NoError(t, err)

	x, y := center(tmpl.Cells[tmpl.Mirror(0)])
	assertColor(t, back, x, y, green, 8)
}

func TestBuilderUndecodableUniversalBack(t *testing.T) {
	tmpl := smallTemplate(t)
	b := &Builder{
		Template:         tmpl,
		Style:            smallStyle,
		UniversalBackErr: errors.New(errors.ErrCodeDecodeFailed, "universal back"),
	}

	dfc := NewSlot("Delver", cardPNG(t, red), cardPNG(t, blue), true)
	single := NewSlot("Opt", cardPNG(t, red), nil, false)
	back, diags, err := b.Build(context.Background(), PageGroup{Slots: []Slot{dfc, single}}, Back)
	require.NoError(t, err)

	require.Equal(t, []Reason{ReasonDecodeFailed}, reasons(diags))
	assert.Equal(t, single.ID, diags[0].SlotID)
	assert.Equal(t, tmpl.Mirror(1), diags[0].Cell)

	x, y := center(tmpl.Cells[tmpl.Mirror(1)])
	assertColor(t, back, x, y, white, 0)
	x, y = center(tmpl.Cells[tmpl.Mirror(0)])
	assertColor(t, back, x, y, blue, 8)
}

func TestBuilderDiagnostics(t *testing.T) {
	tmpl := smallTemplate(t)
	b := &Builder{Template: tmpl, Style: smallStyle}

	noFront := NewSlot("Missing", nil, nil, false)
	broken := NewSlot("Broken", []byte("garbage"), nil, false)
	noBack := NewSlot("Half", cardPNG(t, red), nil, true)
	group := PageGroup{Index: 3, Slots: []Slot{noFront, broken, noBack}}

	front, diags, err := b.Build(context.Background(), group, Front)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Reason{ReasonMissingFront, ReasonDecodeFailed}, reasons(diags))
	for _, d := range diags {
		assert.Equal(t, 3, d.Page)
		assert.Equal(t, Front, d.Side)
		if d.Reason == ReasonDecodeFailed {
			assert.Equal(t, broken.ID, d.SlotID)
			assert.Equal(t, 1, d.Cell)
			assert.True(t, errors.Is(d.Err, errors.ErrCodeDecodeFailed))
		}
	}
	// Failed cells stay blank, the good one is drawn.
	x, y := center(tmpl.Cells[1])
	assertColor(t, front, x, y, white, 0)
	x, y = center(tmpl.Cells[2])
	assertColor(t, front, x, y, red, 8)

	back, diags, err := b.Build(context.Background(), group, Back)
	require.NoError(t, err)
	require.Equal(t, []Reason{ReasonMissingBack}, reasons(diags))
	assert.Equal(t, tmpl.Mirror(2), diags[0].Cell)
	x, y = center(tmpl.Cells[tmpl.Mirror(2)])
	assertColor(t, back, x, y, defaultBackCenter(), 24)
}

func TestBuilderAspectMismatch(t *testing.T) {
	tmpl := smallTemplate(t)
	b := &Builder{Template: tmpl, Style: smallStyle, AspectTolerance: DefaultAspectTolerance}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(80, 80, red), imaging.PNG))
	group := PageGroup{Slots: []Slot{NewSlot("Token", buf.Bytes(), nil, false)}}

	page, diags, err := b.Build(context.Background(), group, Front)
	require.NoError(t, err)
	assert.Equal(t, []Reason{ReasonAspectMismatch}, reasons(diags))

	// The image is still stretched into the cell.
	x, y := center(tmpl.Cells[0])
	assertColor(t, page, x, y, red, 8)
}

func TestBuilderCancelled(t *testing.T) {
	b := &Builder{Template: smallTemplate(t), Style: smallStyle}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	group := PageGroup{Slots: []Slot{NewSlot("Opt", cardPNG(t, red), nil, false)}}
	page, _, err := b.Build(ctx, group, Front)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, page)
}

func TestBuilderSurfaceUnavailable(t *testing.T) {
	b := &Builder{}
	_, _, err := b.Build(context.Background(), PageGroup{}, Front)
	assert.True(t, errors.Is(err, errors.ErrCodeSurfaceUnavailable), "got %v", err)
}

// ===== Diagnostics =====

func TestDiagnosticJSON(t *testing.T) {
	d := Diagnostic{
		SlotID: "abc",
		Card:   "Opt",
		Page:   0,
		Side:   Back,
		Cell:   2,
		Reason: ReasonDecodeFailed,
		Err:    errors.New(errors.ErrCodeDecodeFailed, "bad"),
	}
	data, err := json.Marshal(d)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(1), got["page"])
	assert.Equal(t, "Back", got["side"])
	assert.Equal(t, "decode_failed", got["reason"])
	assert.Equal(t, "DECODE_FAILED: bad", got["error"])
	assert.Contains(t, d.String(), "page 1 Back cell 2 (Opt): decode_failed")
}

// ===== Marker =====

func darkPixels(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if v, _, _, _ := img.At(x, y).RGBA(); v < 0x8000 {
				n++
			}
		}
	}
	return n
}

func TestBuilderMarker(t *testing.T) {
	tmpl, err := grid.New(600, 400, []int{10, 200, 390}, []int{150, 280}, 110, 80)
	require.NoError(t, err)
	b := &Builder{Template: tmpl, Style: smallStyle, Marker: "deck"}
	group := PageGroup{Slots: []Slot{NewSlot("Opt", cardPNG(t, red), nil, false)}}

	// Margin 150, padding 18, marker side 114.
	left := image.Rect(18, 18, 132, 132)
	right := image.Rect(468, 18, 582, 132)

	front, _, err := b.Build(context.Background(), group, Front)
	require.NoError(t, err)
	assert.Greater(t, darkPixels(front, right), 0, "front marker is right-aligned")
	assert.Zero(t, darkPixels(front, left))

	back, _, err := b.Build(context.Background(), group, Back)
	require.NoError(t, err)
	assert.Greater(t, darkPixels(back, left), 0, "back marker is left-aligned")
	assert.Zero(t, darkPixels(back, right))
}

func TestBuilderMarkerNoMargin(t *testing.T) {
	tmpl := smallTemplate(t)
	b := &Builder{Template: tmpl, Style: smallStyle, Marker: "deck"}
	group := PageGroup{Slots: []Slot{NewSlot("Opt", cardPNG(t, red), nil, false)}}

	front, _, err := b.Build(context.Background(), group, Front)
	require.NoError(t, err)
	assert.Zero(t, darkPixels(front, image.Rect(0, 0, tmpl.Width, 10)), "no marker when the margin is too small")
}
