package sheet

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/observability"
	"github.com/matzehuels/proxysheet/pkg/sheet/encode"
	"github.com/matzehuels/proxysheet/pkg/sheet/grid"
)

func smallExporter(t *testing.T, opts Options) *Exporter {
	t.Helper()
	opts.Template = smallTemplate(t)
	opts.Style = smallStyle
	exp, err := NewExporter(opts)
	require.NoError(t, err)
	return exp
}

func slotsOf(t *testing.T, n int) []Slot {
	t.Helper()
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = NewSlot("Card", cardPNG(t, red), nil, false)
	}
	return slots
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

type recordingHooks struct {
	observability.NoopExportHooks
	pages    []string
	attempts int
	diags    []string
}

func (h *recordingHooks) OnPageStart(_ context.Context, page int, side string) {
	h.pages = append(h.pages, FileName(page, map[string]Side{"Front": Front, "Back": Back}[side]))
}

func (h *recordingHooks) OnEncodeAttempt(context.Context, int, string, float64, int) {
	h.attempts++
}

func (h *recordingHooks) OnDiagnostic(_ context.Context, reason, _ string) {
	h.diags = append(h.diags, reason)
}

func TestExportOrderAndNames(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetExportHooks(hooks)
	defer observability.Reset()

	exp := smallExporter(t, Options{})
	outs, err := Collect(exp.Export(context.Background(), slotsOf(t, 7)))
	require.NoError(t, err)

	var names []string
	for _, out := range outs {
		names = append(names, out.Name)
		assert.Equal(t, 1, out.Attempts)
		assert.InDelta(t, 0.9, out.Quality, 1e-9)
		assert.False(t, out.OverBudget)
		assert.Equal(t, image.Rect(0, 0, 400, 200), decodeJPEG(t, out.Data).Bounds())
	}
	want := []string{"Sheet1_Front.jpg", "Sheet1_Back.jpg", "Sheet2_Front.jpg", "Sheet2_Back.jpg"}
	assert.Equal(t, want, names)
	assert.Equal(t, want, hooks.pages)
	assert.Equal(t, 4, hooks.attempts)
}

func TestExportPageSize(t *testing.T) {
	exp := smallExporter(t, Options{PageSize: 4})
	outs, err := Collect(exp.Export(context.Background(), slotsOf(t, 9)))
	require.NoError(t, err)
	assert.Len(t, outs, 6)

	_, err = NewExporter(Options{Template: smallTemplate(t), PageSize: 7})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "err = %v", err)
}

func TestExportEmpty(t *testing.T) {
	exp := smallExporter(t, Options{})
	outs, err := Collect(exp.Export(context.Background(), nil))
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestExportIsLazy(t *testing.T) {
	exp := smallExporter(t, Options{})

	var seen []string
	for out, err := range exp.Export(context.Background(), slotsOf(t, 13)) {
		require.NoError(t, err)
		seen = append(seen, out.Name)
		if len(seen) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"Sheet1_Front.jpg", "Sheet1_Back.jpg", "Sheet2_Front.jpg"}, seen)
}

func TestExportCancelled(t *testing.T) {
	exp := smallExporter(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range exp.Export(ctx, slotsOf(t, 3)) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestExportUndecodableUniversalBack(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetExportHooks(hooks)
	defer observability.Reset()

	exp := smallExporter(t, Options{UniversalBack: []byte("not an image")})
	outs, err := Collect(exp.Export(context.Background(), slotsOf(t, 2)))
	require.NoError(t, err)
	require.Len(t, outs, 2)

	// The run-level report rides on the first output.
	require.Len(t, outs[0].Diagnostics, 1)
	assert.Equal(t, ReasonDecodeFailed, outs[0].Diagnostics[0].Reason)
	assert.Equal(t, -1, outs[0].Diagnostics[0].Cell)

	tmpl := smallTemplate(t)
	require.Len(t, outs[1].Diagnostics, 2)
	for i, d := range outs[1].Diagnostics {
		assert.Equal(t, ReasonDecodeFailed, d.Reason)
		assert.Equal(t, tmpl.Mirror(i), d.Cell)
		assert.True(t, errors.Is(d.Err, errors.ErrCodeDecodeFailed))
	}
	assert.Equal(t, []string{"decode_failed", "decode_failed", "decode_failed"}, hooks.diags)

	back := decodeJPEG(t, outs[1].Data)
	for i := range 2 {
		x, y := center(tmpl.Cells[tmpl.Mirror(i)])
		assertColor(t, back, x, y, white, 8)
	}
}

func TestExportRunDiagnosticsOnAbort(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetExportHooks(hooks)
	defer observability.Reset()

	exp := smallExporter(t, Options{
		UniversalBack: []byte("not an image"),
		Encode:        encode.Options{MaxBytes: 1, Policy: encode.Strict},
		OnPageError:   Abort,
	})
	var outs []Output
	for out, err := range exp.Export(context.Background(), slotsOf(t, 1)) {
		require.Error(t, err)
		outs = append(outs, out)
	}
	require.Len(t, outs, 1)
	assert.Equal(t, Front, outs[0].Side)
	got := reasons(outs[0].Diagnostics)
	assert.Contains(t, got, ReasonDecodeFailed)
	assert.Contains(t, got, ReasonPageFailed)
	assert.Contains(t, hooks.diags, string(ReasonDecodeFailed))
}

func TestExportUniversalBack(t *testing.T) {
	exp := smallExporter(t, Options{UniversalBack: cardPNG(t, green)})
	outs, err := Collect(exp.Export(context.Background(), slotsOf(t, 1)))
	require.NoError(t, err)
	require.Len(t, outs, 2)

	back := decodeJPEG(t, outs[1].Data)
	x, y := center(smallTemplate(t).Cells[2])
	assertColor(t, back, x, y, green, 24)
}

func TestExportOverBudget(t *testing.T) {
	t.Run("best effort", func(t *testing.T) {
		exp := smallExporter(t, Options{Encode: encode.Options{MaxBytes: 1}})
		outs, err := Collect(exp.Export(context.Background(), slotsOf(t, 1)))
		require.NoError(t, err)
		require.Len(t, outs, 2)
		for _, out := range outs {
			assert.True(t, out.OverBudget)
			assert.Equal(t, 9, out.Attempts)
			assert.Contains(t, reasons(out.Diagnostics), ReasonOverBudget)
			assert.NotEmpty(t, out.Data)
		}
	})

	t.Run("strict continue", func(t *testing.T) {
		exp := smallExporter(t, Options{Encode: encode.Options{MaxBytes: 1, Policy: encode.Strict}})
		var errs []error
		for _, err := range exp.Export(context.Background(), slotsOf(t, 7)) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 4)
		for _, err := range errs {
			assert.True(t, errors.Is(err, errors.ErrCodeBudgetExceeded), "got %v", err)
		}
	})

	t.Run("strict abort", func(t *testing.T) {
		exp := smallExporter(t, Options{
			Encode:      encode.Options{MaxBytes: 1, Policy: encode.Strict},
			OnPageError: Abort,
		})
		var outs []Output
		for out, err := range exp.Export(context.Background(), slotsOf(t, 7)) {
			require.Error(t, err)
			outs = append(outs, out)
		}
		require.Len(t, outs, 1)
		assert.Equal(t, "Sheet1_Front.jpg", outs[0].Name)
		assert.Contains(t, reasons(outs[0].Diagnostics), ReasonPageFailed)
	})
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	require.NoError(t, opts.ValidateAndSetDefaults())
	require.NoError(t, opts.ValidateAndSetDefaults())

	assert.Equal(t, 18, opts.Template.Size())
	assert.Equal(t, 18, opts.PageSize)
	assert.Equal(t, DefaultAspectTolerance, opts.AspectTolerance)
	assert.Equal(t, int64(encode.DefaultMaxBytes), opts.Encode.MaxBytes)
	assert.NotNil(t, opts.Logger)

	bad := Options{OnPageError: PageErrorPolicy(9)}
	assert.Error(t, bad.ValidateAndSetDefaults())
}

// TestExportReferenceSheet runs nineteen cards through the full-size
// reference template: two pages, four outputs, default backs on page one.
func TestExportReferenceSheet(t *testing.T) {
	if testing.Short() {
		t.Skip("renders full-size pages")
	}

	exp, err := NewExporter(Options{})
	require.NoError(t, err)

	slots := slotsOf(t, 19)
	outs, err := Collect(exp.Export(context.Background(), slots))
	require.NoError(t, err)
	require.Len(t, outs, 4)

	tmpl := grid.Reference()
	back1 := decodeJPEG(t, outs[1].Data)
	assert.Equal(t, tmpl.Bounds(), back1.Bounds())
	for i, c := range tmpl.Cells {
		x, y := center(c)
		t.Run(FileName(0, Back)+"/cell"+string(rune('A'+i)), func(t *testing.T) {
			assertColor(t, back1, x, y, defaultBackCenter(), 32)
		})
	}

	front2 := decodeJPEG(t, outs[2].Data)
	x, y := center(tmpl.Cells[0])
	assertColor(t, front2, x, y, red, 32)
	x, y = center(tmpl.Cells[1])
	assertColor(t, front2, x, y, white, 8)

	back2 := decodeJPEG(t, outs[3].Data)
	x, y = center(tmpl.Cells[2])
	assertColor(t, back2, x, y, defaultBackCenter(), 32)
	x, y = center(tmpl.Cells[0])
	assertColor(t, back2, x, y, white, 8)
}
