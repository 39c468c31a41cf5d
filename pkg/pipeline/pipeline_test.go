package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/sheet"
	"github.com/matzehuels/proxysheet/pkg/source"
)

// fakeResolver serves a solid-color front for every card and fails the
// names listed in fail.
type fakeResolver struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
	png   []byte
}

func newFakeResolver(t *testing.T, fail ...string) *fakeResolver {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(60, 84, color.NRGBA{R: 0xff, A: 0xff}), imaging.PNG))
	f := &fakeResolver{calls: map[string]int{}, fail: map[string]bool{}, png: buf.Bytes()}
	for _, n := range fail {
		f.fail[n] = true
	}
	return f
}

func (f *fakeResolver) Resolve(ctx context.Context, c source.Card) (source.Images, error) {
	if err := ctx.Err(); err != nil {
		return source.Images{}, err
	}
	f.mu.Lock()
	f.calls[c.Label()]++
	f.mu.Unlock()
	if f.fail[c.Label()] {
		return source.Images{}, errors.New(errors.ErrCodeCardNotFound, "no such card %q", c.Label())
	}
	return source.Images{Front: f.png}, nil
}

func (f *fakeResolver) Name() string { return "fake" }

func (f *fakeResolver) count(label string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[label]
}

func newTestRunner(r source.Resolver) *Runner {
	runner := NewRunner(nil, nil, nil)
	runner.Resolver = r
	runner.Logger = discard
	return runner
}

func remotes(names ...string) []source.Card {
	cards := make([]source.Card, len(names))
	for i, n := range names {
		cards[i] = source.Remote{Name: n}
	}
	return cards
}

// ===== Options =====

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, DefaultConcurrency, opts.Concurrency)
	assert.Equal(t, 18, opts.EffectivePageSize())
	assert.NotNil(t, opts.Logger)

	// Idempotent.
	require.NoError(t, opts.ValidateAndSetDefaults())

	tests := []struct {
		name string
		opts Options
	}{
		{"negative concurrency", Options{Concurrency: -1}},
		{"negative workers", Options{Workers: -2}},
		{"page size too large", Options{PageSize: 19}},
		{"negative page size", Options{PageSize: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.opts.ValidateAndSetDefaults(), errors.ErrCodeInvalidInput))
		})
	}
}

func TestSheetOptions(t *testing.T) {
	opts := Options{PageSize: 9, MaxBytes: 1 << 20, Marker: "deck", Workers: 2}
	so := opts.SheetOptions()
	assert.Equal(t, 9, so.PageSize)
	assert.Equal(t, int64(1<<20), so.Encode.MaxBytes)
	assert.Equal(t, "deck", so.Marker)
	assert.Equal(t, 2, so.Workers)
}

// ===== Resolve =====

func TestResolveDeduplicates(t *testing.T) {
	fake := newFakeResolver(t)
	runner := newTestRunner(fake)

	cards := append(remotes("Opt", "opt", "Ponder"), source.Remote{Name: "Opt", Set: "XLN", Number: "65"})
	var progress atomic.Int32
	opts := Options{OnResolved: func(done, total int) {
		assert.Equal(t, 3, total)
		progress.Add(1)
	}}
	slots, diags, stats, err := runner.Resolve(context.Background(), cards, opts)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Len(t, slots, 4)
	assert.Equal(t, 4, stats.Cards)
	assert.Equal(t, 3, stats.Unique)
	assert.Equal(t, 1, fake.count("Opt"), "case-insensitive duplicate fetched once")
	assert.Equal(t, 1, fake.count("Ponder"))
	assert.Equal(t, int32(3), progress.Load())

	ids := map[string]bool{}
	for _, s := range slots {
		assert.False(t, ids[s.ID], "slot IDs must be unique")
		ids[s.ID] = true
		assert.NotEmpty(t, s.Front)
	}
}

func TestResolveFailureDiagnostic(t *testing.T) {
	runner := newTestRunner(newFakeResolver(t, "Nope"))
	cards := remotes("Opt", "Ponder", "Nope")

	slots, diags, stats, err := runner.Resolve(context.Background(), cards, Options{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, 1, stats.Failed)

	d := diags[0]
	assert.Equal(t, sheet.ReasonResolveFailed, d.Reason)
	assert.Equal(t, "Nope", d.Card)
	assert.Equal(t, 1, d.Page)
	assert.Equal(t, 0, d.Cell)
	require.Len(t, slots, 3, "failed cards keep their slot")
	assert.Equal(t, slots[2].ID, d.SlotID)
	assert.True(t, errors.Is(d.Err, errors.ErrCodeCardNotFound))
	assert.Nil(t, slots[2].Front)
}

func TestResolveFinishFlags(t *testing.T) {
	runner := newTestRunner(newFakeResolver(t))
	cards := []source.Card{
		source.Remote{Name: "Opt", Print: source.Finish{NoFrontBorder: true}},
		source.Remote{Name: "Ponder", Print: source.Finish{NoBackBorder: true}},
	}
	slots, _, _, err := runner.Resolve(context.Background(), cards, Options{})
	require.NoError(t, err)
	assert.False(t, slots[0].FrontBorder)
	assert.True(t, slots[0].BackBorder)
	assert.True(t, slots[1].FrontBorder)
	assert.False(t, slots[1].BackBorder)

	slots, _, _, err = runner.Resolve(context.Background(), cards, Options{NoBorders: true})
	require.NoError(t, err)
	for _, s := range slots {
		assert.False(t, s.FrontBorder || s.BackBorder, "NoBorders overrides finishes")
	}
}

func TestResolveCancelled(t *testing.T) {
	runner := newTestRunner(newFakeResolver(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := runner.Resolve(ctx, remotes("Opt"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDedupeKey(t *testing.T) {
	a := dedupeKey(source.Remote{Name: "Opt ", Set: "xln", Number: "65"}, 0)
	b := dedupeKey(source.Remote{Name: "opt", Set: "XLN", Number: "65"}, 1)
	assert.Equal(t, a, b)

	inline := source.Custom{Front: []byte("x")}
	assert.NotEqual(t, dedupeKey(inline, 0), dedupeKey(inline, 1))

	path := source.Custom{Name: "Token", FrontPath: "token.png"}
	assert.Equal(t, dedupeKey(path, 0), dedupeKey(path, 1))
}

// ===== Execute =====

func TestExecute(t *testing.T) {
	runner := newTestRunner(newFakeResolver(t, "Nope"))
	cards := remotes("Opt", "Opt", "Ponder", "Nope", "Brainstorm")

	result, err := runner.Execute(context.Background(), cards, Options{PageSize: 2, Workers: 2})
	require.NoError(t, err)

	names := make([]string, len(result.Outputs))
	for i, out := range result.Outputs {
		names[i] = out.Name
		assert.NotEmpty(t, out.Data)
	}
	assert.Equal(t, []string{
		"Sheet1_Front.jpg", "Sheet1_Back.jpg",
		"Sheet2_Front.jpg", "Sheet2_Back.jpg",
		"Sheet3_Front.jpg", "Sheet3_Back.jpg",
	}, names)

	assert.Equal(t, 5, result.Stats.Cards)
	assert.Equal(t, 4, result.Stats.Unique)
	assert.Equal(t, 1, result.Stats.Failed)
	assert.Equal(t, 3, result.Stats.Pages)
	assert.Positive(t, result.Stats.Bytes)

	var reasons []sheet.Reason
	for _, d := range result.Diagnostics {
		reasons = append(reasons, d.Reason)
	}
	assert.ElementsMatch(t, []sheet.Reason{sheet.ReasonResolveFailed, sheet.ReasonMissingFront}, reasons)
}

func TestExecuteCustomCards(t *testing.T) {
	runner := NewRunner(nil, nil, discard)
	png := newFakeResolver(t).png

	cards := []source.Card{source.Custom{Name: "Token", Front: png, Back: png}}
	result, err := runner.Execute(context.Background(), cards, Options{})
	require.NoError(t, err)
	assert.Len(t, result.Outputs, 2)
	assert.Empty(t, result.Diagnostics)
}

func TestExecuteErrors(t *testing.T) {
	runner := newTestRunner(newFakeResolver(t))

	_, err := runner.Execute(context.Background(), nil, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDeck))

	_, err = runner.Execute(context.Background(), remotes("Opt"), Options{Concurrency: -1})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	many := make([]source.Card, MaxCards+1)
	for i := range many {
		many[i] = source.Remote{Name: "Opt"}
	}
	_, err = runner.Execute(context.Background(), many, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDeck))
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	assert.NotNil(t, r.Cache)
	assert.NotNil(t, r.Keyer)
	assert.NotNil(t, r.Logger)
	require.NotNil(t, r.Resolver)
	assert.Equal(t, "dispatch", r.Resolver.Name())
	assert.NoError(t, r.Close())
}

// ===== Outputs =====

func testOutputs() []sheet.Output {
	return []sheet.Output{
		{Name: "Sheet1_Front.jpg", Data: []byte("front")},
		{Name: "Sheet1_Back.jpg", Data: []byte("back")},
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteOutputs(dir, testOutputs())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(filepath.Join(dir, "Sheet1_Back.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "back", string(data))
}

func TestWriteDiagnosticsFile(t *testing.T) {
	dir := t.TempDir()
	diags := []sheet.Diagnostic{{Card: "Opt", Page: 0, Cell: 3, Reason: sheet.ReasonResolveFailed, Err: fmt.Errorf("boom")}}

	path, err := WriteDiagnosticsFile(dir, diags)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "resolve_failed", got[0]["reason"])
	assert.Equal(t, "boom", got[0]["error"])

	// A clean run removes the stale report.
	path, err = WriteDiagnosticsFile(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	_, err = os.Stat(filepath.Join(dir, DiagnosticsFile))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, testOutputs(), nil))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(data)
	}
	assert.Equal(t, "front", files["Sheet1_Front.jpg"])
	assert.Equal(t, "back", files["Sheet1_Back.jpg"])
	assert.JSONEq(t, "[]", files[DiagnosticsFile])
}
