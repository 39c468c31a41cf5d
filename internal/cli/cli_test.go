package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/proxysheet/pkg/config"
	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/sheet/encode"
)

func TestExportFlagsOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Export.PageSize = 9
	cfg.Export.Workers = 2
	cfg.Export.Marker = "from config"

	var f exportFlags
	opts, err := f.options(cfg)
	require.NoError(t, err)
	assert.Equal(t, 9, opts.PageSize)
	assert.Equal(t, cfg.Export.MaxBytes, opts.MaxBytes)
	assert.Equal(t, encode.BestEffort, opts.Policy)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, "from config", opts.Marker)
	assert.False(t, opts.NoBorders)

	f = exportFlags{pageSize: 4, maxBytes: 1 << 20, policy: "strict", marker: "flag", noBorder: true, workers: 6}
	opts, err = f.options(cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, opts.PageSize)
	assert.EqualValues(t, 1<<20, opts.MaxBytes)
	assert.Equal(t, encode.Strict, opts.Policy)
	assert.Equal(t, 6, opts.Workers)
	assert.Equal(t, "flag", opts.Marker)
	assert.True(t, opts.NoBorders)

	f = exportFlags{policy: "sometimes"}
	_, err = f.options(cfg)
	assert.Error(t, err)
}

func TestFirstNonZero(t *testing.T) {
	assert.Equal(t, 3, firstNonZero(0, 3, 5))
	assert.Equal(t, "a", firstNonZero("", "a"))
	assert.Equal(t, "", firstNonZero("", ""))
}

func printingsServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/search" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"name": "Sol Ring", "set": "cmm", "collector_number": "464"},
				{"name": "Sol Ring", "set": "c21", "collector_number": "263"},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunPickSinglePrinting(t *testing.T) {
	c := testCLI(t, config.BackendNone)
	c.Config.Scryfall.BaseURL = printingsServer(t).URL

	var out bytes.Buffer
	err := c.runPick(context.Background(), "Sol Ring", pickOpts{quantity: 2, set: "C21"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "2 Sol Ring (C21) 263\n", out.String())
}

func TestRunPickAppend(t *testing.T) {
	c := testCLI(t, config.BackendNone)
	c.Config.Scryfall.BaseURL = printingsServer(t).URL
	path := filepath.Join(t.TempDir(), "deck.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 Island"), 0o644))

	var out bytes.Buffer
	err := c.runPick(context.Background(), "Sol Ring", pickOpts{quantity: 1, set: "cmm", append: path}, &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1 Island\n1 Sol Ring (CMM) 464\n", string(data))
}

func TestRunPickErrors(t *testing.T) {
	c := testCLI(t, config.BackendNone)
	c.Config.Scryfall.BaseURL = printingsServer(t).URL
	ctx := context.Background()

	err := c.runPick(ctx, "Sol Ring", pickOpts{quantity: 0}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	err = c.runPick(ctx, "Sol Ring", pickOpts{quantity: 1, set: "not a set"}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDeck))

	err = c.runPick(ctx, "Sol Ring", pickOpts{quantity: 1, set: "lea"}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrCodeCardNotFound))
}
