package pipeline

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/proxysheet/pkg/sheet"
)

// DiagnosticsFile is the name of the diagnostics report next to the sheets.
const DiagnosticsFile = "diagnostics.json"

// WriteOutputs writes every output into dir, creating it if needed, and
// returns the written paths.
func WriteOutputs(dir string, outputs []sheet.Output) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.Name)
		if err := os.WriteFile(path, out.Data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", out.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteDiagnostics writes diags as an indented JSON array.
func WriteDiagnostics(w io.Writer, diags []sheet.Diagnostic) error {
	if diags == nil {
		diags = []sheet.Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

// WriteDiagnosticsFile writes diags to dir/diagnostics.json. Nothing is
// written when there are none; a stale report from an earlier run is removed.
func WriteDiagnosticsFile(dir string, diags []sheet.Diagnostic) (string, error) {
	path := filepath.Join(dir, DiagnosticsFile)
	if len(diags) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", err
		}
		return "", nil
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteDiagnostics(f, diags); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// WriteZip writes the outputs and a diagnostics.json report as a zip archive.
func WriteZip(w io.Writer, outputs []sheet.Output, diags []sheet.Diagnostic) error {
	zw := zip.NewWriter(w)
	for _, out := range outputs {
		// JPEGs do not compress further.
		f, err := zw.CreateHeader(&zip.FileHeader{Name: out.Name, Method: zip.Store})
		if err != nil {
			return err
		}
		if _, err := f.Write(out.Data); err != nil {
			return err
		}
	}
	f, err := zw.Create(DiagnosticsFile)
	if err != nil {
		return err
	}
	if err := WriteDiagnostics(f, diags); err != nil {
		return err
	}
	return zw.Close()
}
