package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/proxysheet/pkg/buildinfo"
	"github.com/matzehuels/proxysheet/pkg/deck"
	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/pipeline"
	"github.com/matzehuels/proxysheet/pkg/sheet/encode"
	"github.com/matzehuels/proxysheet/pkg/source/local"
)

// Response headers set on sheet archives.
const (
	HeaderPages       = "X-Proxysheet-Pages"
	HeaderDiagnostics = "X-Proxysheet-Diagnostics"
	HeaderPartial     = "X-Proxysheet-Partial"
)

// =============================================================================
// Request and Response Types
// =============================================================================

type decklistRequest struct {
	Decklist string `json:"decklist"`
}

type decklistResponse struct {
	Entries []deck.Entry `json:"entries"`
	Count   int          `json:"count"`
}

// sheetsRequest is the body of POST /api/v1/sheets. Decklist lines and
// structured entries are combined, decklist first. Zero values fall back
// to the server's [export] config.
type sheetsRequest struct {
	Decklist      string       `json:"decklist,omitempty"`
	Entries       []deck.Entry `json:"entries,omitempty"`
	UniversalBack string       `json:"universal_back,omitempty"`
	PageSize      int          `json:"page_size,omitempty"`
	MaxBytes      int64        `json:"max_bytes,omitempty"`
	Policy        string       `json:"policy,omitempty"`
	Marker        string       `json:"marker,omitempty"`
	NoBorders     bool         `json:"no_borders,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

// handleDecklist parses a decklist. The body is either plain text or
// {"decklist": "..."}.
func (s *Server) handleDecklist(w http.ResponseWriter, r *http.Request) {
	var text string
	if isPlainText(r) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		text = string(data)
	} else {
		var req decklistRequest
		if err := decodeJSON(r.Body, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		text = req.Decklist
	}

	entries, err := deck.ParseDecklist(text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []deck.Entry{}
	}
	writeJSON(w, http.StatusOK, decklistResponse{Entries: entries, Count: len(entries)})
}

// handleSheets renders a deck and responds with a zip archive.
func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sheetsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := req.deck()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.options(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(ctx, deck.Expand(d.Cards), opts)
	if stderrors.Is(err, context.Canceled) {
		return
	}
	if result == nil || len(result.Outputs) == 0 || errors.Is(err, errors.ErrCodeBudgetExceeded) {
		if err == nil {
			err = errors.New(errors.ErrCodeInternal, "no sheets produced")
		}
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if zerr := pipeline.WriteZip(&buf, result.Outputs, result.Diagnostics); zerr != nil {
		s.writeError(w, r, zerr)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", `attachment; filename="sheets.zip"`)
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Set(HeaderPages, strconv.Itoa(result.Stats.Pages))
	h.Set(HeaderDiagnostics, strconv.Itoa(len(result.Diagnostics)))
	if err != nil {
		h.Set(HeaderPartial, "true")
		s.logger.Warn("partial export", "id", RequestID(ctx), "err", err)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// =============================================================================
// Request Mapping
// =============================================================================

// deck combines the decklist and the structured entries.
func (req sheetsRequest) deck() (*deck.Deck, error) {
	d := &deck.Deck{UniversalBack: req.UniversalBack}
	if strings.TrimSpace(req.Decklist) != "" {
		entries, err := deck.ParseDecklist(req.Decklist)
		if err != nil {
			return nil, err
		}
		d.Cards = entries
	}
	d.Cards = append(d.Cards, req.Entries...)
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	return d, nil
}

// options merges the request over the server's export config.
func (s *Server) options(req sheetsRequest) (pipeline.Options, error) {
	exp := s.cfg.Export
	policy := exp.Policy
	if req.Policy != "" {
		policy = req.Policy
	}
	p, err := encode.ParsePolicy(policy)
	if err != nil {
		return pipeline.Options{}, err
	}
	back, err := decodeImage(req.UniversalBack)
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		PageSize:      exp.PageSize,
		MaxBytes:      exp.MaxBytes,
		Policy:        p,
		Style:         s.cfg.Style(),
		NoBorders:     req.NoBorders,
		UniversalBack: back,
		Workers:       exp.Workers,
		Marker:        exp.Marker,
		Logger:        s.logger,
	}
	if req.PageSize != 0 {
		opts.PageSize = req.PageSize
	}
	if req.MaxBytes != 0 {
		opts.MaxBytes = req.MaxBytes
	}
	if req.Marker != "" {
		opts.Marker = req.Marker
	}
	return opts, nil
}

// decodeImage accepts a data URL or bare base64. Empty means no image.
func decodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "data:") {
		return local.DecodeDataURL(s)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "universal_back is neither a data URL nor base64")
	}
	return data, nil
}

// =============================================================================
// Encoding Helpers
// =============================================================================

func isPlainText(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "text/plain"
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if stderrors.As(err, &mbe) {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: RequestID(r.Context()),
	})
}

// statusFor maps an error onto an HTTP status code.
func statusFor(err error) int {
	var mbe *http.MaxBytesError
	if stderrors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDeck, errors.ErrCodeInvalidTemplate,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidPolicy:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeCardNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeBudgetExceeded:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
