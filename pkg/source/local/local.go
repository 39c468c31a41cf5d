// Package local resolves [source.Custom] cards from inline bytes, data URLs
// and files on disk.
package local

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/source"
)

// MaxImageBytes caps the size of a single custom image.
const MaxImageBytes = 64 << 20

// Options configures a [Resolver].
type Options struct {
	// BaseDir anchors relative paths, usually the deck file's directory.
	// Empty means the working directory.
	BaseDir string

	// InlineOnly rejects file paths and accepts only inline bytes and
	// data URLs. Set it when decks arrive over the network.
	InlineOnly bool
}

// Resolver implements [source.Resolver] for custom cards.
type Resolver struct {
	opts Options
}

// NewResolver creates a custom-card resolver.
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// Name implements [source.Resolver].
func (r *Resolver) Name() string { return "local" }

// Resolve loads the front and, when given, the back image. A card with a
// back image is printed double-faced even if it is not flagged as such.
func (r *Resolver) Resolve(ctx context.Context, c source.Card) (source.Images, error) {
	cc, ok := c.(source.Custom)
	if !ok {
		return source.Images{}, errors.New(errors.ErrCodeUnsupported, "local cannot resolve %T", c)
	}
	if err := ctx.Err(); err != nil {
		return source.Images{}, err
	}

	imgs := source.Images{Name: cc.Name, DoubleFaced: cc.DoubleFaced}
	front, err := r.load(cc.Front, cc.FrontPath)
	if err != nil {
		return imgs, err
	}
	if front == nil {
		return imgs, errors.New(errors.ErrCodeInvalidInput, "%s has no front image", cc.Label())
	}
	imgs.Front = front

	back, err := r.load(cc.Back, cc.BackPath)
	if err != nil {
		return imgs, err
	}
	if back != nil {
		imgs.Back = back
		imgs.DoubleFaced = true
	}
	return imgs, nil
}

// Load reads a single image reference (a data URL or a path) under the
// resolver's rules. The universal back goes through here.
func (r *Resolver) Load(ref string) ([]byte, error) {
	if ref == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty image reference")
	}
	return r.load(nil, ref)
}

func (r *Resolver) load(inline []byte, ref string) ([]byte, error) {
	if len(inline) > 0 {
		return inline, nil
	}
	if ref == "" {
		return nil, nil
	}
	if strings.HasPrefix(ref, "data:") {
		return DecodeDataURL(ref)
	}
	if r.opts.InlineOnly {
		return nil, errors.New(errors.ErrCodeInvalidPath, "file paths are not accepted here: %q", ref)
	}
	return r.readFile(ref)
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) && r.opts.BaseDir != "" {
		path = filepath.Join(r.opts.BaseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "image %s", path)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	if len(data) > MaxImageBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image %s exceeds %d bytes", path, MaxImageBytes)
	}
	return data, nil
}

// DecodeDataURL returns the payload of a data URL such as
// "data:image/png;base64,iVBORw0...". Non-base64 payloads are
// percent-decoded.
func DecodeDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "data URL has no payload")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "data URL payload")
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "data URL payload")
	}
	return []byte(data), nil
}

var _ source.Resolver = (*Resolver)(nil)
