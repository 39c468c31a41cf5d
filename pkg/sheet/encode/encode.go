// Package encode re-encodes rendered pages as JPEG under a byte budget.
//
// [Encode] starts at a high quality and steps the quality down until the
// output fits [Options.MaxBytes] or the floor is reached. Pixels are never
// re-rendered; only the encoder quality changes between attempts.
package encode

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/proxysheet/pkg/errors"
)

// Reference encoder settings.
const (
	DefaultMaxBytes = 25 * 1024 * 1024
	DefaultStart    = 0.9
	DefaultStep     = 0.1
	DefaultFloor    = 0.1
)

// ErrBudgetExceeded is returned under [Strict] when even the floor quality
// does not fit the budget.
var ErrBudgetExceeded = errors.New(errors.ErrCodeBudgetExceeded, "encoded page exceeds byte budget")

// Policy decides what happens when the floor quality is still over budget.
type Policy int

const (
	// BestEffort returns the floor encoding flagged as over budget.
	BestEffort Policy = iota
	// Strict returns the floor encoding together with ErrBudgetExceeded.
	Strict
)

func (p Policy) String() string {
	switch p {
	case BestEffort:
		return "best-effort"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "best-effort" or "strict". An empty string is BestEffort.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best-effort", "besteffort":
		return BestEffort, nil
	case "strict":
		return Strict, nil
	default:
		return BestEffort, errors.New(errors.ErrCodeInvalidPolicy, "unknown size policy %q (use best-effort or strict)", s)
	}
}

// Attempt records one encoding pass.
type Attempt struct {
	Quality float64
	Size    int
}

// Options configures [Encode].
type Options struct {
	MaxBytes int64   // byte ceiling; 0 means DefaultMaxBytes
	Start    float64 // first quality in (0,1]; 0 means DefaultStart
	Step     float64 // quality decrement; 0 means DefaultStep
	Floor    float64 // lowest quality tried; 0 means DefaultFloor
	Policy   Policy

	// OnAttempt, if set, is called after every encoding pass.
	OnAttempt func(Attempt)
}

// ValidateAndSetDefaults fills zero fields and validates the rest. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.MaxBytes == 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.Start == 0 {
		o.Start = DefaultStart
	}
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	if o.Floor == 0 {
		o.Floor = DefaultFloor
	}
	if o.MaxBytes < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max bytes must be positive, got %d", o.MaxBytes)
	}
	if o.Start > 1 || o.Start < 0 || o.Floor < 0 || o.Floor > o.Start || o.Step < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid quality range start=%v step=%v floor=%v", o.Start, o.Step, o.Floor)
	}
	if o.Policy != BestEffort && o.Policy != Strict {
		return errors.New(errors.ErrCodeInvalidPolicy, "unknown size policy %v", o.Policy)
	}
	return nil
}

// Result is the final encoding and the attempts that led to it.
type Result struct {
	Data       []byte
	Quality    float64
	Attempts   []Attempt
	OverBudget bool
}

// Encode JPEG-encodes img, lowering the quality by Step from Start while the
// output is larger than MaxBytes and the quality is above Floor. With the
// default settings that is at most nine attempts (0.9 down to 0.1).
//
// When the floor encoding is still too large the result is flagged
// OverBudget; under Strict the error wraps ErrBudgetExceeded as well.
func Encode(img image.Image, opts Options) (Result, error) {
	if img == nil {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "no image to encode")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Result{}, err
	}

	// Work in whole percent so repeated subtraction cannot drift.
	q := percent(opts.Start)
	step := max(percent(opts.Step), 1)
	floor := percent(opts.Floor)

	var res Result
	for {
		data, err := encodeJPEG(img, q)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "encode jpeg at quality %d", q)
		}
		a := Attempt{Quality: float64(q) / 100, Size: len(data)}
		res.Attempts = append(res.Attempts, a)
		res.Data, res.Quality = data, a.Quality
		if opts.OnAttempt != nil {
			opts.OnAttempt(a)
		}

		if int64(len(data)) <= opts.MaxBytes || q <= floor {
			break
		}
		q = max(q-step, floor)
	}

	if int64(len(res.Data)) > opts.MaxBytes {
		res.OverBudget = true
		if opts.Policy == Strict {
			return res, fmt.Errorf("%w: %d bytes at quality %.1f, budget %d", ErrBudgetExceeded, len(res.Data), res.Quality, opts.MaxBytes)
		}
	}
	return res, nil
}

func percent(f float64) int {
	return int(math.Round(f * 100))
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(max(quality, 1))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
