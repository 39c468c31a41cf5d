package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(ErrCodeInvalidDeck, "line %d: missing quantity", 3)

	assert.Equal(t, ErrCodeInvalidDeck, err.Code)
	assert.Equal(t, "line 3: missing quantity", err.Message)
	assert.Equal(t, "INVALID_DECK: line 3: missing quantity", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeDecodeFailed, cause, "front of %s", "Shock")

	assert.Equal(t, "DECODE_FAILED: front of Shock: unexpected EOF", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
	assert.ErrorIs(t, err, cause)
}

func TestCodeLookup(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"direct", New(ErrCodeCardNotFound, "Shock"), ErrCodeCardNotFound},
		{"outermost wins", Wrap(ErrCodeNetwork, New(ErrCodeTimeout, "inner"), "outer"), ErrCodeNetwork},
		{"fmt wrapped", fmt.Errorf("slot 4: %w", New(ErrCodeBudgetExceeded, "too big")), ErrCodeBudgetExceeded},
		{"plain", errors.New("boom"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetCode(tt.err))
			if tt.code != "" {
				assert.True(t, Is(tt.err, tt.code))
			}
			assert.False(t, Is(tt.err, ErrCodeInternal))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "no cards found", UserMessage(New(ErrCodeInvalidDeck, "no cards found")))
	assert.Equal(t, "card 2: too many", UserMessage(fmt.Errorf("wrapped: %w", New(ErrCodeInvalidDeck, "card 2: too many"))))
	assert.Equal(t, "disk full", UserMessage(errors.New("disk full")))
}

func TestRateLimitedError(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 30}
	assert.Equal(t, "rate limited: retry after 30 seconds", err.Error())
	assert.Equal(t, ErrCodeRateLimited, err.Code())
	assert.Equal(t, "rate limited", (&RateLimitedError{}).Error())

	var rl *RateLimitedError
	require.ErrorAs(t, fmt.Errorf("catalog: %w", err), &rl)
	assert.Equal(t, 30, rl.RetryAfter)
}
