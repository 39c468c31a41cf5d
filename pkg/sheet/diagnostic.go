package sheet

import (
	"encoding/json"
	"fmt"
)

// Reason classifies a diagnostic.
type Reason string

const (
	ReasonDecodeFailed   Reason = "decode_failed"
	ReasonMissingFront   Reason = "missing_front"
	ReasonMissingBack    Reason = "missing_back"
	ReasonOverBudget     Reason = "over_budget"
	ReasonPageFailed     Reason = "page_failed"
	ReasonAspectMismatch Reason = "aspect_mismatch"
	ReasonResolveFailed  Reason = "resolve_failed"
)

// Diagnostic is a non-fatal problem found while exporting. Cell is -1 when
// the problem concerns the whole page.
type Diagnostic struct {
	SlotID string
	Card   string
	Page   int
	Side   Side
	Cell   int
	Reason Reason
	Err    error
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("page %d %s", d.Page+1, d.Side)
	if d.Cell >= 0 {
		s += fmt.Sprintf(" cell %d", d.Cell)
	}
	if d.Card != "" {
		s += fmt.Sprintf(" (%s)", d.Card)
	}
	s += ": " + string(d.Reason)
	if d.Err != nil {
		s += ": " + d.Err.Error()
	}
	return s
}

type diagnosticJSON struct {
	SlotID string `json:"slot_id,omitempty"`
	Card   string `json:"card,omitempty"`
	Page   int    `json:"page"`
	Side   string `json:"side"`
	Cell   int    `json:"cell"`
	Reason Reason `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// MarshalJSON encodes the diagnostic with a 1-based page number and the
// error as a string.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	v := diagnosticJSON{
		SlotID: d.SlotID,
		Card:   d.Card,
		Page:   d.Page + 1,
		Side:   d.Side.String(),
		Cell:   d.Cell,
		Reason: d.Reason,
	}
	if d.Err != nil {
		v.Error = d.Err.Error()
	}
	return json.Marshal(v)
}
