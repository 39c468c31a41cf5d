package sheet

import (
	"github.com/google/uuid"
)

// Side is one face of a printed page.
type Side int

const (
	Front Side = iota
	Back
)

func (s Side) String() string {
	if s == Back {
		return "Back"
	}
	return "Front"
}

// Slot is one physical card copy to print. Slots are built once per export
// run and never modified during it.
type Slot struct {
	ID          string
	Name        string
	Front       []byte // encoded image, nil when unavailable
	Back        []byte // encoded image, nil when unavailable
	DoubleFaced bool
	FrontBorder bool
	BackBorder  bool
}

// NewSlot returns a slot with a fresh ID and both borders enabled.
func NewSlot(name string, front, back []byte, doubleFaced bool) Slot {
	return Slot{
		ID:          uuid.NewString(),
		Name:        name,
		Front:       front,
		Back:        back,
		DoubleFaced: doubleFaced,
		FrontBorder: true,
		BackBorder:  true,
	}
}

// Label returns the slot name, falling back to its ID.
func (s Slot) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// PageGroup is the set of slots printed on one page. The position of a slot
// in Slots is its front cell index.
type PageGroup struct {
	Index int
	Slots []Slot
}

// Paginate splits slots into consecutive groups of at most size slots,
// preserving order. Only the last group may be shorter. A size below one is
// treated as one.
func Paginate(slots []Slot, size int) []PageGroup {
	if size < 1 {
		size = 1
	}
	groups := make([]PageGroup, 0, (len(slots)+size-1)/size)
	for start := 0; start < len(slots); start += size {
		end := min(start+size, len(slots))
		groups = append(groups, PageGroup{
			Index: len(groups),
			Slots: slots[start:end:end],
		})
	}
	return groups
}
