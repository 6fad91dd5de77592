// Package arena is an append-only descriptor store indexed by dense
// slots. Slots are never reused; a retired slot keeps its index so that
// stale references resolve to nothing instead of to a new occupant.
package arena

import "fmt"

// Arena holds descriptor payloads in an index space.
type Arena struct {
	entries []entry
}

type entry struct {
	payload any
	live    bool
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{entries: make([]entry, 0, 16)}
}

// Add stores a payload and returns its slot index.
func (a *Arena) Add(payload any) uint32 {
	idx := uint32(len(a.entries))
	a.entries = append(a.entries, entry{payload: payload, live: true})
	return idx
}

// Get retrieves a live payload by index.
func (a *Arena) Get(idx uint32) (any, error) {
	if int(idx) >= len(a.entries) {
		return nil, fmt.Errorf("arena index %d out of range", idx)
	}
	e := a.entries[idx]
	if !e.live {
		return nil, fmt.Errorf("arena index %d is retired", idx)
	}
	return e.payload, nil
}

// Retire marks a slot dead. The payload stays unreachable through Get
// but the index is never reissued.
func (a *Arena) Retire(idx uint32) error {
	if int(idx) >= len(a.entries) {
		return fmt.Errorf("arena index %d out of range", idx)
	}
	a.entries[idx].live = false
	a.entries[idx].payload = nil
	return nil
}

// Len returns the number of live entries.
func (a *Arena) Len() int {
	n := 0
	for _, e := range a.entries {
		if e.live {
			n++
		}
	}
	return n
}

// Each iterates over live entries in index order.
func (a *Arena) Each(fn func(idx uint32, payload any) bool) {
	for i, e := range a.entries {
		if e.live {
			if !fn(uint32(i), e.payload) {
				break
			}
		}
	}
}
