package foreign

import (
	"errors"
	"sync"
)

var errTableClosed = errors.New("foreign: handle table closed")

// HandleTable lends foreign objects to the host domain. The host stores
// the returned handle word inside instance memory; the object itself
// never leaves the foreign domain. Releasing the handle severs the
// bridge reference.
type HandleTable struct {
	entries  []handleEntry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type handleEntry struct {
	value any
	refs  uint32
	valid bool
}

// NewHandleTable creates an empty handle table.
func NewHandleTable() *HandleTable {
	return &HandleTable{
		entries:  make([]handleEntry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Lend stores a foreign object and returns its handle with one
// reference.
func (t *HandleTable) Lend(value any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, errTableClosed
	}

	e := handleEntry{value: value, refs: 1, valid: true}

	if n := len(t.freeList); n > 0 {
		h := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[h-1] = e
		return h, nil
	}

	t.entries = append(t.entries, e)
	return Handle(len(t.entries)), nil
}

// Get retrieves the object behind a handle.
func (t *HandleTable) Get(h Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.at(h)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// AddRef takes an extra reference on a handle.
func (t *HandleTable) AddRef(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.at(h)
	if !ok {
		return false
	}
	e.refs++
	return true
}

// Release drops one reference; the handle is freed when the count hits
// zero. Releasing an invalid handle is a no-op, which keeps teardown
// best-effort.
func (t *HandleTable) Release(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.at(h)
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		e.valid = false
		e.value = nil
		t.freeList = append(t.freeList, h)
	}
}

// ReleaseHandle adapts Release to the host runtime's word-typed
// severing interface (objmodel.HandleReleaser).
func (t *HandleTable) ReleaseHandle(word uint64) {
	t.Release(Handle(word))
}

// Len returns the number of live handles.
func (t *HandleTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, e := range t.entries {
		if e.valid {
			n++
		}
	}
	return n
}

// Close invalidates every handle and stops accepting operations.
func (t *HandleTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.entries = nil
	t.freeList = nil
	return nil
}

func (t *HandleTable) at(h Handle) (*handleEntry, bool) {
	if h == 0 || int(h) > len(t.entries) {
		return nil, false
	}
	e := &t.entries[h-1]
	if !e.valid {
		return nil, false
	}
	return e, true
}
