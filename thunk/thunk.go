package thunk

import (
	"fmt"
	"sync"

	"github.com/embedkit/typesynth"
	"github.com/embedkit/typesynth/objmodel"
)

// Handler names one slot implementation entry point: the implementation
// level that declares it and the slot it serves.
type Handler struct {
	Owner string
	Name  string
}

func (h Handler) String() string { return h.Owner + "." + h.Name }

// Provider hands out trampoline addresses for handlers.
type Provider interface {
	// Trampoline returns the native-callable address for a handler,
	// stable until released.
	Trampoline(h Handler) (typesynth.Address, error)

	// Release invalidates a trampoline address.
	Release(addr typesynth.Address)
}

// Table is the in-process Provider: it memoizes handler addresses,
// dispatches invocations to bound Go entry points, and tracks live
// trampolines for leak checks. Addresses are refcounted; a memoized
// address stays valid until released as many times as it was handed
// out.
type Table struct {
	mu        sync.RWMutex
	next      typesynth.Address
	byHandler map[Handler]typesynth.Address
	byAddr    map[typesynth.Address]*tableEntry
	impls     map[Handler]typesynth.SlotFunc
}

type tableEntry struct {
	handler Handler
	fn      typesynth.SlotFunc
	refs    int
}

// NewTable creates an empty trampoline table.
func NewTable() *Table {
	return &Table{
		next:      objmodel.ReservedCeiling,
		byHandler: make(map[Handler]typesynth.Address),
		byAddr:    make(map[typesynth.Address]*tableEntry),
		impls:     make(map[Handler]typesynth.SlotFunc),
	}
}

// Bind registers the Go entry point behind a handler. Unbound handlers
// still receive addresses; invoking one reports the missing binding.
func (t *Table) Bind(h Handler, fn typesynth.SlotFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.impls[h] = fn
	if addr, ok := t.byHandler[h]; ok {
		t.byAddr[addr].fn = fn
	}
}

// Trampoline returns the stable address for a handler, allocating one
// on first request.
func (t *Table) Trampoline(h Handler) (typesynth.Address, error) {
	if h.Owner == "" || h.Name == "" {
		return 0, fmt.Errorf("thunk: incomplete handler %q", h)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if addr, ok := t.byHandler[h]; ok {
		t.byAddr[addr].refs++
		return addr, nil
	}

	addr := t.next
	t.next++

	fn := t.impls[h]
	if fn == nil {
		fn = unboundStub(h)
	}
	t.byHandler[h] = addr
	t.byAddr[addr] = &tableEntry{handler: h, fn: fn, refs: 1}
	return addr, nil
}

// Release drops one reference to a trampoline, invalidating it when the
// last holder lets go. A later Trampoline call for the same handler then
// allocates a fresh address.
func (t *Table) Release(addr typesynth.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.byAddr[addr]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(t.byAddr, addr)
	delete(t.byHandler, e.handler)
}

// Resolve implements typesynth.Dispatcher.
func (t *Table) Resolve(addr typesynth.Address) (typesynth.SlotFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.byAddr[addr]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// HandlerAt reverse-resolves an address for diagnostics.
func (t *Table) HandlerAt(addr typesynth.Address) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.byAddr[addr]
	if !ok {
		return Handler{}, false
	}
	return e.handler, true
}

// Live returns the number of live trampolines.
func (t *Table) Live() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byAddr)
}

func unboundStub(h Handler) typesynth.SlotFunc {
	return func(recv any, args ...any) (any, error) {
		return nil, fmt.Errorf("thunk: handler %q has no bound implementation", h)
	}
}
