package synth

import (
	"go.uber.org/zap"

	"github.com/embedkit/typesynth"
	"github.com/embedkit/typesynth/objmodel"
)

// Ledger is the per-type record of slot overrides: which offsets were
// written, the trampolines behind them, and the teardown actions needed
// to return the type to host defaults. At most one ledger exists per
// synthesized type.
type Ledger struct {
	m   *Manager
	typ *objmodel.TypeObject

	// The metatype never carries a foreign-instance handle of its own,
	// so its reset skips the handle release.
	isMeta bool

	slots        map[uint32]typesynth.Address
	customResets map[uint32]func(*objmodel.TypeObject)
	deallocators []func()
	keepAlive    []any
	done         bool
}

func newLedger(m *Manager, t *objmodel.TypeObject, isMeta bool) *Ledger {
	return &Ledger{
		m:            m,
		typ:          t,
		isMeta:       isMeta,
		slots:        make(map[uint32]typesynth.Address),
		customResets: make(map[uint32]func(*objmodel.TypeObject)),
	}
}

// Type returns the type this ledger tracks.
func (l *Ledger) Type() *objmodel.TypeObject { return l.typ }

// Record registers an installed trampoline for later reset. The last
// writer for an offset wins; the superseded acquisition is released, so
// the ledger holds exactly one trampoline reference per offset.
func (l *Ledger) Record(offset uint32, addr typesynth.Address) {
	if old, ok := l.slots[offset]; ok {
		l.m.thunks.Release(old)
	}
	l.slots[offset] = addr
}

// RecordCustomReset registers bespoke teardown for a slot in place of
// the plain default-value restore.
func (l *Ledger) RecordCustomReset(offset uint32, fn func(*objmodel.TypeObject)) {
	l.customResets[offset] = fn
}

// RecordDeallocator registers a teardown action, e.g. freeing an
// externally allocated method-table buffer.
func (l *Ledger) RecordDeallocator(fn func()) {
	l.deallocators = append(l.deallocators, fn)
}

// KeepAlive pins infrastructure the installed trampolines depend on
// until reset.
func (l *Ledger) KeepAlive(v any) {
	l.keepAlive = append(l.keepAlive, v)
}

// Overridden returns the recorded trampoline for an offset.
func (l *Ledger) Overridden(offset uint32) (typesynth.Address, bool) {
	addr, ok := l.slots[offset]
	return addr, ok
}

// Count returns the number of recorded slot overrides.
func (l *Ledger) Count() int { return len(l.slots) }

// Done reports whether Reset has run.
func (l *Ledger) Done() bool { return l.done }

// Reset restores every recorded slot to its host default, runs the
// registered deallocators and custom resets, clears the bookkeeping,
// and releases the type's own foreign handle. A second call is a no-op.
//
// The host may still hold references to the type when this runs, so the
// slot words are restored in place rather than left dangling.
func (l *Ledger) Reset() {
	if l.done {
		return
	}
	l.done = true

	rt := l.m.rt
	table := rt.Table()

	for offset, addr := range l.slots {
		if _, custom := l.customResets[offset]; custom {
			continue
		}
		id, ok := table.IDAt(offset)
		if !ok {
			// Recorded offsets come from the resolver; an unknown one
			// means the ledger was corrupted.
			l.m.log.DPanic("ledger holds unresolvable slot offset",
				zap.String("type", l.typ.Name),
				zap.Uint32("offset", offset))
			continue
		}
		l.typ.SetSlot(offset, rt.DefaultFor(id)) //nolint:errcheck // offset from resolver
		l.m.thunks.Release(addr)
	}

	for _, fn := range l.deallocators {
		fn()
	}
	for offset, fn := range l.customResets {
		fn(l.typ)
		if addr, ok := l.slots[offset]; ok {
			l.m.thunks.Release(addr)
		}
	}

	l.slots = make(map[uint32]typesynth.Address)
	l.customResets = make(map[uint32]func(*objmodel.TypeObject))
	l.deallocators = nil
	l.keepAlive = nil

	if !l.isMeta {
		if w := l.typ.HandleWord(); w != 0 {
			l.m.classes.Handles().ReleaseHandle(w)
			l.typ.SetHandleWord(0)
		}
	}
}
