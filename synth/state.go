package synth

import (
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/embedkit/typesynth/errors"
	"github.com/embedkit/typesynth/foreign"
	"github.com/embedkit/typesynth/objmodel"
)

// Teardown resets every synthesized type's slots to host defaults and
// releases the cache. Types the host still references survive as
// defaulted shells; their slot tables would otherwise keep trampoline
// addresses that stop resolving, which is why the reset precedes the
// release. The metatype is torn down last. Must not run while any
// thread can be invoking slot trampolines.
func (m *Manager) Teardown() {
	if m.tornDown {
		return
	}
	m.tornDown = true

	for _, e := range m.cache {
		t := e.typ
		if l, ok := m.ledgers[t]; ok {
			l.Reset()
		}
		external := t.RefCount() > 1
		t.DecRef()
		m.log.Debug("released synthesized type",
			zap.String("type", t.Name),
			zap.Bool("externally_referenced", external))
	}

	m.cache = make(map[*foreign.Class]*cacheEntry)
	m.byType = make(map[*objmodel.TypeObject]*foreign.Class)
	m.ledgers = make(map[*objmodel.TypeObject]*Ledger)

	if m.metaLedger != nil {
		m.metaLedger.Reset()
		m.meta.DecRef()
	}
}

// Snapshot is the opaque save/restore payload: the cache contents keyed
// by foreign identity token. It has no serialized form; it only crosses
// a host restart in process.
type Snapshot struct {
	entries map[foreign.Token]snapEntry
}

type snapEntry struct {
	typ         *objmodel.TypeObject
	ledger      *Ledger
	initialized bool
}

// Len returns the number of saved entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// SaveState detaches the cache into a snapshot for a host restart. The
// manager is left empty; the type objects stay live inside the
// snapshot, slots untouched.
func (m *Manager) SaveState() *Snapshot {
	s := &Snapshot{entries: make(map[foreign.Token]snapEntry, len(m.cache))}
	for c, e := range m.cache {
		s.entries[c.Token()] = snapEntry{
			typ:         e.typ,
			ledger:      m.ledgers[e.typ],
			initialized: e.initialized,
		}
	}

	m.cache = make(map[*foreign.Class]*cacheEntry)
	m.byType = make(map[*objmodel.TypeObject]*foreign.Class)
	m.ledgers = make(map[*objmodel.TypeObject]*Ledger)

	m.log.Debug("saved synthesis state", zap.Int("entries", s.Len()))
	return s
}

// RestoreState repopulates an empty cache from a snapshot. Entries
// whose token no longer resolves to a live class are disposed of. The
// rest are re-admitted; entries that were live when saved get their
// slots re-installed now, dormant ones wait for GetOrInitialize.
// Restoring into a non-empty cache is an invariant violation.
func (m *Manager) RestoreState(s *Snapshot) error {
	if len(m.cache) != 0 {
		m.log.DPanic("restore into non-empty cache", zap.Int("cached", len(m.cache)))
		return errors.Invariant(errors.PhaseRestore, "cache must be empty before restore")
	}
	if s == nil {
		return errors.InvalidInput(errors.PhaseRestore, "nil snapshot")
	}

	tokens := maps.Keys(s.entries)
	slices.Sort(tokens)

	restored, dropped := 0, 0
	for _, tok := range tokens {
		e := s.entries[tok]
		c, live := m.classes.Resolve(tok)
		if !live {
			m.disposeDead(e)
			dropped++
			continue
		}

		entry := &cacheEntry{typ: e.typ}
		m.cache[c] = entry
		m.byType[e.typ] = c
		if e.ledger != nil {
			m.ledgers[e.typ] = e.ledger
		}
		if e.initialized {
			if err := m.reinstall(c, entry); err != nil {
				return err
			}
		}
		restored++
	}

	m.log.Debug("restored synthesis state",
		zap.Int("restored", restored),
		zap.Int("dropped", dropped))
	return nil
}

// disposeDead releases a restored type whose class no longer exists:
// slots return to defaults, trampolines and the handle are released,
// and the type abandoned.
func (m *Manager) disposeDead(e snapEntry) {
	if e.ledger != nil {
		e.ledger.Reset()
	} else if w := e.typ.HandleWord(); w != 0 {
		m.classes.Handles().ReleaseHandle(w)
		e.typ.SetHandleWord(0)
	}
	e.typ.DecRef()
}
