package synth

import (
	"go.uber.org/zap"

	"github.com/embedkit/typesynth"
	"github.com/embedkit/typesynth/errors"
	"github.com/embedkit/typesynth/foreign"
	"github.com/embedkit/typesynth/objmodel"
	"github.com/embedkit/typesynth/internal/layout"
	"github.com/embedkit/typesynth/thunk"
)

// Config wires a Manager's collaborators.
type Config struct {
	// Runtime is the host native runtime. Required.
	Runtime *objmodel.Runtime

	// Classes is the foreign-class management layer. Required.
	Classes *foreign.Manager

	// Thunks provides trampoline addresses. Required.
	Thunks thunk.Provider

	// Bases resolves host base types; nil uses the standard provider
	// (foreign base's synthesized type, else the host object type).
	Bases BaseTypeProvider

	// Logger overrides the package logger for this manager.
	Logger *zap.Logger

	// FastReload skips metatype method-table cleanup at teardown,
	// deliberately abandoning the memory with the old interpreter
	// state.
	FastReload bool
}

type cacheEntry struct {
	typ         *objmodel.TypeObject
	initialized bool
}

// Manager owns the synthesis state for one embedded-interpreter
// session: the type cache, per-type ledgers, and the metatype. It is
// confined to the interpreter's owner thread.
type Manager struct {
	rt      *objmodel.Runtime
	classes *foreign.Manager
	thunks  thunk.Provider
	bases   BaseTypeProvider
	log     *zap.Logger

	cache   map[*foreign.Class]*cacheEntry
	byType  map[*objmodel.TypeObject]*foreign.Class
	ledgers map[*objmodel.TypeObject]*Ledger

	meta        *objmodel.TypeObject
	metaLedger  *Ledger
	metaMethods []objmodel.MethodDef

	fastReload bool
	tornDown   bool
}

// New builds a Manager and its metatype.
func New(cfg Config) (*Manager, error) {
	if cfg.Runtime == nil || cfg.Classes == nil || cfg.Thunks == nil {
		return nil, errors.InvalidInput(errors.PhaseSynthesize,
			"runtime, classes, and thunks are required")
	}

	m := &Manager{
		rt:         cfg.Runtime,
		classes:    cfg.Classes,
		thunks:     cfg.Thunks,
		bases:      cfg.Bases,
		log:        cfg.Logger,
		cache:      make(map[*foreign.Class]*cacheEntry),
		byType:     make(map[*objmodel.TypeObject]*foreign.Class),
		ledgers:    make(map[*objmodel.TypeObject]*Ledger),
		fastReload: cfg.FastReload,
	}
	if m.log == nil {
		m.log = Logger()
	}
	if m.bases == nil {
		m.bases = standardBases{m: m}
	}

	if err := m.buildMetatype(); err != nil {
		return nil, err
	}
	return m, nil
}

// Runtime returns the host runtime this manager synthesizes against.
func (m *Manager) Runtime() *objmodel.Runtime { return m.rt }

// Metatype returns the metaclass of all synthesized types.
func (m *Manager) Metatype() *objmodel.TypeObject { return m.meta }

// Dispatcher returns the address-resolution chain covering host
// defaults and trampolines, for wiring the collector.
func (m *Manager) Dispatcher() typesynth.Dispatcher {
	chain := typesynth.ChainDispatcher{m.rt}
	if d, ok := m.thunks.(typesynth.Dispatcher); ok {
		chain = append(chain, d)
	}
	return chain
}

// Len returns the number of cached synthesized types.
func (m *Manager) Len() int { return len(m.cache) }

// ClassOf reverse-resolves a synthesized type to its foreign class.
func (m *Manager) ClassOf(t *objmodel.TypeObject) (*foreign.Class, bool) {
	c, ok := m.byType[t]
	return c, ok
}

// LedgerOf returns the slot ledger for a synthesized type.
func (m *Manager) LedgerOf(t *objmodel.TypeObject) (*Ledger, bool) {
	l, ok := m.ledgers[t]
	return l, ok
}

// Each iterates over cached (class, type) pairs.
func (m *Manager) Each(fn func(*foreign.Class, *objmodel.TypeObject) bool) {
	for c, e := range m.cache {
		if !fn(c, e.typ) {
			return
		}
	}
}

// Synthesize returns the synthesized type for a foreign class, building
// and finalizing it on first request. Construction is all-or-nothing:
// on failure nothing remains cached and every acquired resource is
// released.
func (m *Manager) Synthesize(c *foreign.Class) (*objmodel.TypeObject, error) {
	if c == nil {
		return nil, errors.InvalidInput(errors.PhaseSynthesize, "nil class")
	}
	if e, ok := m.cache[c]; ok {
		return e.typ, nil
	}

	t := m.rt.AllocType(m.meta)
	t.Name = renderName(c)

	// Cached before initialization so base-chain synthesis re-entering
	// for this identity sees the entry instead of duplicating it.
	entry := &cacheEntry{typ: t}
	m.cache[c] = entry
	m.byType[t] = c

	if err := m.initType(c, t); err != nil {
		m.rollback(c, t)
		return nil, err
	}
	entry.initialized = true

	m.log.Debug("synthesized type",
		zap.String("class", c.FullName),
		zap.String("type", t.Name),
		zap.Uint32("basicsize", t.BasicSize),
		zap.Uint32("foreign_inst_offset", t.ForeignInstOffset))
	return t, nil
}

// GetOrInitialize returns the synthesized type for a class, installing
// slots on a cached-but-dormant entry (left by RestoreState) before
// returning it.
func (m *Manager) GetOrInitialize(c *foreign.Class) (*objmodel.TypeObject, error) {
	if e, ok := m.cache[c]; ok {
		if !e.initialized {
			if err := m.reinstall(c, e); err != nil {
				return nil, err
			}
		}
		return e.typ, nil
	}
	return m.Synthesize(c)
}

// initType performs base resolution, field layout, slot installation,
// and host finalization on a bare cached type struct.
func (m *Manager) initType(c *foreign.Class, t *objmodel.TypeObject) error {
	bases, err := m.bases.BaseTypes(c, []*objmodel.TypeObject{m.rt.ObjectType()})
	if err != nil {
		return err
	}
	if len(bases) == 0 {
		return errors.Configuration(c.FullName, "base-type provider returned no candidates")
	}
	for _, b := range bases {
		if !b.IsSubclassable() {
			return errors.New(errors.PhaseSynthesize, errors.KindTypeError).
				Class(c.FullName).
				Type(b.Name).
				Detail("proposed base is not subclassable").
				Build()
		}
	}

	primary := bases[0]
	t.Base = primary
	if len(bases) > 1 {
		t.BasesAux = bases[1:]
	}

	res, err := layout.Build(primary.BasicSize, typesynth.WordSize, []layout.Field{
		{Name: "dict", Inherit: primary.DictOffset},
		{Name: "weaklist", Inherit: primary.WeakListOffset},
		{Name: "foreign_inst"},
	})
	if err != nil {
		return errors.Wrap(errors.PhaseLayout, errors.KindTypeConstruction, err, c.FullName)
	}
	t.DictOffset = res.Offsets["dict"]
	t.WeakListOffset = res.Offsets["weaklist"]
	t.ForeignInstOffset = res.Offsets["foreign_inst"]
	t.BasicSize = res.BasicSize
	t.Flags |= objmodel.FlagBaseType | objmodel.FlagHaveGC | objmodel.FlagHasForeignInstance

	ledger, err := m.registerLedger(t, false)
	if err != nil {
		return err
	}
	if err := m.installSlots(t, c, ledger); err != nil {
		return errors.Wrap(errors.PhaseSlots, errors.KindTypeConstruction, err, c.FullName)
	}

	// The type object itself keeps its foreign class alive through a
	// lent handle, released when the ledger resets.
	h, err := m.classes.Handles().Lend(c)
	if err != nil {
		return errors.Wrap(errors.PhaseSynthesize, errors.KindTypeConstruction, err, c.FullName)
	}
	t.SetHandleWord(uint64(h))

	if err := m.rt.TypeReady(t); err != nil {
		return errors.TypeConstruction(t.Name, err)
	}

	t.Dict["__module__"] = moduleName(c.FullName)
	m.seedMethods(t, c)

	// Manual struct and dict mutation after finalization requires an
	// attribute-cache invalidation signal.
	m.rt.NotifyTypeChanged(t)
	return nil
}

// seedMethods copies method entries for the class chain into the type
// dict, most-derived wins.
func (m *Manager) seedMethods(t *objmodel.TypeObject, c *foreign.Class) {
	for cur := c; cur != nil; cur = cur.Base {
		for _, name := range cur.Methods {
			if _, exists := t.Dict[name]; exists {
				continue
			}
			t.Dict[name] = foreign.MethodRef{Class: cur, Name: name}
		}
	}
}

// reinstall brings a dormant restored entry live: slots are installed
// onto the already-laid-out struct and the attribute cache invalidated.
func (m *Manager) reinstall(c *foreign.Class, e *cacheEntry) error {
	ledger, ok := m.ledgers[e.typ]
	if !ok {
		var err error
		ledger, err = m.registerLedger(e.typ, false)
		if err != nil {
			return err
		}
	}
	if err := m.installSlots(e.typ, c, ledger); err != nil {
		return errors.Wrap(errors.PhaseSlots, errors.KindTypeConstruction, err, c.FullName)
	}
	if e.typ.HandleWord() == 0 {
		h, err := m.classes.Handles().Lend(c)
		if err != nil {
			return errors.Wrap(errors.PhaseRestore, errors.KindTypeConstruction, err, c.FullName)
		}
		e.typ.SetHandleWord(uint64(h))
	}
	if err := m.rt.TypeReady(e.typ); err != nil {
		return errors.TypeConstruction(e.typ.Name, err)
	}
	m.rt.NotifyTypeChanged(e.typ)
	e.initialized = true
	return nil
}

// registerLedger creates the single ledger for a type. A second
// registration is an invariant violation.
func (m *Manager) registerLedger(t *objmodel.TypeObject, isMeta bool) (*Ledger, error) {
	if _, dup := m.ledgers[t]; dup {
		m.log.DPanic("duplicate ledger registration", zap.String("type", t.Name))
		return nil, errors.Invariant(errors.PhaseSlots, "duplicate ledger for type "+t.Name)
	}
	l := newLedger(m, t, isMeta)
	m.ledgers[t] = l
	return l, nil
}

// rollback undoes a failed construction: slots return to defaults,
// trampolines and handles are released, and the cache entry vanishes.
func (m *Manager) rollback(c *foreign.Class, t *objmodel.TypeObject) {
	if l, ok := m.ledgers[t]; ok {
		l.Reset()
		delete(m.ledgers, t)
	} else if w := t.HandleWord(); w != 0 {
		m.classes.Handles().ReleaseHandle(w)
		t.SetHandleWord(0)
	}
	delete(m.cache, c)
	delete(m.byType, t)
	t.DecRef()
}
