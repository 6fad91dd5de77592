package synth

import (
	"go.uber.org/zap"

	"github.com/embedkit/typesynth/foreign"
	"github.com/embedkit/typesynth/objmodel"
	"github.com/embedkit/typesynth/thunk"
)

// implLevel is one statically declared implementation level: the slots
// it claims and an optional hook for capability-gated slots the generic
// enumeration cannot express. Levels chain via parent; installation
// walks most-derived-first, so a level's slots are never shadowed by
// its ancestors.
type implLevel struct {
	name   string
	parent *implLevel
	slots  []string
	extra  func(*installCtx) error
}

var levelBase = &implLevel{
	name: "base",
	slots: []string{
		"tp_getattro",
		"tp_setattro",
		"tp_hash",
		"tp_richcompare",
		"tp_repr",
		"tp_dealloc",
		"tp_iter",
	},
}

var levelClass = &implLevel{
	name:   "class",
	parent: levelBase,
	slots: []string{
		"tp_new",
		"tp_init",
		"tp_repr",
		"tp_str",
	},
	extra: classCapabilitySlots,
}

var levelInterface = &implLevel{
	name:   "interface",
	parent: levelBase,
	slots:  []string{"tp_new"},
}

var levelDelegate = &implLevel{
	name:   "delegate",
	parent: levelClass,
	slots:  []string{"tp_call", "tp_new"},
}

var levelArray = &implLevel{
	name:   "array",
	parent: levelClass,
	slots: []string{
		"mp_length",
		"mp_subscript",
		"mp_ass_subscript",
		"sq_length",
		"sq_item",
		"sq_contains",
	},
}

var levelException = &implLevel{
	name:   "exception",
	parent: levelClass,
	slots:  []string{"tp_repr", "tp_str"},
}

// mandatorySlots must be populated on every synthesized type; the
// host collector dereferences them unconditionally.
var mandatorySlots = []string{"tp_traverse", "tp_clear"}

func levelFor(k foreign.Kind) *implLevel {
	switch k {
	case foreign.KindInterface:
		return levelInterface
	case foreign.KindDelegate:
		return levelDelegate
	case foreign.KindArray:
		return levelArray
	case foreign.KindException:
		return levelException
	default:
		return levelClass
	}
}

// classCapabilitySlots installs the length/index/iteration slots gated
// on the foreign class's capabilities. Non-iterable classes claim
// tp_iter without installing it, which suppresses the base default and
// leaves the slot null.
func classCapabilitySlots(ic *installCtx) error {
	if ic.class.Iterable {
		if err := ic.install("tp_iter", "class"); err != nil {
			return err
		}
		if err := ic.install("tp_iternext", "class"); err != nil {
			return err
		}
	} else {
		ic.disable("tp_iter")
		ic.disable("tp_iternext")
	}

	if ic.class.Sized {
		if err := ic.install("mp_length", "class"); err != nil {
			return err
		}
		if err := ic.install("sq_length", "class"); err != nil {
			return err
		}
	}
	if ic.class.Indexable {
		if err := ic.install("mp_subscript", "class"); err != nil {
			return err
		}
		if err := ic.install("mp_ass_subscript", "class"); err != nil {
			return err
		}
	}
	return nil
}

// installCtx carries one slot-installation walk.
type installCtx struct {
	m       *Manager
	typ     *objmodel.TypeObject
	class   *foreign.Class
	ledger  *Ledger
	claimed map[string]bool
}

// install claims a slot for the named owner level and writes its
// trampoline. Already-claimed slots are left to the more derived owner.
func (ic *installCtx) install(slot, owner string) error {
	if ic.claimed[slot] {
		return nil
	}
	info, ok := ic.m.rt.Table().Lookup(slot)
	if !ok {
		ic.m.log.DPanic("static slot table names unknown slot",
			zap.String("slot", slot),
			zap.String("owner", owner))
		return nil
	}

	addr, err := ic.m.thunks.Trampoline(thunk.Handler{Owner: owner, Name: slot})
	if err != nil {
		return err
	}
	if err := ic.typ.SetSlot(info.Offset, addr); err != nil {
		return err
	}
	ic.ledger.Record(info.Offset, addr)
	ic.claimed[slot] = true
	return nil
}

// disable claims a slot without installing it, leaving it null.
func (ic *installCtx) disable(slot string) {
	ic.claimed[slot] = true
}

// installSlots walks the implementation chain most-derived-first,
// installing each level's declared slots, running its capability hook,
// then backfilling the mandatory GC bridge slots with host defaults.
func (m *Manager) installSlots(t *objmodel.TypeObject, c *foreign.Class, ledger *Ledger) error {
	ic := &installCtx{
		m:       m,
		typ:     t,
		class:   c,
		ledger:  ledger,
		claimed: make(map[string]bool),
	}

	for level := levelFor(c.Kind); level != nil; level = level.parent {
		for _, slot := range level.slots {
			if err := ic.install(slot, level.name); err != nil {
				return err
			}
		}
		if level.extra != nil {
			if err := level.extra(ic); err != nil {
				return err
			}
		}
	}

	for _, slot := range mandatorySlots {
		if ic.claimed[slot] {
			continue
		}
		info, ok := m.rt.Table().Lookup(slot)
		if !ok {
			continue
		}
		id, _ := m.rt.Table().IDAt(info.Offset)
		if err := t.SetSlot(info.Offset, m.rt.DefaultFor(id)); err != nil {
			return err
		}
		ic.claimed[slot] = true
	}
	return nil
}
