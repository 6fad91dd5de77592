package synth

import (
	"go.uber.org/zap"

	"github.com/embedkit/typesynth"
	"github.com/embedkit/typesynth/errors"
	"github.com/embedkit/typesynth/objmodel"
	"github.com/embedkit/typesynth/internal/layout"
	"github.com/embedkit/typesynth/thunk"
)

// metaMethodCatalog is the fixed set of metaclass-level methods every
// synthesized type exposes through its metaclass.
var metaMethodCatalog = []struct {
	name string
	doc  string
}{
	{"__instancecheck__", "isinstance check against the foreign class hierarchy"},
	{"__subclasscheck__", "issubclass check against the foreign class hierarchy"},
}

// metaSlots are the metaclass slots driving type instantiation and
// interpreter-side subclassing.
var metaSlots = []string{"tp_call", "tp_new", "tp_getattro", "tp_setattro"}

// buildMetatype constructs the single type-of-types for this manager.
// Its base is the host's own metaclass; its instance layout appends two
// words: the descriptor recording which offset holds the foreign
// handle, and the handle slot itself.
func (m *Manager) buildMetatype() error {
	host := m.rt.TypeType()
	meta := m.rt.AllocType(host)
	meta.Name = "InteropMeta"
	meta.Base = host

	res, err := layout.Build(host.BasicSize, typesynth.WordSize, []layout.Field{
		{Name: "inst_offset_descr"},
		{Name: "inst_handle"},
	})
	if err != nil {
		return errors.Wrap(errors.PhaseMetatype, errors.KindTypeConstruction, err, "metatype layout")
	}
	meta.BasicSize = res.BasicSize
	meta.ForeignInstOffset = res.Offsets["inst_handle"]
	meta.Flags |= objmodel.FlagBaseType | objmodel.FlagHaveGC

	ledger, err := m.registerLedger(meta, true)
	if err != nil {
		return err
	}

	for _, slot := range metaSlots {
		info, ok := m.rt.Table().Lookup(slot)
		if !ok {
			continue
		}
		addr, err := m.thunks.Trampoline(thunk.Handler{Owner: "metatype", Name: slot})
		if err != nil {
			return errors.Wrap(errors.PhaseMetatype, errors.KindTypeConstruction, err, slot)
		}
		meta.SetSlot(info.Offset, addr) //nolint:errcheck // offset from resolver
		ledger.Record(info.Offset, addr)
	}

	// Contiguous method table with a zero sentinel terminator the host
	// scans for.
	table := make([]objmodel.MethodDef, len(metaMethodCatalog)+1)
	for i, cat := range metaMethodCatalog {
		addr, err := m.thunks.Trampoline(thunk.Handler{Owner: "metatype", Name: cat.name})
		if err != nil {
			return errors.Wrap(errors.PhaseMetatype, errors.KindTypeConstruction, err, cat.name)
		}
		table[i] = objmodel.MethodDef{Name: cat.name, Addr: addr, Doc: cat.doc}
		meta.Dict[cat.name] = &objmodel.MethodDescriptor{Def: &table[i], Owner: meta}

		idx, name := i, cat.name
		ledger.RecordDeallocator(func() {
			if m.fastReload {
				// Fast reload abandons the table with the old
				// interpreter state instead of unwinding it.
				return
			}
			table[idx] = objmodel.MethodDef{}
			delete(meta.Dict, name)
			m.thunks.Release(addr)
		})
	}
	ledger.KeepAlive(table)
	m.metaMethods = table

	if err := m.rt.TypeReady(meta); err != nil {
		return errors.Wrap(errors.PhaseMetatype, errors.KindTypeConstruction, err, "metatype finalization")
	}

	m.meta = meta
	m.metaLedger = ledger
	m.log.Debug("metatype ready",
		zap.Uint32("basicsize", meta.BasicSize),
		zap.Int("methods", len(metaMethodCatalog)))
	return nil
}

// MetaMethodTable exposes the metatype's native method table, sentinel
// included, for host scanning.
func (m *Manager) MetaMethodTable() []objmodel.MethodDef {
	return m.metaMethods
}
