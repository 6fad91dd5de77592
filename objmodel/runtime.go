package objmodel

import (
	"fmt"

	"github.com/embedkit/typesynth"
)

// HandleReleaser severs a foreign-instance handle back into the foreign
// domain. The host clear slot calls it; the foreign domain owns the
// referenced object.
type HandleReleaser interface {
	ReleaseHandle(word uint64)
}

// Runtime is the host native runtime collaborator: generic allocation,
// type-ready finalization, attribute-cache invalidation, and the default
// slot implementations synthesized types fall back to.
//
// Default implementations occupy reserved addresses below
// ReservedCeiling so they are distinguishable from trampolines.
type Runtime struct {
	version ModelVersion
	table   *SlotTable

	typeType   *TypeObject
	objectType *TypeObject

	defaults map[SlotID]typesynth.Address
	funcs    map[typesynth.Address]typesynth.SlotFunc
	nextAddr typesynth.Address

	releaser   HandleReleaser
	changeSeq  uint64
	readyCount int
}

// ReservedCeiling is the first address available to trampoline
// providers. Every address below it belongs to the host runtime.
const ReservedCeiling typesynth.Address = 0x100

// Option configures a Runtime.
type Option func(*Runtime)

// WithHandleReleaser wires the foreign-domain releaser the default clear
// slot severs handles through.
func WithHandleReleaser(r HandleReleaser) Option {
	return func(rt *Runtime) { rt.releaser = r }
}

// NewRuntime builds a host runtime for one contract version. Panics if
// the version is unknown; the contract is compiled in, so an unknown
// version is a programming error, not an input error.
func NewRuntime(v ModelVersion, opts ...Option) *Runtime {
	table := TableFor(v)
	if table == nil {
		panic(fmt.Sprintf("objmodel: unknown model version %d", v))
	}

	rt := &Runtime{
		version:  v,
		table:    table,
		defaults: make(map[SlotID]typesynth.Address),
		funcs:    make(map[typesynth.Address]typesynth.SlotFunc),
		nextAddr: 1,
	}
	for _, o := range opts {
		o(rt)
	}

	rt.installDefaults()
	rt.bootstrapTypes()
	return rt
}

// Table returns the slot resolver for the live contract version.
func (rt *Runtime) Table() *SlotTable { return rt.table }

// Version returns the live contract version.
func (rt *Runtime) Version() ModelVersion { return rt.version }

// TypeType returns the host's own metaclass ("type").
func (rt *Runtime) TypeType() *TypeObject { return rt.typeType }

// ObjectType returns the host's root base type ("object").
func (rt *Runtime) ObjectType() *TypeObject { return rt.objectType }

// AllocType performs generic heap-type allocation: a bare, unfinalized
// type struct parented to the given metaclass, refcounted at one.
func (rt *Runtime) AllocType(meta *TypeObject) *TypeObject {
	if meta == nil {
		meta = rt.typeType
	}
	return &TypeObject{
		Flags: FlagHeapType,
		Meta:  meta,
		Dict:  make(map[string]any),
		refs:  1,
		slots: make([]typesynth.Address, rt.table.Count()),
		table: rt.table,
	}
}

// TypeReady finalizes a type struct: validates it, readies the base
// chain, inherits unset slots and sizes from the primary base, and
// stamps FlagReady. Finalizing an already-ready type is a no-op.
func (rt *Runtime) TypeReady(t *TypeObject) error {
	if t.IsReady() {
		return nil
	}
	if t.HasFlag(FlagReadying) {
		return fmt.Errorf("type %q: recursive finalization", t.Name)
	}
	if t.Name == "" {
		return fmt.Errorf("type has no name")
	}

	t.Flags |= FlagReadying
	defer func() { t.Flags &^= FlagReadying }()

	if t.Base == nil && t != rt.objectType {
		t.Base = rt.objectType
	}
	if t.Base != nil {
		if err := rt.TypeReady(t.Base); err != nil {
			return fmt.Errorf("type %q: base not ready: %w", t.Name, err)
		}
	}

	if t.Base != nil {
		rt.inheritSlots(t, t.Base)
		if t.BasicSize == 0 {
			t.BasicSize = t.Base.BasicSize
		}
	}

	// A GC-tracked type with null traverse or clear would corrupt the
	// collector; refuse to finalize it.
	if t.HasFlag(FlagHaveGC) {
		if t.SlotByID(TpTraverse) == 0 || t.SlotByID(TpClear) == 0 {
			return fmt.Errorf("type %q: GC type lacks traverse/clear", t.Name)
		}
	}

	t.Flags |= FlagReady
	t.versionTag++
	rt.readyCount++
	return nil
}

func (rt *Runtime) inheritSlots(t, base *TypeObject) {
	b, end := rt.table.Region()
	for off := b; off < end; off += typesynth.WordSize {
		if t.Slot(off) == 0 {
			t.SetSlot(off, base.Slot(off)) //nolint:errcheck // offset from Region
		}
	}
}

// NotifyTypeChanged invalidates the host's attribute cache for a type.
// Required after any manual mutation of a ready type's dict or struct.
func (rt *Runtime) NotifyTypeChanged(t *TypeObject) {
	t.versionTag++
	rt.changeSeq++
}

// ChangeSeq returns the global attribute-cache invalidation counter.
func (rt *Runtime) ChangeSeq() uint64 { return rt.changeSeq }

// DefaultFor returns the host default address for a slot identity:
// traverse/clear map to the generic subtype implementations,
// dealloc/free to the base object implementations, tp_new to generic
// new, the attribute slots to the generic accessors. tp_call and every
// other slot default to unset.
func (rt *Runtime) DefaultFor(id SlotID) typesynth.Address {
	return rt.defaults[id]
}

// Resolve implements typesynth.Dispatcher for reserved addresses.
func (rt *Runtime) Resolve(addr typesynth.Address) (typesynth.SlotFunc, bool) {
	fn, ok := rt.funcs[addr]
	return fn, ok
}

func (rt *Runtime) reserve(fn typesynth.SlotFunc) typesynth.Address {
	addr := rt.nextAddr
	if addr >= ReservedCeiling {
		panic("objmodel: reserved address space exhausted")
	}
	rt.nextAddr++
	rt.funcs[addr] = fn
	return addr
}

func (rt *Runtime) installDefaults() {
	rt.defaults[TpTraverse] = rt.reserve(rt.subtypeTraverse)
	rt.defaults[TpClear] = rt.reserve(rt.subtypeClear)
	rt.defaults[TpDealloc] = rt.reserve(rt.objectDealloc)
	rt.defaults[TpFree] = rt.reserve(rt.objectFree)
	rt.defaults[TpNew] = rt.reserve(rt.genericNew)
	rt.defaults[TpGetattro] = rt.reserve(rt.genericGetattr)
	rt.defaults[TpSetattro] = rt.reserve(rt.genericSetattr)
	// tp_call has no generic default; it stays unset.
}

func (rt *Runtime) bootstrapTypes() {
	rt.objectType = &TypeObject{
		Name:      "object",
		Flags:     FlagBaseType,
		BasicSize: 2 * typesynth.WordSize,
		Dict:      make(map[string]any),
		refs:      1,
		slots:     make([]typesynth.Address, rt.table.Count()),
		table:     rt.table,
	}
	for id, addr := range rt.defaults {
		off, _ := rt.table.OffsetOf(id)
		rt.objectType.SetSlot(off, addr) //nolint:errcheck // offset from table
	}

	rt.typeType = &TypeObject{
		Name:      "type",
		Flags:     FlagBaseType | FlagHaveGC,
		BasicSize: rt.objectType.BasicSize + 4*typesynth.WordSize,
		Base:      rt.objectType,
		Dict:      make(map[string]any),
		refs:      1,
		slots:     make([]typesynth.Address, rt.table.Count()),
		table:     rt.table,
	}
	rt.typeType.Meta = rt.typeType

	if err := rt.TypeReady(rt.objectType); err != nil {
		panic(fmt.Sprintf("objmodel: object bootstrap: %v", err))
	}
	if err := rt.TypeReady(rt.typeType); err != nil {
		panic(fmt.Sprintf("objmodel: type bootstrap: %v", err))
	}
}
