package objmodel

import (
	"fmt"

	"github.com/embedkit/typesynth"
)

// Flags is the tp_flags word of a type object. Bit positions follow the
// V1 contract.
type Flags uint32

const (
	// FlagHeapType is set on dynamically allocated type objects.
	FlagHeapType Flags = 1 << 9

	// FlagBaseType marks a type as subclassable.
	FlagBaseType Flags = 1 << 10

	// FlagReady is set once finalization completed.
	FlagReady Flags = 1 << 12

	// FlagReadying guards against recursive finalization.
	FlagReadying Flags = 1 << 13

	// FlagHaveGC marks instances as tracked by the host collector.
	FlagHaveGC Flags = 1 << 14

	// FlagHasForeignInstance marks types whose instances embed a
	// foreign-instance handle.
	FlagHasForeignInstance Flags = 1 << 15
)

// TypeObject is the native type struct model: size, flags, base chain,
// auxiliary field offsets, the function-pointer slot table, and the
// attribute dictionary.
//
// Once finalized (FlagReady), BasicSize and ForeignInstOffset never
// change.
type TypeObject struct {
	Name  string
	Flags Flags

	// BasicSize is the instance allocation size in bytes.
	BasicSize uint32

	// Auxiliary field offsets within instances. Zero means absent.
	DictOffset        uint32
	WeakListOffset    uint32
	ForeignInstOffset uint32

	// Base is the primary base determining field layout. BasesAux holds
	// secondary bases contributing to the MRO only; they never affect
	// offsets.
	Base     *TypeObject
	BasesAux []*TypeObject

	// Meta is the metaclass this type was allocated from.
	Meta *TypeObject

	// Dict is the type attribute table.
	Dict map[string]any

	refs       int64
	slots      []typesynth.Address
	table      *SlotTable
	handleWord uint64
	versionTag uint64
}

// RefCount returns the host-visible reference count. The synthesis cache
// holds an implicit floor of one.
func (t *TypeObject) RefCount() int64 { return t.refs }

// IncRef adds a host-side reference.
func (t *TypeObject) IncRef() { t.refs++ }

// DecRef drops a reference and returns the remaining count.
func (t *TypeObject) DecRef() int64 {
	if t.refs > 0 {
		t.refs--
	}
	return t.refs
}

// HasFlag reports whether all bits of f are set.
func (t *TypeObject) HasFlag(f Flags) bool { return t.Flags&f == f }

// IsReady reports whether finalization completed.
func (t *TypeObject) IsReady() bool { return t.HasFlag(FlagReady) }

// IsSubclassable reports whether interpreter code may subclass this type.
func (t *TypeObject) IsSubclassable() bool { return t.HasFlag(FlagBaseType) }

// Slot reads the slot word at a byte offset. Unknown offsets read as 0.
func (t *TypeObject) Slot(offset uint32) typesynth.Address {
	idx, ok := t.slotIndex(offset)
	if !ok {
		return 0
	}
	return t.slots[idx]
}

// SetSlot writes the slot word at a byte offset. Writes outside the slot
// region are rejected so a bad offset cannot corrupt the header.
func (t *TypeObject) SetSlot(offset uint32, addr typesynth.Address) error {
	idx, ok := t.slotIndex(offset)
	if !ok {
		return fmt.Errorf("offset %d outside slot region", offset)
	}
	t.slots[idx] = addr
	return nil
}

// SlotByID reads a slot via its identity instead of a raw offset.
func (t *TypeObject) SlotByID(id SlotID) typesynth.Address {
	off, ok := t.table.OffsetOf(id)
	if !ok {
		return 0
	}
	return t.Slot(off)
}

func (t *TypeObject) slotIndex(offset uint32) (int, bool) {
	base, end := t.table.Region()
	if offset < base || offset >= end || (offset-base)%typesynth.WordSize != 0 {
		return 0, false
	}
	return int((offset - base) / typesynth.WordSize), true
}

// HandleWord returns the foreign-instance handle embedded in the type
// object's own metadata slot (types are themselves instances of the
// metatype).
func (t *TypeObject) HandleWord() uint64 { return t.handleWord }

// SetHandleWord stores the type object's own foreign handle.
func (t *TypeObject) SetHandleWord(w uint64) { t.handleWord = w }

// VersionTag returns the attribute-cache version stamp.
func (t *TypeObject) VersionTag() uint64 { return t.versionTag }

// MethodDef is one entry of a contiguous native method table. The zero
// value is the sentinel terminator the host scans for.
type MethodDef struct {
	Name string
	Addr typesynth.Address
	Doc  string
}

// IsSentinel reports whether this entry terminates the table.
func (d MethodDef) IsSentinel() bool { return d.Name == "" && d.Addr == 0 }

// MethodDescriptor is the dictionary-visible wrapper around a method
// table entry.
type MethodDescriptor struct {
	Def   *MethodDef
	Owner *TypeObject
}

func (d *MethodDescriptor) String() string {
	return fmt.Sprintf("<method %q of %s>", d.Def.Name, d.Owner.Name)
}
