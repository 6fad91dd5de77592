package objmodel

import (
	"github.com/embedkit/typesynth"
)

// ModelVersion identifies one revision of the native object-model
// contract. Slot offsets are fixed per version.
type ModelVersion int

// V1 is the only contract revision currently defined.
const V1 ModelVersion = 1

// SlotID identifies one function-pointer slot in the type struct.
type SlotID uint8

const (
	slotInvalid SlotID = iota
	TpDealloc
	TpGetattro
	TpSetattro
	TpCall
	TpTraverse
	TpClear
	TpIter
	TpIternext
	TpRepr
	TpStr
	TpHash
	TpRichCompare
	TpNew
	TpInit
	TpFree
	MpLength
	MpSubscript
	MpAssSubscript
	SqLength
	SqItem
	SqContains

	slotCount
)

var slotNames = [...]string{
	TpDealloc:      "tp_dealloc",
	TpGetattro:     "tp_getattro",
	TpSetattro:     "tp_setattro",
	TpCall:         "tp_call",
	TpTraverse:     "tp_traverse",
	TpClear:        "tp_clear",
	TpIter:         "tp_iter",
	TpIternext:     "tp_iternext",
	TpRepr:         "tp_repr",
	TpStr:          "tp_str",
	TpHash:         "tp_hash",
	TpRichCompare:  "tp_richcompare",
	TpNew:          "tp_new",
	TpInit:         "tp_init",
	TpFree:         "tp_free",
	MpLength:       "mp_length",
	MpSubscript:    "mp_subscript",
	MpAssSubscript: "mp_ass_subscript",
	SqLength:       "sq_length",
	SqItem:         "sq_item",
	SqContains:     "sq_contains",
}

// String returns the symbolic slot name, e.g. "tp_traverse".
func (id SlotID) String() string {
	if id == slotInvalid || id >= slotCount {
		return "slot_invalid"
	}
	return slotNames[id]
}

// slotRegionBase is the byte offset of the first slot within the type
// struct for V1. The region below it holds the fixed header (refcount,
// name, size, flags, base).
const slotRegionBase uint32 = 64

// SlotInfo describes one resolved slot.
type SlotInfo struct {
	ID     SlotID
	Offset uint32
}

// SlotTable resolves symbolic slot names to fixed byte offsets for one
// contract version.
type SlotTable struct {
	version  ModelVersion
	byName   map[string]SlotInfo
	byOffset map[uint32]SlotID
}

// TableFor returns the slot table for a contract version, or nil if the
// version is unknown.
func TableFor(v ModelVersion) *SlotTable {
	if v != V1 {
		return nil
	}
	return v1Table
}

var v1Table = buildV1Table()

func buildV1Table() *SlotTable {
	t := &SlotTable{
		version:  V1,
		byName:   make(map[string]SlotInfo, int(slotCount)-1),
		byOffset: make(map[uint32]SlotID, int(slotCount)-1),
	}
	for id := TpDealloc; id < slotCount; id++ {
		off := slotRegionBase + uint32(id-TpDealloc)*typesynth.WordSize
		t.byName[id.String()] = SlotInfo{ID: id, Offset: off}
		t.byOffset[off] = id
	}
	return t
}

// Version returns the contract version this table resolves for.
func (t *SlotTable) Version() ModelVersion { return t.version }

// Lookup resolves a symbolic slot name.
func (t *SlotTable) Lookup(name string) (SlotInfo, bool) {
	info, ok := t.byName[name]
	return info, ok
}

// OffsetOf resolves a slot ID to its byte offset.
func (t *SlotTable) OffsetOf(id SlotID) (uint32, bool) {
	info, ok := t.byName[id.String()]
	if !ok {
		return 0, false
	}
	return info.Offset, true
}

// IDAt reverse-resolves a byte offset to its slot ID.
func (t *SlotTable) IDAt(offset uint32) (SlotID, bool) {
	id, ok := t.byOffset[offset]
	return id, ok
}

// Count returns the number of slots in the contract.
func (t *SlotTable) Count() int { return len(t.byName) }

// Region returns the byte range [base, end) occupied by the slot table.
func (t *SlotTable) Region() (base, end uint32) {
	return slotRegionBase, slotRegionBase + uint32(t.Count())*typesynth.WordSize
}
