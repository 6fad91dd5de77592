package objmodel

import (
	"testing"

	"github.com/embedkit/typesynth"
)

func TestBootstrapTypes(t *testing.T) {
	rt := NewRuntime(V1)

	obj := rt.ObjectType()
	typ := rt.TypeType()

	if !obj.IsReady() || !typ.IsReady() {
		t.Fatal("bootstrap types not ready")
	}
	if !obj.IsSubclassable() || !typ.IsSubclassable() {
		t.Error("bootstrap types must be subclassable")
	}
	if typ.Base != obj {
		t.Error("type must derive from object")
	}
	if typ.Meta != typ {
		t.Error("type is its own metaclass")
	}
	if obj.SlotByID(TpTraverse) == 0 || obj.SlotByID(TpClear) == 0 {
		t.Error("object must carry the GC defaults")
	}
}

func TestAllocType(t *testing.T) {
	rt := NewRuntime(V1)
	bare := rt.AllocType(nil)

	if !bare.HasFlag(FlagHeapType) {
		t.Error("allocated type must be heap-flagged")
	}
	if bare.Meta != rt.TypeType() {
		t.Error("nil metaclass must default to type")
	}
	if bare.RefCount() != 1 {
		t.Errorf("refcount = %d, want 1", bare.RefCount())
	}
	if bare.IsReady() {
		t.Error("fresh type must not be ready")
	}
}

func TestTypeReadyRequiresName(t *testing.T) {
	rt := NewRuntime(V1)
	bare := rt.AllocType(nil)

	if err := rt.TypeReady(bare); err == nil {
		t.Error("expected error for unnamed type")
	}
}

func TestTypeReadyInheritsSlotsAndSize(t *testing.T) {
	rt := NewRuntime(V1)
	child := rt.AllocType(nil)
	child.Name = "Child"

	if err := rt.TypeReady(child); err != nil {
		t.Fatalf("TypeReady failed: %v", err)
	}

	if child.Base != rt.ObjectType() {
		t.Error("nil base must default to object")
	}
	if child.BasicSize != rt.ObjectType().BasicSize {
		t.Errorf("size %d not inherited from base %d", child.BasicSize, rt.ObjectType().BasicSize)
	}
	if child.SlotByID(TpGetattro) != rt.DefaultFor(TpGetattro) {
		t.Error("tp_getattro not inherited from object")
	}
}

func TestTypeReadyIdempotent(t *testing.T) {
	rt := NewRuntime(V1)
	child := rt.AllocType(nil)
	child.Name = "Child"

	if err := rt.TypeReady(child); err != nil {
		t.Fatalf("first TypeReady failed: %v", err)
	}
	tag := child.VersionTag()
	if err := rt.TypeReady(child); err != nil {
		t.Fatalf("second TypeReady failed: %v", err)
	}
	if child.VersionTag() != tag {
		t.Error("repeat finalization must be a no-op")
	}
}

func TestTypeReadyRejectsGCTypeWithoutBridgeSlots(t *testing.T) {
	rt := NewRuntime(V1)

	// A base with an all-null slot table leaves the GC type nothing to
	// inherit traverse/clear from.
	hollow := &TypeObject{
		Name:      "Hollow",
		Flags:     FlagBaseType | FlagReady,
		BasicSize: 2 * typesynth.WordSize,
		Dict:      map[string]any{},
		refs:      1,
		slots:     make([]typesynth.Address, rt.Table().Count()),
		table:     rt.Table(),
	}
	orphan := &TypeObject{
		Name:      "Orphan",
		Flags:     FlagHaveGC,
		BasicSize: 2 * typesynth.WordSize,
		Base:      hollow,
		Dict:      map[string]any{},
		refs:      1,
		slots:     make([]typesynth.Address, rt.Table().Count()),
		table:     rt.Table(),
	}

	if err := rt.TypeReady(orphan); err == nil {
		t.Error("expected finalization failure for GC type without traverse/clear")
	}
}

func TestNotifyTypeChangedBumpsTags(t *testing.T) {
	rt := NewRuntime(V1)
	child := rt.AllocType(nil)
	child.Name = "Child"
	rt.TypeReady(child)

	tag := child.VersionTag()
	seq := rt.ChangeSeq()
	rt.NotifyTypeChanged(child)

	if child.VersionTag() == tag {
		t.Error("type version tag not bumped")
	}
	if rt.ChangeSeq() == seq {
		t.Error("global change sequence not bumped")
	}
}

func TestSlotAccessBounds(t *testing.T) {
	rt := NewRuntime(V1)
	child := rt.AllocType(nil)

	if err := child.SetSlot(0, 1); err == nil {
		t.Error("write into header region must fail")
	}
	if err := child.SetSlot(65, 1); err == nil {
		t.Error("unaligned slot write must fail")
	}
	if child.Slot(8) != 0 {
		t.Error("out-of-region read must be 0")
	}
}

type fakeReleaser struct {
	released []uint64
}

func (f *fakeReleaser) ReleaseHandle(w uint64) { f.released = append(f.released, w) }

func gcType(rt *Runtime, name string) *TypeObject {
	t := rt.AllocType(nil)
	t.Name = name
	t.Flags |= FlagHaveGC | FlagHasForeignInstance
	t.BasicSize = rt.ObjectType().BasicSize + typesynth.WordSize
	t.ForeignInstOffset = rt.ObjectType().BasicSize
	return t
}

func TestDefaultTraverseAndClear(t *testing.T) {
	rel := &fakeReleaser{}
	rt := NewRuntime(V1, WithHandleReleaser(rel))

	typ := gcType(rt, "Bridged")
	if err := rt.TypeReady(typ); err != nil {
		t.Fatalf("TypeReady failed: %v", err)
	}

	inst := rt.NewInstance(typ)
	if err := inst.SetForeignHandle(0xbeef); err != nil {
		t.Fatalf("SetForeignHandle failed: %v", err)
	}

	col := NewCollector(rt, rt)
	col.Track(inst)

	var seen []uint64
	if err := col.Traverse(inst, VisitFunc(func(w uint64) { seen = append(seen, w) })); err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != 0xbeef {
		t.Errorf("traverse saw %v, want [0xbeef]", seen)
	}

	w, err := col.Sever(inst)
	if err != nil {
		t.Fatalf("Sever failed: %v", err)
	}
	if w != 0xbeef {
		t.Errorf("severed word = %#x", w)
	}
	if inst.ForeignHandle() != 0 {
		t.Error("handle not cleared from instance memory")
	}
	if len(rel.released) != 1 || rel.released[0] != 0xbeef {
		t.Errorf("releaser saw %v", rel.released)
	}
}

func TestCollectSeversOnlyDeadInstances(t *testing.T) {
	rel := &fakeReleaser{}
	rt := NewRuntime(V1, WithHandleReleaser(rel))
	typ := gcType(rt, "Bridged")
	rt.TypeReady(typ)

	live := rt.NewInstance(typ)
	live.SetForeignHandle(1)
	dead := rt.NewInstance(typ)
	dead.SetForeignHandle(2)

	col := NewCollector(rt, rt)
	col.Track(live)
	col.Track(dead)

	n, err := col.Collect(func(i *Instance) bool { return i == live })
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if n != 1 {
		t.Errorf("severed %d edges, want 1", n)
	}
	if live.ForeignHandle() != 1 {
		t.Error("live instance was severed")
	}
	if col.Tracked() != 1 {
		t.Errorf("Tracked = %d, want 1", col.Tracked())
	}
}

func TestGenericAttributeAccess(t *testing.T) {
	rt := NewRuntime(V1)
	typ := rt.AllocType(nil)
	typ.Name = "Widget"
	typ.DictOffset = rt.ObjectType().BasicSize
	typ.BasicSize = rt.ObjectType().BasicSize + typesynth.WordSize
	typ.Dict["color"] = "blue"
	if err := rt.TypeReady(typ); err != nil {
		t.Fatalf("TypeReady failed: %v", err)
	}

	inst := rt.NewInstance(typ)

	getattr, _ := rt.Resolve(rt.DefaultFor(TpGetattro))
	setattr, _ := rt.Resolve(rt.DefaultFor(TpSetattro))

	// Type attribute reachable from the instance.
	v, err := getattr(inst, "color")
	if err != nil || v != "blue" {
		t.Fatalf("getattr color = %v, %v", v, err)
	}

	// Instance attribute shadows the type.
	if _, err := setattr(inst, "color", "red"); err != nil {
		t.Fatalf("setattr failed: %v", err)
	}
	v, _ = getattr(inst, "color")
	if v != "red" {
		t.Errorf("instance attribute did not shadow type: %v", v)
	}

	if _, err := getattr(inst, "missing"); err == nil {
		t.Error("expected error for missing attribute")
	}
}

func TestGenericNew(t *testing.T) {
	rt := NewRuntime(V1)
	typ := gcType(rt, "Bridged")
	rt.TypeReady(typ)

	newFn, _ := rt.Resolve(rt.DefaultFor(TpNew))
	v, err := newFn(typ)
	if err != nil {
		t.Fatalf("generic new failed: %v", err)
	}
	inst, ok := v.(*Instance)
	if !ok || inst.Type != typ {
		t.Errorf("generic new returned %T", v)
	}

	bare := rt.AllocType(nil)
	bare.Name = "NotReady"
	if _, err := newFn(bare); err == nil {
		t.Error("generic new must reject unready types")
	}
}
