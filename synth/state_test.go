package synth

import (
	"testing"

	"github.com/embedkit/typesynth/errors"
	"github.com/embedkit/typesynth/foreign"
	"github.com/embedkit/typesynth/objmodel"
)

func TestTeardown(t *testing.T) {
	k := newTestKit(t)
	c1 := k.define(t, foreign.ClassSpec{FullName: "A.First"})
	c2 := k.define(t, foreign.ClassSpec{FullName: "A.Second"})
	t1 := k.synthesize(t, c1)
	k.synthesize(t, c2)

	// Simulate the host still holding the first type.
	t1.IncRef()
	l1, _ := k.m.LedgerOf(t1)

	k.m.Teardown()

	if k.m.Len() != 0 {
		t.Errorf("Len = %d after teardown, want 0", k.m.Len())
	}
	if !l1.Done() {
		t.Error("ledger not reset during teardown")
	}
	// The survivor is a defaulted shell: trampolines gone, defaults back.
	if got := t1.SlotByID(objmodel.TpRepr); got != 0 {
		t.Errorf("survivor tp_repr = %#x, want null", got)
	}
	if got := t1.SlotByID(objmodel.TpTraverse); got != k.rt.DefaultFor(objmodel.TpTraverse) {
		t.Errorf("survivor tp_traverse = %#x, want host default", got)
	}
	if t1.HandleWord() != 0 {
		t.Error("survivor still holds a foreign class handle")
	}
	if got := k.classes.Handles().Len(); got != 0 {
		t.Errorf("handle table holds %d entries after teardown", got)
	}
	if got := k.thunks.Live(); got != 0 {
		t.Errorf("%d trampolines live after teardown, want 0", got)
	}
	if t1.RefCount() != 1 {
		t.Errorf("survivor refcount = %d, want 1", t1.RefCount())
	}

	// A second teardown is a no-op.
	k.m.Teardown()
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	k := newTestKit(t)
	c := k.define(t, foreign.ClassSpec{FullName: "A.Kept"})
	typ := k.synthesize(t, c)
	live := k.thunks.Live()

	snap := k.m.SaveState()
	if snap.Len() != 1 {
		t.Fatalf("snapshot Len = %d, want 1", snap.Len())
	}
	if k.m.Len() != 0 {
		t.Fatalf("save left %d cache entries", k.m.Len())
	}

	if err := k.m.RestoreState(snap); err != nil {
		t.Fatalf("RestoreState failed: %v", err)
	}
	if k.m.Len() != 1 {
		t.Fatalf("Len = %d after restore, want 1", k.m.Len())
	}

	got, err := k.m.GetOrInitialize(c)
	if err != nil {
		t.Fatalf("GetOrInitialize failed: %v", err)
	}
	if got != typ {
		t.Error("restore changed the type identity")
	}
	if got.SlotByID(objmodel.TpRepr) == 0 {
		t.Error("slots not live after restore")
	}
	if k.thunks.Live() != live {
		t.Errorf("trampoline references unbalanced: %d, want %d", k.thunks.Live(), live)
	}

	// Teardown after a restore cycle still unwinds everything.
	k.m.Teardown()
	if k.thunks.Live() != 0 {
		t.Errorf("%d trampolines live after teardown", k.thunks.Live())
	}
}

func TestRestoreDropsDeadClasses(t *testing.T) {
	k := newTestKit(t)
	kept := k.define(t, foreign.ClassSpec{FullName: "A.Kept"})
	gone := k.define(t, foreign.ClassSpec{FullName: "A.Gone"})
	k.synthesize(t, kept)
	goneType := k.synthesize(t, gone)

	snap := k.m.SaveState()
	k.classes.Retire(gone.Token())

	if err := k.m.RestoreState(snap); err != nil {
		t.Fatalf("RestoreState failed: %v", err)
	}

	if k.m.Len() != 1 {
		t.Errorf("Len = %d after restore, want 1", k.m.Len())
	}
	if _, ok := k.m.ClassOf(goneType); ok {
		t.Error("dead class still mapped after restore")
	}
	if goneType.HandleWord() != 0 {
		t.Error("dead entry's handle not released")
	}
	if got := k.classes.Handles().Len(); got != 1 {
		t.Errorf("handle table holds %d entries, want 1", got)
	}
}

func TestRestoreRequiresEmptyCache(t *testing.T) {
	k := newTestKit(t)
	c := k.define(t, foreign.ClassSpec{FullName: "A.Kept"})
	k.synthesize(t, c)

	snap := k.m.SaveState()
	k.synthesize(t, c)

	err := k.m.RestoreState(snap)
	if !errors.IsInvariant(err) {
		t.Fatalf("err = %v, want invariant error", err)
	}
}

func TestRestoreNilSnapshot(t *testing.T) {
	k := newTestKit(t)
	if err := k.m.RestoreState(nil); err == nil {
		t.Error("expected error for nil snapshot")
	}
}
