package arena

import "testing"

func TestAddGet(t *testing.T) {
	a := New()

	i0 := a.Add("first")
	i1 := a.Add("second")
	if i0 == i1 {
		t.Fatal("indices must be distinct")
	}

	v, err := a.Get(i1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "second" {
		t.Errorf("got %v, want second", v)
	}
}

func TestGetOutOfRange(t *testing.T) {
	a := New()
	if _, err := a.Get(5); err == nil {
		t.Error("expected out of range error")
	}
}

func TestRetireDoesNotReuseIndex(t *testing.T) {
	a := New()
	i0 := a.Add("victim")

	if err := a.Retire(i0); err != nil {
		t.Fatalf("Retire failed: %v", err)
	}
	if _, err := a.Get(i0); err == nil {
		t.Error("retired entry should not resolve")
	}

	i1 := a.Add("fresh")
	if i1 == i0 {
		t.Error("retired index was reissued")
	}
	if a.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.Len())
	}
}

func TestEach(t *testing.T) {
	a := New()
	a.Add("a")
	ib := a.Add("b")
	a.Add("c")
	a.Retire(ib)

	var seen []any
	a.Each(func(_ uint32, p any) bool {
		seen = append(seen, p)
		return true
	})

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "c" {
		t.Errorf("unexpected iteration: %v", seen)
	}
}
