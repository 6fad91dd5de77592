package layout

import "testing"

func TestBuildFreshFields(t *testing.T) {
	r, err := Build(16, 8, []Field{
		{Name: "dict"},
		{Name: "weaklist"},
		{Name: "foreign"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if r.Offsets["dict"] != 16 {
		t.Errorf("dict offset = %d, want 16", r.Offsets["dict"])
	}
	if r.Offsets["weaklist"] != 24 {
		t.Errorf("weaklist offset = %d, want 24", r.Offsets["weaklist"])
	}
	if r.Offsets["foreign"] != 32 {
		t.Errorf("foreign offset = %d, want 32", r.Offsets["foreign"])
	}
	if r.BasicSize != 40 {
		t.Errorf("BasicSize = %d, want 40", r.BasicSize)
	}
}

func TestBuildInheritedFieldsDoNotGrow(t *testing.T) {
	// Base already defines dict at 16 and weaklist at 24; only the
	// foreign field should be appended.
	r, err := Build(32, 8, []Field{
		{Name: "dict", Inherit: 16},
		{Name: "weaklist", Inherit: 24},
		{Name: "foreign"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if r.Offsets["dict"] != 16 || r.Offsets["weaklist"] != 24 {
		t.Errorf("inherited offsets changed: %+v", r.Offsets)
	}
	if r.Offsets["foreign"] != 32 {
		t.Errorf("foreign offset = %d, want 32", r.Offsets["foreign"])
	}
	if r.BasicSize != 40 {
		t.Errorf("BasicSize = %d, want 40", r.BasicSize)
	}
}

func TestBuildNoFields(t *testing.T) {
	r, err := Build(48, 8, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if r.BasicSize != 48 {
		t.Errorf("BasicSize = %d, want 48", r.BasicSize)
	}
	if len(r.Offsets) != 0 {
		t.Errorf("expected no offsets, got %v", r.Offsets)
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		baseSize uint32
		wordSize uint32
		fields   []Field
	}{
		{"zero word size", 16, 0, nil},
		{"unaligned base", 13, 8, nil},
		{"unnamed field", 16, 8, []Field{{}}},
		{"duplicate field", 16, 8, []Field{{Name: "x"}, {Name: "x"}}},
		{"inherit beyond base", 16, 8, []Field{{Name: "x", Inherit: 24}}},
	}

	for _, tc := range cases {
		if _, err := Build(tc.baseSize, tc.wordSize, tc.fields); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestBuildIsPure(t *testing.T) {
	fields := []Field{{Name: "a"}, {Name: "b", Inherit: 8}}
	r1, err := Build(16, 8, fields)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	r2, err := Build(16, 8, fields)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if r1.BasicSize != r2.BasicSize {
		t.Error("repeated builds disagree on size")
	}
	for k, v := range r1.Offsets {
		if r2.Offsets[k] != v {
			t.Errorf("repeated builds disagree on %q: %d vs %d", k, v, r2.Offsets[k])
		}
	}
}
