package synth

import (
	"testing"

	"github.com/embedkit/typesynth/errors"
	"github.com/embedkit/typesynth/foreign"
)

func TestDeriveSubclass(t *testing.T) {
	k := newTestKit(t)
	base := k.synthesize(t, k.define(t, foreign.ClassSpec{
		FullName: "A.Animal",
		Methods:  []string{"Speak"},
	}))

	greet := func(recv any, args ...any) (any, error) { return "hi", nil }
	sub, err := k.m.DeriveSubclass("Dog", base, map[string]any{
		"Greet": greet,
	})
	if err != nil {
		t.Fatalf("DeriveSubclass failed: %v", err)
	}

	if sub.Base != base {
		t.Error("subclass primary base is not the given base")
	}
	if sub.Name != "Dog" {
		t.Errorf("Name = %q, want Dog", sub.Name)
	}
	if got := sub.Dict["__module__"]; got != foreign.DefaultNamespace {
		t.Errorf("__module__ = %v, want %v", got, foreign.DefaultNamespace)
	}
	if _, ok := sub.Dict["Greet"].(func(any, ...any) (any, error)); !ok {
		t.Error("class body entry Greet not carried into the type dict")
	}

	cls, ok := k.m.ClassOf(sub)
	if !ok {
		t.Fatal("subclass not backed by a foreign class")
	}
	if cls.FullName != foreign.DefaultNamespace+".Dog" {
		t.Errorf("backing class = %q", cls.FullName)
	}
	if cls.Assembly != foreign.DefaultAssembly {
		t.Errorf("assembly = %q, want default", cls.Assembly)
	}
}

func TestDeriveSubclassExplicitLocation(t *testing.T) {
	k := newTestKit(t)
	base := k.synthesize(t, k.define(t, foreign.ClassSpec{FullName: "A.Animal"}))

	sub, err := k.m.DeriveSubclass("Cat", base, map[string]any{
		"__namespace__": "My.Pets",
		"__assembly__":  "Pets.dll",
	})
	if err != nil {
		t.Fatalf("DeriveSubclass failed: %v", err)
	}

	cls, _ := k.m.ClassOf(sub)
	if cls.FullName != "My.Pets.Cat" {
		t.Errorf("backing class = %q, want My.Pets.Cat", cls.FullName)
	}
	if cls.Assembly != "Pets.dll" {
		t.Errorf("assembly = %q, want Pets.dll", cls.Assembly)
	}
	if got := sub.Dict["__module__"]; got != "My.Pets" {
		t.Errorf("__module__ = %v, want My.Pets", got)
	}
}

func TestDeriveSubclassBodyWinsOverInherited(t *testing.T) {
	k := newTestKit(t)
	baseClass := k.define(t, foreign.ClassSpec{
		FullName: "A.Animal",
		Methods:  []string{"Speak"},
	})
	base := k.synthesize(t, baseClass)

	override := "overridden"
	sub, err := k.m.DeriveSubclass("Parrot", base, map[string]any{
		"Speak": override,
	})
	if err != nil {
		t.Fatalf("DeriveSubclass failed: %v", err)
	}

	// Synthesis seeds Speak as an inherited method ref; the class body
	// entry must shadow it.
	if got := sub.Dict["Speak"]; got != override {
		t.Errorf("Speak = %v, want the class body value", got)
	}
}

func TestDeriveSubclassClassCell(t *testing.T) {
	k := newTestKit(t)
	base := k.synthesize(t, k.define(t, foreign.ClassSpec{FullName: "A.Animal"}))

	cell := &ClassCell{}
	sub, err := k.m.DeriveSubclass("Ferret", base, map[string]any{
		"__classcell__": cell,
	})
	if err != nil {
		t.Fatalf("DeriveSubclass failed: %v", err)
	}

	if cell.Resolve() != sub {
		t.Error("class cell not bound to the finished type")
	}
	if _, ok := sub.Dict["__classcell__"]; ok {
		t.Error("__classcell__ left in the type dict")
	}
}

func TestDeriveSubclassValidation(t *testing.T) {
	k := newTestKit(t)
	base := k.synthesize(t, k.define(t, foreign.ClassSpec{FullName: "A.Animal"}))

	tests := []struct {
		name string
		call func() error
	}{
		{"empty name", func() error {
			_, err := k.m.DeriveSubclass("", base, nil)
			return err
		}},
		{"nil base", func() error {
			_, err := k.m.DeriveSubclass("X", nil, nil)
			return err
		}},
		{"foreign-less base", func() error {
			_, err := k.m.DeriveSubclass("X", k.rt.ObjectType(), nil)
			return err
		}},
		{"qualified name", func() error {
			_, err := k.m.DeriveSubclass("Bad.Name", base, nil)
			return err
		}},
		{"non-string namespace", func() error {
			_, err := k.m.DeriveSubclass("X", base, map[string]any{"__namespace__": 7})
			return err
		}},
	}

	before := k.m.Len()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.IsTypeError(err) {
				t.Errorf("err = %v, want type error", err)
			}
		})
	}
	if got := k.m.Len(); got != before {
		t.Errorf("failed derivations changed cache size: %d -> %d", before, got)
	}
}
