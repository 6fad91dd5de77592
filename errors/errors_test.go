package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(PhaseSynthesize, KindConfiguration).
		Class("Acme.Widget").
		Detail("no valid base type").
		Build()

	msg := err.Error()
	if !strings.Contains(msg, "[synthesize]") {
		t.Errorf("missing phase: %s", msg)
	}
	if !strings.Contains(msg, "configuration") {
		t.Errorf("missing kind: %s", msg)
	}
	if !strings.Contains(msg, "Acme.Widget") {
		t.Errorf("missing class: %s", msg)
	}
	if !strings.Contains(msg, "no valid base type") {
		t.Errorf("missing detail: %s", msg)
	}
}

func TestErrorFormatPath(t *testing.T) {
	err := New(PhaseSubclass, KindTypeError).
		Path("classDict", "__assembly__").
		Detail("must be a string").
		Build()

	msg := err.Error()
	if !strings.Contains(msg, "at classDict.__assembly__") {
		t.Errorf("missing path: %s", msg)
	}
}

func TestIsMatchesPhaseAndKind(t *testing.T) {
	err := Configuration("A.B", "nothing usable")
	target := &Error{Phase: PhaseSynthesize, Kind: KindConfiguration}

	if !stderrors.Is(err, target) {
		t.Error("expected Is to match on phase+kind")
	}

	other := &Error{Phase: PhaseSubclass, Kind: KindConfiguration}
	if stderrors.Is(err, other) {
		t.Error("Is should not match a different phase")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := TypeConstruction("Widget", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable via Unwrap")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("cause missing from message: %s", err.Error())
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"configuration", Configuration("C", "d"), IsConfiguration, true},
		{"construction", TypeConstruction("T", nil), IsTypeConstruction, true},
		{"type error", TypeError(PhaseSubclass, "bad base"), IsTypeError, true},
		{"invariant", Invariant(PhaseRestore, "cache not empty"), IsInvariant, true},
		{"mismatch", Configuration("C", "d"), IsTypeError, false},
		{"nil", nil, IsTypeError, false},
	}

	for _, tc := range cases {
		if got := tc.pred(tc.err); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPredicateSeesThroughWrapping(t *testing.T) {
	inner := TypeError(PhaseSubclass, "base not subclassable")
	wrapped := Wrap(PhaseSynthesize, KindInvalidInput, inner, "derive failed")

	if !IsTypeError(wrapped) {
		t.Error("expected IsTypeError to unwrap the cause chain")
	}
}
