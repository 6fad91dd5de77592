package synth

import (
	"strings"

	"go.uber.org/zap"

	"github.com/embedkit/typesynth/errors"
	"github.com/embedkit/typesynth/foreign"
	"github.com/embedkit/typesynth/objmodel"
)

// ClassCell is the placeholder an interpreter-side class body leaves in
// its dict when a closure captures the not-yet-existing class. The
// bridge resolves it to the finished type and drops the dict entry.
type ClassCell struct {
	t *objmodel.TypeObject
}

// Resolve returns the type the cell was bound to, nil before binding.
func (c *ClassCell) Resolve() *objmodel.TypeObject { return c.t }

func (c *ClassCell) bind(t *objmodel.TypeObject) { c.t = t }

// DeriveSubclass handles interpreter-side subclassing of a synthesized
// type: a new backing foreign class is materialized (phase one), fed
// through the ordinary synthesis path (phase two), and the class body's
// dict merged over the inherited entries. Failures surface as catchable
// type errors and leave nothing cached.
func (m *Manager) DeriveSubclass(name string, base *objmodel.TypeObject, classDict map[string]any) (*objmodel.TypeObject, error) {
	if name == "" {
		return nil, errors.TypeError(errors.PhaseSubclass, "subclass has no name")
	}
	if base == nil {
		return nil, errors.TypeError(errors.PhaseSubclass, "subclass %q has no base", name)
	}

	baseClass, ok := m.byType[base]
	if !ok {
		return nil, errors.New(errors.PhaseSubclass, errors.KindTypeError).
			Type(base.Name).
			Detail("base is not a synthesized type").
			Build()
	}
	if !base.IsSubclassable() {
		return nil, errors.New(errors.PhaseSubclass, errors.KindTypeError).
			Type(base.Name).
			Detail("base is not subclassable").
			Build()
	}

	namespace, err := optionalString(classDict, "__namespace__")
	if err != nil {
		return nil, err
	}
	assembly, err := optionalString(classDict, "__assembly__")
	if err != nil {
		return nil, err
	}

	token, err := m.classes.CreateDerived(foreign.DerivedSpec{
		Name:      name,
		Namespace: namespace,
		Assembly:  assembly,
		Base:      baseClass,
		Methods:   methodNames(classDict),
	})
	if err != nil {
		return nil, errors.New(errors.PhaseSubclass, errors.KindTypeError).
			Class(baseClass.FullName).
			Detail("foreign class creation failed").
			Cause(err).
			Build()
	}
	sub, ok := m.classes.Resolve(token)
	if !ok {
		return nil, errors.New(errors.PhaseSubclass, errors.KindTypeError).
			Detail("created class token %d did not resolve", token).
			Build()
	}

	t, err := m.Synthesize(sub)
	if err != nil {
		return nil, err
	}

	// Class-body entries win over the inherited defaults copied in
	// during synthesis.
	for k, v := range classDict {
		t.Dict[k] = v
	}

	if cellVal, ok := t.Dict["__classcell__"]; ok {
		if cell, ok := cellVal.(*ClassCell); ok {
			cell.bind(t)
		}
		delete(t.Dict, "__classcell__")
	}

	m.rt.NotifyTypeChanged(t)
	m.log.Debug("derived subclass",
		zap.String("name", name),
		zap.String("base", base.Name),
		zap.String("class", sub.FullName))
	return t, nil
}

func optionalString(dict map[string]any, key string) (string, error) {
	v, ok := dict[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New(errors.PhaseSubclass, errors.KindTypeError).
			Path("classDict", key).
			Value(v).
			Detail("must be a string").
			Build()
	}
	return s, nil
}

func methodNames(dict map[string]any) []string {
	var names []string
	for k := range dict {
		if strings.HasPrefix(k, "__") {
			continue
		}
		names = append(names, k)
	}
	return names
}
