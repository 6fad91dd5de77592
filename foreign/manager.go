package foreign

import (
	"fmt"
	"strings"

	"github.com/embedkit/typesynth/foreign/internal/arena"
)

// Defaults for dynamically derived classes whose spec names no location.
const (
	DefaultNamespace = "Interop.Dynamic"
	DefaultAssembly  = "Interop.Dynamic.dll"
)

// Manager is the foreign-class management layer: it owns the descriptor
// arena, resolves tokens to live classes, materializes derived classes,
// and lends instance handles to the host domain.
type Manager struct {
	classes *arena.Arena
	handles *HandleTable
	byClass map[*Class]Token
}

// NewManager creates an empty class manager.
func NewManager() *Manager {
	return &Manager{
		classes: arena.New(),
		handles: NewHandleTable(),
		byClass: make(map[*Class]Token),
	}
}

// Define registers a class descriptor and assigns its token.
func (m *Manager) Define(spec ClassSpec) (*Class, error) {
	if spec.FullName == "" {
		return nil, fmt.Errorf("foreign: class has no name")
	}
	c := &Class{
		FullName:    spec.FullName,
		GenericArgs: spec.GenericArgs,
		Base:        spec.Base,
		Assembly:    spec.Assembly,
		Kind:        spec.Kind,
		Iterable:    spec.Iterable,
		Indexable:   spec.Indexable,
		Sized:       spec.Sized,
		Methods:     spec.Methods,
	}
	c.token = Token(m.classes.Add(c) + 1)
	m.byClass[c] = c.token
	return c, nil
}

// Resolve returns the live class for a token, or (nil, false) if the
// token is invalid or the class was retired.
func (m *Manager) Resolve(t Token) (*Class, bool) {
	if t == 0 {
		return nil, false
	}
	v, err := m.classes.Get(uint32(t - 1))
	if err != nil {
		return nil, false
	}
	return v.(*Class), true
}

// Retire removes a class from the live set. Outstanding tokens stop
// resolving; the descriptor itself is abandoned.
func (m *Manager) Retire(t Token) {
	if c, ok := m.Resolve(t); ok {
		delete(m.byClass, c)
		m.classes.Retire(uint32(t - 1)) //nolint:errcheck // resolved above
	}
}

// DerivedSpec describes a dynamically derived class: phase one of the
// subclass protocol.
type DerivedSpec struct {
	// Name is the simple class name; required.
	Name string

	// Namespace and Assembly locate the materialized class; empty
	// values use the Interop.Dynamic defaults.
	Namespace string
	Assembly  string

	// Base is the foreign class to extend; required.
	Base *Class

	// Methods declared by the derived class body.
	Methods []string
}

// CreateDerived materializes a new class extending spec.Base and
// returns its token. The returned token feeds the ordinary synthesis
// path as phase two; this call never synthesizes anything itself.
func (m *Manager) CreateDerived(spec DerivedSpec) (Token, error) {
	if spec.Name == "" {
		return 0, fmt.Errorf("foreign: derived class has no name")
	}
	if strings.ContainsAny(spec.Name, ".+`") {
		return 0, fmt.Errorf("foreign: derived class name %q is not a simple name", spec.Name)
	}
	if spec.Base == nil {
		return 0, fmt.Errorf("foreign: derived class %q has no base", spec.Name)
	}
	if _, live := m.byClass[spec.Base]; !live {
		return 0, fmt.Errorf("foreign: base of %q is not a live class", spec.Name)
	}

	ns := spec.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	asm := spec.Assembly
	if asm == "" {
		asm = DefaultAssembly
	}

	c, err := m.Define(ClassSpec{
		FullName:  ns + "." + spec.Name,
		Base:      spec.Base,
		Assembly:  asm,
		Kind:      spec.Base.Kind,
		Iterable:  spec.Base.Iterable,
		Indexable: spec.Base.Indexable,
		Sized:     spec.Base.Sized,
		Methods:   spec.Methods,
	})
	if err != nil {
		return 0, err
	}
	return c.token, nil
}

// Handles returns the instance handle table shared with the host
// domain.
func (m *Manager) Handles() *HandleTable { return m.handles }

// Len returns the number of live classes.
func (m *Manager) Len() int { return m.classes.Len() }

// Each iterates over live classes in definition order.
func (m *Manager) Each(fn func(*Class) bool) {
	m.classes.Each(func(_ uint32, p any) bool {
		return fn(p.(*Class))
	})
}
