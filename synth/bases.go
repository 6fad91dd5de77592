package synth

import (
	"github.com/embedkit/typesynth/foreign"
	"github.com/embedkit/typesynth/objmodel"
)

// BaseTypeProvider resolves the host base types a synthesized type
// derives from. It must return at least one candidate; the first entry
// becomes the primary base and determines field layout, the rest join
// the MRO only.
type BaseTypeProvider interface {
	BaseTypes(c *foreign.Class, defaults []*objmodel.TypeObject) ([]*objmodel.TypeObject, error)
}

// BaseTypeProviderFunc adapts a function to the interface.
type BaseTypeProviderFunc func(c *foreign.Class, defaults []*objmodel.TypeObject) ([]*objmodel.TypeObject, error)

func (f BaseTypeProviderFunc) BaseTypes(c *foreign.Class, defaults []*objmodel.TypeObject) ([]*objmodel.TypeObject, error) {
	return f(c, defaults)
}

// standardBases is the default provider: the foreign base class's
// synthesized type when one exists, else the host defaults unchanged.
type standardBases struct {
	m *Manager
}

func (s standardBases) BaseTypes(c *foreign.Class, defaults []*objmodel.TypeObject) ([]*objmodel.TypeObject, error) {
	if c.Base != nil {
		if t, err := s.m.Synthesize(c.Base); err == nil {
			return []*objmodel.TypeObject{t}, nil
		} else {
			return nil, err
		}
	}
	return defaults, nil
}
