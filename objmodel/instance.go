package objmodel

import (
	"fmt"

	"github.com/embedkit/typesynth"
)

// Instance is a heap instance of a synthesized type: word storage sized
// by the type's BasicSize plus an attribute dict when the type carries a
// dict offset. The foreign-instance handle lives at the type's
// ForeignInstOffset.
type Instance struct {
	Type *TypeObject
	Dict map[string]any

	words []uint64
}

// NewInstance allocates an instance of t using the generic allocator.
func (rt *Runtime) NewInstance(t *TypeObject) *Instance {
	i := &Instance{
		Type:  t,
		words: make([]uint64, t.BasicSize/typesynth.WordSize),
	}
	if t.DictOffset != 0 {
		i.Dict = make(map[string]any)
	}
	return i
}

// Word reads the instance word at a byte offset.
func (i *Instance) Word(offset uint32) (uint64, error) {
	idx, err := i.index(offset)
	if err != nil {
		return 0, err
	}
	return i.words[idx], nil
}

// SetWord writes the instance word at a byte offset.
func (i *Instance) SetWord(offset uint32, w uint64) error {
	idx, err := i.index(offset)
	if err != nil {
		return err
	}
	i.words[idx] = w
	return nil
}

func (i *Instance) index(offset uint32) (int, error) {
	if offset%typesynth.WordSize != 0 || offset >= i.Type.BasicSize {
		return 0, fmt.Errorf("offset %d outside instance of %q (size %d)",
			offset, i.Type.Name, i.Type.BasicSize)
	}
	return int(offset / typesynth.WordSize), nil
}

// ForeignHandle reads the embedded foreign-instance handle word, or 0 if
// the type carries none.
func (i *Instance) ForeignHandle() uint64 {
	if i.Type.ForeignInstOffset == 0 {
		return 0
	}
	w, err := i.Word(i.Type.ForeignInstOffset)
	if err != nil {
		return 0
	}
	return w
}

// SetForeignHandle writes the embedded foreign-instance handle word.
func (i *Instance) SetForeignHandle(w uint64) error {
	if i.Type.ForeignInstOffset == 0 {
		return fmt.Errorf("type %q has no foreign-instance field", i.Type.Name)
	}
	return i.SetWord(i.Type.ForeignInstOffset, w)
}
