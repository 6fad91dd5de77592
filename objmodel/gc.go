package objmodel

import (
	"fmt"

	"github.com/embedkit/typesynth"
)

// Collector is the host garbage collector's view of GC-tracked
// instances. It never touches foreign handles directly: discovery goes
// through tp_traverse and severing through tp_clear, the two mandatory
// bridge slots every synthesized type carries.
type Collector struct {
	rt      *Runtime
	disp    typesynth.Dispatcher
	tracked []*Instance
}

// NewCollector builds a collector dispatching slot addresses through
// disp (typically a chain of the runtime and the thunk table).
func NewCollector(rt *Runtime, disp typesynth.Dispatcher) *Collector {
	return &Collector{rt: rt, disp: disp}
}

// Track registers an instance for collection cycles.
func (c *Collector) Track(i *Instance) {
	c.tracked = append(c.tracked, i)
}

// Tracked returns the number of tracked instances.
func (c *Collector) Tracked() int { return len(c.tracked) }

// Traverse invokes an instance's tp_traverse slot with the visit
// callback.
func (c *Collector) Traverse(i *Instance, visit VisitFunc) error {
	fn, err := c.slotFunc(i, TpTraverse)
	if err != nil {
		return err
	}
	_, err = fn(i, visit)
	return err
}

// Sever invokes an instance's tp_clear slot, releasing its foreign
// edge. Returns the severed handle word.
func (c *Collector) Sever(i *Instance) (uint64, error) {
	fn, err := c.slotFunc(i, TpClear)
	if err != nil {
		return 0, err
	}
	v, err := fn(i)
	if err != nil {
		return 0, err
	}
	w, _ := v.(uint64)
	return w, nil
}

// Collect severs every tracked instance the live predicate rejects and
// stops tracking it. Returns the number of severed edges.
func (c *Collector) Collect(live func(*Instance) bool) (int, error) {
	severed := 0
	kept := c.tracked[:0]
	for _, i := range c.tracked {
		if live != nil && live(i) {
			kept = append(kept, i)
			continue
		}
		w, err := c.Sever(i)
		if err != nil {
			return severed, err
		}
		if w != 0 {
			severed++
		}
	}
	c.tracked = kept
	return severed, nil
}

func (c *Collector) slotFunc(i *Instance, id SlotID) (typesynth.SlotFunc, error) {
	addr := i.Type.SlotByID(id)
	if addr == 0 {
		return nil, fmt.Errorf("type %q: %s slot is null", i.Type.Name, id)
	}
	fn, ok := c.disp.Resolve(addr)
	if !ok {
		return nil, fmt.Errorf("type %q: %s slot address %#x is dangling", i.Type.Name, id, addr)
	}
	return fn, nil
}
