package typesynth

// Address is an opaque native-callable word written into type-object slot
// tables. Address 0 is the null slot value.
type Address uint64

// WordSize is the pointer width of the modeled object-model contract in
// bytes. All slot and auxiliary field offsets advance in word increments.
const WordSize uint32 = 8

// SlotFunc is the Go entry point behind a slot address. The receiver is
// the object the slot was invoked on (an instance or type object); args
// carry the slot-specific operands.
type SlotFunc func(recv any, args ...any) (any, error)

// Dispatcher resolves a slot address to its Go entry point. The host
// runtime implements it for reserved default addresses; the thunk table
// implements it for trampolines.
type Dispatcher interface {
	Resolve(addr Address) (SlotFunc, bool)
}

// ChainDispatcher tries each dispatcher in order.
type ChainDispatcher []Dispatcher

func (c ChainDispatcher) Resolve(addr Address) (SlotFunc, bool) {
	for _, d := range c {
		if fn, ok := d.Resolve(addr); ok {
			return fn, true
		}
	}
	return nil, false
}
