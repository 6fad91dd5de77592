// Package thunk produces native-callable trampoline addresses for slot
// handlers. The synthesizer consumes it as (handler -> address) pairs
// and writes the addresses into type-object slot tables.
//
// Addresses are stable for the process lifetime or until explicitly
// released, and always at or above objmodel.ReservedCeiling so they
// never collide with host default implementations. The Table doubles as
// a typesynth.Dispatcher, so the host collector can invoke slots
// through it.
package thunk
