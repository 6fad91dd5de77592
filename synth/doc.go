// Package synth turns foreign-domain class descriptors into live,
// finalized host type objects.
//
// A Manager owns the synthesis cache for one embedded-interpreter
// session: foreign class identity maps to exactly one synthesized type,
// created lazily and kept alive until Teardown. Slot installation walks
// statically declared slot tables per implementation kind,
// most-derived-first, records every override in a per-type Ledger, and
// backfills the mandatory GC bridge slots with host defaults. The
// Metatype built at manager creation is the metaclass of every
// synthesized type; interpreter-side subclassing re-enters synthesis
// through the two-phase DeriveSubclass bridge.
//
// All operations run on the thread owning the interpreter state; the
// cache is not internally locked. A multi-threaded host must serialize
// entry into this package to keep the no-duplicate-synthesis invariant.
package synth
