// Package foreign models the foreign-domain class system the synthesizer
// consumes: class descriptors with reference identity, a class manager
// that materializes dynamically derived classes through an arena of
// descriptor tokens, and the handle table through which instances of
// foreign objects are lent to the host domain.
//
// Class identity is pointer identity of *Class; two descriptors are
// never structurally compared. Tokens are the restart-stable names of
// classes used by synthesis snapshots: a token resolves to nil after the
// class is retired, which is how snapshot restore detects dead entries.
package foreign
