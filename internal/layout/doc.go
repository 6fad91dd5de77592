// Package layout computes instance field layouts for synthesized types.
//
// Build is a pure function from (primary base size, requested fields) to
// (new basic size, per-field offsets). Fields already present on the
// primary base are inherited at their existing offsets; missing fields
// are appended one word at a time past the base's basic size. Nothing
// here touches a live type struct, so layout decisions are testable in
// isolation.
package layout
