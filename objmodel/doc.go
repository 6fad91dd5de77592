// Package objmodel models the embedding interpreter's native object-model
// contract: type structs with fixed-offset slot tables, heap instances,
// host default slot implementations, and the type-finalization routine.
//
// The contract is versioned. A SlotTable maps symbolic slot names such as
// "tp_traverse" or "mp_length" to fixed byte offsets within the type
// struct for one ModelVersion; exactly one version is live per Runtime.
//
// Field layout for synthesized types is computed by the pure builder in
// internal/layout, so offset allocation is testable without a live
// runtime. Cross-domain garbage collection is modeled as a narrow bridge:
// the mandatory tp_traverse and tp_clear slots are the only way the host
// Collector discovers and severs an instance's foreign-handle edge.
package objmodel
