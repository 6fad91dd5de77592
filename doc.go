// Package typesynth synthesizes native interpreter type objects for
// foreign-domain classes at runtime.
//
// Given a descriptor of a class defined in a managed foreign runtime, the
// library constructs a type object that is layout-compatible with the
// embedding interpreter's object model, so foreign instances behave as
// first-class types on the interpreter side: attribute access, indexing,
// iteration, garbage-collector traversal, inheritance, and subclassing
// from interpreter code all work through the type's slot table.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	typesynth/           Root package with shared Address and dispatch primitives
//	├── synth/           Type synthesis: manager, slot install, ledger, metatype
//	├── objmodel/        Host object-model contract: type structs, slots, layout
//	├── foreign/         Foreign-domain class descriptors and class manager
//	├── thunk/           Trampoline provider mapping handlers to callable addresses
//	├── errors/          Structured error types for debugging
//	└── cmd/inspect/     CLI and TUI for browsing a synthesis session
//
// # Quick Start
//
// Synthesize a type for a foreign class:
//
//	classes := foreign.NewManager()
//	cls, _ := classes.Define(foreign.ClassSpec{FullName: "Acme.Widget"})
//
//	mgr, err := synth.New(synth.Config{
//	    Runtime: objmodel.NewRuntime(objmodel.V1),
//	    Classes: classes,
//	    Thunks:  thunk.NewTable(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Teardown()
//
//	t, err := mgr.Synthesize(cls)
//	fmt.Println(t.Name) // "Widget"
//
// Synthesis is idempotent per class identity: a second request returns the
// cached type object. Teardown resets every installed slot to its host
// default before the types are released, which keeps the host side safe
// even if it still holds references to the synthesized types.
package typesynth
