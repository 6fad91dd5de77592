// Package errors provides structured error types for the typesynth library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: attribute path, class and type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSynthesize, errors.KindConfiguration).
//		Class("Acme.Widget").
//		Detail("no valid base type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Configuration("Acme.Widget", "base-type provider returned no candidates")
//	err := errors.TypeConstruction("Acme.Widget", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
