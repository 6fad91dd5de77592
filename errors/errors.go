package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseSynthesize Phase = "synthesize" // type-object construction
	PhaseLayout     Phase = "layout"     // field-offset allocation
	PhaseSlots      Phase = "slots"      // slot installation
	PhaseMetatype   Phase = "metatype"   // metatype construction
	PhaseSubclass   Phase = "subclass"   // dynamic subclass bridge
	PhaseTeardown   Phase = "teardown"   // bulk reset and release
	PhaseRestore    Phase = "restore"    // save/restore across restart
)

// Kind categorizes the error
type Kind string

const (
	KindConfiguration    Kind = "configuration"     // no valid base type
	KindTypeConstruction Kind = "type_construction" // host finalization rejected the struct
	KindTypeError        Kind = "type_error"        // malformed subclass input, unsubclassable base
	KindInvariant        Kind = "invariant"         // debug-only invariant violation
	KindNotFound         Kind = "not_found"
	KindInvalidInput     Kind = "invalid_input"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	ClassName string
	TypeName  string
	Detail    string
	Path      []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.ClassName != "" || e.TypeName != "" {
		b.WriteString(": ")
		if e.ClassName != "" && e.TypeName != "" {
			b.WriteString("class ")
			b.WriteString(e.ClassName)
			b.WriteString(", type ")
			b.WriteString(e.TypeName)
		} else if e.ClassName != "" {
			b.WriteString("class ")
			b.WriteString(e.ClassName)
		} else {
			b.WriteString("type ")
			b.WriteString(e.TypeName)
		}
	}

	if e.Detail != "" {
		if e.ClassName != "" || e.TypeName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the attribute path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Class sets the foreign class name
func (b *Builder) Class(name string) *Builder {
	b.err.ClassName = name
	return b
}

// Type sets the synthesized type name
func (b *Builder) Type(name string) *Builder {
	b.err.TypeName = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Configuration creates a configuration error (no valid base type)
func Configuration(className, detail string) *Error {
	return &Error{
		Phase:     PhaseSynthesize,
		Kind:      KindConfiguration,
		ClassName: className,
		Detail:    detail,
	}
}

// TypeConstruction creates an error for host type finalization failure
func TypeConstruction(typeName string, cause error) *Error {
	return &Error{
		Phase:    PhaseSynthesize,
		Kind:     KindTypeConstruction,
		TypeName: typeName,
		Detail:   "host type finalization rejected the struct",
		Cause:    cause,
	}
}

// TypeError creates a user-visible type error
func TypeError(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeError,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Invariant creates a debug-only invariant violation error
func Invariant(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvariant,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Predicates for the error kinds callers branch on

// IsConfiguration reports whether err is a configuration error
func IsConfiguration(err error) bool { return isKind(err, KindConfiguration) }

// IsTypeConstruction reports whether err is a type-construction error
func IsTypeConstruction(err error) bool { return isKind(err, KindTypeConstruction) }

// IsTypeError reports whether err is a user-visible type error
func IsTypeError(err error) bool { return isKind(err, KindTypeError) }

// IsInvariant reports whether err is a debug invariant violation
func IsInvariant(err error) bool { return isKind(err, KindInvariant) }

func isKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
