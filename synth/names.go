package synth

import (
	"strings"

	"github.com/embedkit/typesynth/foreign"
)

// renderName produces the deterministic interpreter-visible name for a
// foreign class: the innermost name segment, with bound generic
// arguments rendered recursively as a bracketed, comma-separated list.
//
// Namespace and nesting qualifiers are stripped to the innermost
// segment, so distinct classes sharing an inner name collide. That
// matches the host naming contract; callers needing uniqueness must key
// on class identity, not on the rendered name.
func renderName(c *foreign.Class) string {
	base := simpleName(c.FullName)
	if len(c.GenericArgs) == 0 {
		return base
	}

	parts := make([]string, len(c.GenericArgs))
	for i, arg := range c.GenericArgs {
		parts[i] = renderName(arg)
	}
	return base + "[" + strings.Join(parts, ",") + "]"
}

// simpleName strips nesting ('+'), namespaces ('.'), and the generic
// arity suffix ('`n') from a full class name.
func simpleName(full string) string {
	if i := strings.LastIndexByte(full, '+'); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.IndexByte(full, '`'); i >= 0 {
		full = full[:i]
	}
	return full
}

// moduleName derives the __module__ stamp from a full class name: the
// namespace portion, or "interop" for unqualified names.
func moduleName(full string) string {
	if i := strings.LastIndexByte(full, '+'); i >= 0 {
		full = full[:i]
	}
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[:i]
	}
	return "interop"
}
