package layout

import "fmt"

// Field is one auxiliary field request. Inherit carries the field's
// offset on the primary base, or 0 when the base does not define it and
// a fresh offset must be allocated.
type Field struct {
	Name    string
	Inherit uint32
}

// Result is the computed layout: the grown basic size and the offset of
// every requested field, inherited or fresh.
type Result struct {
	BasicSize uint32
	Offsets   map[string]uint32
}

// Build allocates offsets for fields on top of a primary base layout.
// The cursor starts at baseSize and advances one wordSize per fresh
// field; inherited fields keep their base offset and do not grow the
// size. Field order is significant: offsets are assigned in input order.
func Build(baseSize, wordSize uint32, fields []Field) (Result, error) {
	if wordSize == 0 {
		return Result{}, fmt.Errorf("layout: zero word size")
	}
	if baseSize%wordSize != 0 {
		return Result{}, fmt.Errorf("layout: base size %d not word aligned", baseSize)
	}

	r := Result{Offsets: make(map[string]uint32, len(fields))}
	cursor := baseSize

	for _, f := range fields {
		if f.Name == "" {
			return Result{}, fmt.Errorf("layout: unnamed field")
		}
		if _, dup := r.Offsets[f.Name]; dup {
			return Result{}, fmt.Errorf("layout: duplicate field %q", f.Name)
		}
		if f.Inherit != 0 {
			if f.Inherit >= baseSize {
				return Result{}, fmt.Errorf("layout: field %q inherits offset %d beyond base size %d",
					f.Name, f.Inherit, baseSize)
			}
			r.Offsets[f.Name] = f.Inherit
			continue
		}
		r.Offsets[f.Name] = cursor
		cursor += wordSize
	}

	r.BasicSize = cursor
	return r, nil
}
