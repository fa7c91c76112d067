// Package layout stands in for the full type-layout engine named in the
// storage manager's external interfaces: it only needs to answer "how many
// bytes on the stack" and "does this fit in a single register" for the
// handful of layouts the storage manager's copy/struct operations touch.
package layout

// Kind enumerates the layouts copy_symbol_to_stack_offset and create_struct
// know how to place. Anything else is UnsupportedLayout (see storage.Manager).
type Kind byte

const (
	// I64 is a 64-bit signed or unsigned integer; single-register layout.
	I64 Kind = iota
	// F64 is a 64-bit float; single-register layout.
	F64
	// Struct is an aggregate of Fields, laid out back to back with no
	// interior padding beyond each field's own reported size.
	Struct
	// ZeroSized is a zero-sized type: records, such as empty tag unions,
	// that carry no runtime bytes at all.
	ZeroSized
)

// Layout describes the stack shape of one value.
type Layout struct {
	Kind   Kind
	Fields []Layout // only meaningful when Kind == Struct
}

// StackSize returns how many bytes this layout occupies on the stack.
func (l Layout) StackSize() uint32 {
	switch l.Kind {
	case ZeroSized:
		return 0
	case I64, F64:
		return 8
	case Struct:
		var total uint32
		for _, f := range l.Fields {
			total += f.StackSize()
		}
		return total
	default:
		return 0
	}
}

// IsPrimitive reports whether l fits in a single general or float register.
func IsPrimitive(l Layout) bool {
	return l.Kind == I64 || l.Kind == F64
}
