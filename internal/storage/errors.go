package storage

import "fmt"

// ErrorKind enumerates the taxonomy of anomalies the storage manager can
// detect. Every one of them indicates a bug in the IR-lowering client, not
// recoverable user input, so the manager never returns these as errors —
// it panics with one wrapped in *InternalError instead.
type ErrorKind byte

const (
	// ErrUnknownSymbol is a lookup of a symbol absent from the storage or
	// allocation map.
	ErrUnknownSymbol ErrorKind = iota
	// ErrWrongKind is an attempt to load a float-kind storage into a
	// general register, or vice versa.
	ErrWrongKind
	// ErrUnsupportedStorage is an attempt to load a Complex or NoData
	// storage into a register.
	ErrUnsupportedStorage
	// ErrUnsupportedLayout is copy_symbol_to_stack_offset for a layout
	// outside the currently supported set.
	ErrUnsupportedLayout
	// ErrDoubleFree is a free of a stack chunk overlapping an
	// already-free range.
	ErrDoubleFree
	// ErrOutOfStack is stack_size exceeding i32::MAX.
	ErrOutOfStack
	// ErrOutOfRegisters is a used list empty with no free registers
	// remaining: a logic bug, not spilling exhaustion.
	ErrOutOfRegisters
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownSymbol:
		return "UnknownSymbol"
	case ErrWrongKind:
		return "WrongKind"
	case ErrUnsupportedStorage:
		return "UnsupportedStorage"
	case ErrUnsupportedLayout:
		return "UnsupportedLayout"
	case ErrDoubleFree:
		return "DoubleFree"
	case ErrOutOfStack:
		return "OutOfStack"
	case ErrOutOfRegisters:
		return "OutOfRegisters"
	default:
		return "Unknown"
	}
}

// InternalError is the payload of every panic the storage manager raises.
// There is no recovery path within the manager; a client that wants to turn
// this into a compiler diagnostic recovers at the top of a compilation unit
// and inspects Kind.
type InternalError struct {
	Kind ErrorKind
	Msg  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("storage: %s: %s", e.Kind, e.Msg)
}

// internalError panics with a *InternalError of the given kind. This is the
// uniform internal_error hook named in the storage manager's error handling
// design: every anomaly the manager can detect terminates compilation.
func internalError(kind ErrorKind, format string, args ...any) {
	panic(&InternalError{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}
