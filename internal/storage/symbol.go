package storage

import (
	"fmt"

	asm "github.com/nativegen/storagemgr/internal/codegen"
)

// RegKind distinguishes the two disjoint register families a value can live
// in. It is carried alongside a register value wherever a Storage might hold
// either kind, since asm.Register itself does not encode which family it
// belongs to.
type RegKind byte

const (
	GeneralReg RegKind = iota
	FloatReg
)

func (k RegKind) String() string {
	if k == FloatReg {
		return "float"
	}
	return "general"
}

// storageKind is the flat six-variant tag backing Storage. A flat struct
// with a kind byte is an implementation convenience over the tagged union in
// spec.md's data model, not a change in the contract: Storage is equally a
// two-level nesting (Storage{Reg,Stack{Primitive,ReferencedPrimitive,Complex}})
// or flat, so long as free_symbol and the load dispatch rules below hold.
type storageKind byte

const (
	kindReg storageKind = iota
	kindPrimitive
	kindReferencedPrimitive
	kindComplex
	kindNoData
)

// Storage records where one symbol's value currently lives.
type Storage struct {
	kind storageKind

	// regKind and reg are valid when kind == kindReg, or when kind ==
	// kindPrimitive and hasReg is true (a register mirrors the stack slot).
	regKind RegKind
	reg     asm.Register
	hasReg  bool

	// offset is valid for kindPrimitive, kindReferencedPrimitive and
	// kindComplex: a base-pointer-relative stack displacement.
	offset int32
	// size is valid for kindReferencedPrimitive and kindComplex. Primitive
	// slots are always exactly 8 bytes.
	size int32
}

func regStorage(kind RegKind, r asm.Register) Storage {
	return Storage{kind: kindReg, regKind: kind, reg: r}
}

func primitiveStorage(offset int32, regKind RegKind, reg asm.Register, hasReg bool) Storage {
	return Storage{kind: kindPrimitive, offset: offset, regKind: regKind, reg: reg, hasReg: hasReg}
}

func referencedPrimitiveStorage(offset, size int32) Storage {
	return Storage{kind: kindReferencedPrimitive, offset: offset, size: size}
}

func complexStorage(offset, size int32) Storage {
	return Storage{kind: kindComplex, offset: offset, size: size}
}

var noDataStorage = Storage{kind: kindNoData}

// OnRegister reports whether the value currently lives exclusively in a
// register (Reg), as opposed to merely being mirrored there.
func (s Storage) OnRegister() bool {
	return s.kind == kindReg
}

// OnStack reports whether the value lives on the stack, including a
// Primitive slot that happens to also be mirrored in a register.
func (s Storage) OnStack() bool {
	return s.kind == kindPrimitive || s.kind == kindReferencedPrimitive || s.kind == kindComplex
}

func (s Storage) String() string {
	switch s.kind {
	case kindReg:
		return fmt.Sprintf("reg(%s:%d)", s.regKind, s.reg)
	case kindPrimitive:
		if s.hasReg {
			return fmt.Sprintf("primitive(offset=%d,reg=%s:%d)", s.offset, s.regKind, s.reg)
		}
		return fmt.Sprintf("primitive(offset=%d)", s.offset)
	case kindReferencedPrimitive:
		return fmt.Sprintf("referenced_primitive(offset=%d,size=%d)", s.offset, s.size)
	case kindComplex:
		return fmt.Sprintf("complex(offset=%d,size=%d)", s.offset, s.size)
	case kindNoData:
		return "no_data"
	default:
		return "?"
	}
}
