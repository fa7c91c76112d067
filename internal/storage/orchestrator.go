package storage

import (
	"bytes"

	asm "github.com/nativegen/storagemgr/internal/codegen"
	"github.com/nativegen/storagemgr/internal/layout"
)

// ClaimGeneralReg acquires a general register for sym, which must not
// already have storage, spilling another symbol if necessary.
func (m *Manager[S]) ClaimGeneralReg(buf *bytes.Buffer, sym S) asm.Register {
	return m.claimReg(buf, sym, GeneralReg)
}

// ClaimFloatReg is the float-register equivalent of ClaimGeneralReg.
func (m *Manager[S]) ClaimFloatReg(buf *bytes.Buffer, sym S) asm.Register {
	return m.claimReg(buf, sym, FloatReg)
}

func (m *Manager[S]) claimReg(buf *bytes.Buffer, sym S, kind RegKind) asm.Register {
	if _, ok := m.symbols[sym]; ok {
		internalError(ErrUnknownSymbol, "claim_reg: symbol %v already has storage", sym)
	}
	var reg asm.Register
	if kind == FloatReg {
		reg = m.getFloatReg(buf)
	} else {
		reg = m.getGeneralReg(buf)
	}
	m.poolFor(kind).markUsed(reg, sym)
	m.symbols[sym] = regStorage(kind, reg)
	return reg
}

// WithTmpGeneralReg acquires a temporary general register, runs fn with it,
// and unconditionally returns it to the free list without binding it to any
// symbol. Temporaries don't survive a call: callers must not hold one
// across PushUsedCallerSavedRegsToStack.
func (m *Manager[S]) WithTmpGeneralReg(buf *bytes.Buffer, fn func(reg asm.Register)) {
	reg := m.getGeneralReg(buf)
	fn(reg)
	m.general.pushFree(reg)
}

// WithTmpFloatReg is the float-register equivalent of WithTmpGeneralReg.
func (m *Manager[S]) WithTmpFloatReg(buf *bytes.Buffer, fn func(reg asm.Register)) {
	reg := m.getFloatReg(buf)
	fn(reg)
	m.float.pushFree(reg)
}

// LoadToGeneralReg resolves sym's current storage and returns a general
// register containing its value, emitting a load if necessary.
func (m *Manager[S]) LoadToGeneralReg(buf *bytes.Buffer, sym S) asm.Register {
	return m.loadToReg(buf, sym, GeneralReg)
}

// LoadToFloatReg is the float-register equivalent of LoadToGeneralReg.
func (m *Manager[S]) LoadToFloatReg(buf *bytes.Buffer, sym S) asm.Register {
	return m.loadToReg(buf, sym, FloatReg)
}

func (m *Manager[S]) loadToReg(buf *bytes.Buffer, sym S, kind RegKind) asm.Register {
	st := m.storageOf(sym)
	switch st.kind {
	case kindReg:
		if st.regKind != kind {
			internalError(ErrWrongKind, "cannot load %s-kind symbol %v into a %s register", st.regKind, sym, kind)
		}
		return st.reg

	case kindPrimitive:
		if st.hasReg {
			if st.regKind != kind {
				internalError(ErrWrongKind, "cannot load %s-kind symbol %v into a %s register", st.regKind, sym, kind)
			}
			return st.reg
		}
		if st.offset%8 != 0 {
			internalError(ErrUnsupportedStorage, "primitive slot for %v is not 8-byte aligned: offset=%d", sym, st.offset)
		}
		var reg asm.Register
		if kind == FloatReg {
			reg = m.getFloatReg(buf)
		} else {
			reg = m.getGeneralReg(buf)
		}
		m.emitLoad(buf, kind, reg, st.offset)
		m.poolFor(kind).markUsed(reg, sym)
		m.symbols[sym] = primitiveStorage(st.offset, kind, reg, true)
		return reg

	case kindReferencedPrimitive:
		if st.offset%8 == 0 && st.size == 8 {
			// Fully aligned and register-sized: treat exactly like a
			// regular stack primitive, then drop the allocation edge
			// since the value now lives entirely in a register.
			var reg asm.Register
			if kind == FloatReg {
				reg = m.getFloatReg(buf)
			} else {
				reg = m.getGeneralReg(buf)
			}
			m.emitLoad(buf, kind, reg, st.offset)
			m.poolFor(kind).markUsed(reg, sym)
			m.symbols[sym] = regStorage(kind, reg)
			m.freeAllocationRef(sym)
			return reg
		}
		// Sub-8-byte or unaligned referenced primitives require a masked,
		// zero-extending sub-word load via the assembler; spec.md §9 marks
		// this an open question the spec requires implementers to
		// provide, which needs an Assembler capability beyond the six
		// fixed 64-bit moves this module's asm.Assembler exposes.
		internalError(ErrUnsupportedStorage, "loading unaligned or sub-8-byte referenced primitive for %v (offset=%d,size=%d) requires a sub-word masked load, not yet implemented", sym, st.offset, st.size)

	default:
		internalError(ErrUnsupportedStorage, "cannot load %v into a register: storage is %s", sym, st)
	}
	panic("unreachable")
}

// LoadToSpecifiedGeneralReg loads sym's value into exactly reg. Unlike
// LoadToGeneralReg it does not update the used/free lists or the storage
// map, and assumes reg is already free: used at call sites and for returns,
// where the caller restores bookkeeping itself after the call sequence.
func (m *Manager[S]) LoadToSpecifiedGeneralReg(buf *bytes.Buffer, sym S, reg asm.Register) {
	m.loadToSpecifiedReg(buf, sym, reg, GeneralReg)
}

// LoadToSpecifiedFloatReg is the float-register equivalent of
// LoadToSpecifiedGeneralReg.
func (m *Manager[S]) LoadToSpecifiedFloatReg(buf *bytes.Buffer, sym S, reg asm.Register) {
	m.loadToSpecifiedReg(buf, sym, reg, FloatReg)
}

func (m *Manager[S]) loadToSpecifiedReg(buf *bytes.Buffer, sym S, reg asm.Register, kind RegKind) {
	st := m.storageOf(sym)
	switch st.kind {
	case kindReg:
		if st.regKind != kind {
			internalError(ErrWrongKind, "cannot load %s-kind symbol %v into a %s register", st.regKind, sym, kind)
		}
		if st.reg == reg {
			return
		}
		m.emitRegToReg(buf, kind, reg, st.reg)

	case kindPrimitive:
		if st.hasReg {
			if st.regKind != kind {
				internalError(ErrWrongKind, "cannot load %s-kind symbol %v into a %s register", st.regKind, sym, kind)
			}
			if st.reg == reg {
				return
			}
			m.emitRegToReg(buf, kind, reg, st.reg)
			return
		}
		if st.offset%8 != 0 {
			internalError(ErrUnsupportedStorage, "primitive slot for %v is not 8-byte aligned: offset=%d", sym, st.offset)
		}
		m.emitLoad(buf, kind, reg, st.offset)

	case kindReferencedPrimitive:
		if st.offset%8 == 0 && st.size == 8 {
			m.emitLoad(buf, kind, reg, st.offset)
			return
		}
		internalError(ErrUnsupportedStorage, "loading unaligned or sub-8-byte referenced primitive for %v requires a sub-word masked load, not yet implemented", sym)

	default:
		internalError(ErrUnsupportedStorage, "cannot load %v into a register: storage is %s", sym, st)
	}
}

func (m *Manager[S]) emitRegToReg(buf *bytes.Buffer, kind RegKind, dst, src asm.Register) {
	if kind == FloatReg {
		m.asm.MovFreg64Freg64(buf, dst, src)
	} else {
		m.asm.MovReg64Reg64(buf, dst, src)
	}
}

// ClaimStackArea wraps claim_stack_size, binding sym to a fresh Complex
// region of the given size and installing a new owning allocation with a
// single reference. Used only for composite data — primitives never go
// through here.
func (m *Manager[S]) ClaimStackArea(sym S, size int32) int32 {
	offset := m.stack.claim(size)
	m.symbols[sym] = complexStorage(offset, size)
	m.allocations[sym] = &allocation{offset: offset, size: align8(size), refs: 1}
	return offset
}

// LoadFieldAtIndex projects field index of structure into sym: a lazy
// operation that shares the structure's backing allocation (no bytes move)
// and computes the field's offset as the cumulative stack size of the
// preceding fields in fieldLayouts.
func (m *Manager[S]) LoadFieldAtIndex(sym, structure S, index int, fieldLayouts []layout.Layout) {
	if index < 0 || index >= len(fieldLayouts) {
		internalError(ErrUnsupportedLayout, "field index %d out of range for %d fields", index, len(fieldLayouts))
	}
	alloc, ok := m.allocations[structure]
	if !ok {
		internalError(ErrUnknownSymbol, "unknown symbol: %v", structure)
	}

	st := m.storageOf(structure)
	if st.kind != kindComplex {
		internalError(ErrUnsupportedStorage, "cannot load field from %v with storage %s", structure, st)
	}

	dataOffset := st.offset
	for _, f := range fieldLayouts[:index] {
		dataOffset += int32(f.StackSize())
	}
	if dataOffset >= st.offset+st.size {
		internalError(ErrUnsupportedLayout, "field %d offset %d falls outside structure %v's region [%d,%d)", index, dataOffset, structure, st.offset, st.offset+st.size)
	}

	fieldLayout := fieldLayouts[index]
	size := int32(fieldLayout.StackSize())

	alloc.refs++
	m.allocations[sym] = alloc

	if layout.IsPrimitive(fieldLayout) {
		m.symbols[sym] = referencedPrimitiveStorage(dataOffset, size)
	} else {
		m.symbols[sym] = complexStorage(dataOffset, size)
	}
}

// CreateStruct lays out fields on the stack per layout and binds sym to the
// resulting region. A zero-sized struct yields NoData with no stack claim.
func (m *Manager[S]) CreateStruct(buf *bytes.Buffer, sym S, l layout.Layout, fields []S) {
	structSize := l.StackSize()
	if structSize == 0 {
		m.symbols[sym] = noDataStorage
		return
	}
	baseOffset := m.ClaimStackArea(sym, int32(structSize))

	if l.Kind == layout.Struct {
		offset := baseOffset
		for i, field := range fields {
			fieldLayout := l.Fields[i]
			m.CopySymbolToStackOffset(buf, offset, field, fieldLayout)
			offset += int32(fieldLayout.StackSize())
		}
		return
	}

	// A single-field "struct" uses the field's own layout directly.
	if len(fields) != 1 {
		internalError(ErrUnsupportedLayout, "create_struct: non-struct layout with %d fields, expected 1", len(fields))
	}
	m.CopySymbolToStackOffset(buf, baseOffset, fields[0], l)
}

// CopySymbolToStackOffset materializes sym into the stack at toOffset per
// its layout: for an 8-byte integer or 64-bit float the value is loaded into
// the matching register kind and stored. Any other layout fails with
// ErrUnsupportedLayout rather than silently truncating.
func (m *Manager[S]) CopySymbolToStackOffset(buf *bytes.Buffer, toOffset int32, sym S, l layout.Layout) {
	switch l.Kind {
	case layout.I64:
		if toOffset%8 != 0 {
			internalError(ErrUnsupportedLayout, "copy_symbol_to_stack_offset: I64 destination %d is not 8-byte aligned", toOffset)
		}
		reg := m.LoadToGeneralReg(buf, sym)
		m.asm.MovBase32Reg64(buf, toOffset, reg)
	case layout.F64:
		if toOffset%8 != 0 {
			internalError(ErrUnsupportedLayout, "copy_symbol_to_stack_offset: F64 destination %d is not 8-byte aligned", toOffset)
		}
		reg := m.LoadToFloatReg(buf, sym)
		m.asm.MovBase32Freg64(buf, toOffset, reg)
	default:
		internalError(ErrUnsupportedLayout, "copy_symbol_to_stack_offset: unsupported layout kind %v for %v", l.Kind, sym)
	}
}
