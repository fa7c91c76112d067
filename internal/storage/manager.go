// Package storage implements the Storage Manager: the joint register
// allocator, spill manager and stack-frame builder for a direct-to-machine-
// code backend, bound to one function body at a time.
//
// A Manager is single-threaded and non-reentrant: it owns the byte buffer
// passed to each call only for the duration of that call. The only client
// code it runs during a call is the callback of WithTmpGeneralReg/
// WithTmpFloatReg, which receives the temporary register but not the Manager
// itself.
package storage

import (
	"bytes"

	asm "github.com/nativegen/storagemgr/internal/codegen"
)

// Manager is the Storage Manager, parameterized over the client's own
// symbol type S (equality and hashing are whatever Go's comparable gives S)
// and bound to one target via an asm.Assembler and asm.CallConv pair.
type Manager[S comparable] struct {
	asm asm.Assembler
	cc  asm.CallConv

	retPointer S

	symbols     map[S]Storage
	allocations map[S]*allocation

	general *regPool[S]
	float   *regPool[S]

	stack *stackAllocator

	// fnCallStackSize is the largest outgoing argument area any call site
	// in this function has required so far.
	fnCallStackSize int32
}

// New constructs a Manager for one target, described by asmImpl and cc.
// retPointer is the symbol value this Manager will use whenever it needs to
// refer to the well-known hidden aggregate-return pointer argument (bound
// via RetPointerArg); pass the same value consistently across calls into one
// Manager's lifetime.
func New[S comparable](asmImpl asm.Assembler, cc asm.CallConv, retPointer S) *Manager[S] {
	m := &Manager[S]{
		asm:         asmImpl,
		cc:          cc,
		retPointer:  retPointer,
		symbols:     map[S]Storage{},
		allocations: map[S]*allocation{},
		general:     newRegPool[S](),
		float:       newRegPool[S](),
		stack:       &stackAllocator{},
	}
	m.Reset()
	return m
}

// Reset clears all per-function state, ready to process a new function
// body. It is the first call a client makes for every function.
func (m *Manager[S]) Reset() {
	for k := range m.symbols {
		delete(m.symbols, k)
	}
	for k := range m.allocations {
		delete(m.allocations, k)
	}
	m.general.reset(m.cc.GeneralDefaultFreeRegs())
	m.float.reset(m.cc.FloatDefaultFreeRegs())
	m.stack.reset()
	m.fnCallStackSize = 0
}

// StackSize is the total size, in bytes, of the local stack frame built up
// so far: the negative of the lowest reachable base-pointer-relative offset.
func (m *Manager[S]) StackSize() int32 { return m.stack.stackSize }

// FnCallStackSize is the extra stack space the function's prologue must
// reserve to hold the largest set of outgoing stack arguments seen so far.
func (m *Manager[S]) FnCallStackSize() int32 { return m.fnCallStackSize }

// UsedCalleeSavedGeneralRegs returns every general-purpose callee-saved
// register this function has clobbered and so must restore at epilogue.
func (m *Manager[S]) UsedCalleeSavedGeneralRegs() []asm.Register { return m.general.calleeSavedUsed() }

// UsedCalleeSavedFloatRegs is the float-register equivalent of
// UsedCalleeSavedGeneralRegs.
func (m *Manager[S]) UsedCalleeSavedFloatRegs() []asm.Register { return m.float.calleeSavedUsed() }

func (m *Manager[S]) storageOf(sym S) Storage {
	st, ok := m.symbols[sym]
	if !ok {
		internalError(ErrUnknownSymbol, "unknown symbol: %v", sym)
	}
	return st
}

// getGeneralReg obtains a usable general register, spilling the oldest used
// symbol to the stack if none are free.
func (m *Manager[S]) getGeneralReg(buf *bytes.Buffer) asm.Register {
	if r, ok := m.general.popFree(m.cc.GeneralCalleeSaved); ok {
		return r
	}
	if r, sym, ok := m.general.popOldestUsed(); ok {
		m.spillToStack(buf, sym, GeneralReg, r)
		return r
	}
	internalError(ErrOutOfRegisters, "completely out of general purpose registers")
	panic("unreachable")
}

// getFloatReg is the float-register equivalent of getGeneralReg.
func (m *Manager[S]) getFloatReg(buf *bytes.Buffer) asm.Register {
	if r, ok := m.float.popFree(m.cc.FloatCalleeSaved); ok {
		return r
	}
	if r, sym, ok := m.float.popOldestUsed(); ok {
		m.spillToStack(buf, sym, FloatReg, r)
		return r
	}
	internalError(ErrOutOfRegisters, "completely out of float registers")
	panic("unreachable")
}

// spillToStack frees wantedReg, currently owned by sym, by writing its value
// to the stack. A pure Reg claims a fresh 8-byte slot; a Primitive that
// already mirrors a slot just drops the mirror (the slot's bytes are
// rewritten regardless, since the manager cannot otherwise know whether the
// register was mutated in place since the load).
func (m *Manager[S]) spillToStack(buf *bytes.Buffer, sym S, kind RegKind, wantedReg asm.Register) {
	st := m.storageOf(sym)
	switch st.kind {
	case kindReg:
		if st.regKind != kind || st.reg != wantedReg {
			internalError(ErrWrongKind, "spill: symbol %v does not own register as expected", sym)
		}
		offset := m.stack.claim(8)
		m.emitStore(buf, kind, offset, wantedReg)
		m.symbols[sym] = primitiveStorage(offset, GeneralReg, asm.NilRegister, false)
	case kindPrimitive:
		if !st.hasReg || st.regKind != kind || st.reg != wantedReg {
			internalError(ErrWrongKind, "spill: symbol %v does not own register as expected", sym)
		}
		m.emitStore(buf, kind, st.offset, wantedReg)
		m.symbols[sym] = primitiveStorage(st.offset, GeneralReg, asm.NilRegister, false)
	default:
		internalError(ErrUnsupportedStorage, "cannot free register from symbol %v without a register: %s", sym, st)
	}
}

func (m *Manager[S]) emitStore(buf *bytes.Buffer, kind RegKind, offset int32, reg asm.Register) {
	if kind == FloatReg {
		m.asm.MovBase32Freg64(buf, offset, reg)
	} else {
		m.asm.MovBase32Reg64(buf, offset, reg)
	}
}

func (m *Manager[S]) emitLoad(buf *bytes.Buffer, kind RegKind, reg asm.Register, offset int32) {
	if kind == FloatReg {
		m.asm.MovFreg64Base32(buf, reg, offset)
	} else {
		m.asm.MovReg64Base32(buf, reg, offset)
	}
}

// FreeSymbol releases every resource associated with sym: a register
// mirror, a primitive stack slot, or a reference into a shared allocation.
// Freeing a symbol with no bound storage is fatal (§7 UnknownSymbol).
func (m *Manager[S]) FreeSymbol(sym S) {
	st := m.storageOf(sym)
	delete(m.symbols, sym)

	switch st.kind {
	case kindPrimitive:
		m.stack.free(st.offset, 8)
	case kindComplex, kindReferencedPrimitive:
		m.freeAllocationRef(sym)
	}

	if st.kind == kindReg || (st.kind == kindPrimitive && st.hasReg) {
		pool := m.poolFor(st.regKind)
		pool.releaseUsed(sym)
	}
}

func (m *Manager[S]) poolFor(kind RegKind) *regPool[S] {
	if kind == FloatReg {
		return m.float
	}
	return m.general
}

// freeAllocationRef decrements the refcount of sym's backing allocation,
// returning the chunk to the free list once the last reference dies.
func (m *Manager[S]) freeAllocationRef(sym S) {
	alloc, ok := m.allocations[sym]
	if !ok {
		internalError(ErrUnknownSymbol, "unknown symbol in allocation map: %v", sym)
	}
	delete(m.allocations, sym)
	alloc.refs--
	if alloc.refs == 0 {
		m.stack.free(alloc.offset, alloc.size)
	}
}
