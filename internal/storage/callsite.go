package storage

import (
	"bytes"

	asm "github.com/nativegen/storagemgr/internal/codegen"
)

// GeneralRegArg binds sym, an incoming parameter, to reg per the calling
// convention: reg is removed from the free list (if present) and added to
// the used list.
func (m *Manager[S]) GeneralRegArg(sym S, reg asm.Register) {
	m.bindRegArg(sym, reg, GeneralReg)
}

// FloatRegArg is the float-register equivalent of GeneralRegArg.
func (m *Manager[S]) FloatRegArg(sym S, reg asm.Register) {
	m.bindRegArg(sym, reg, FloatReg)
}

func (m *Manager[S]) bindRegArg(sym S, reg asm.Register, kind RegKind) {
	m.symbols[sym] = regStorage(kind, reg)
	pool := m.poolFor(kind)
	removeFree(&pool.free, reg)
	pool.markUsed(reg, sym)
}

func removeFree(free *[]asm.Register, reg asm.Register) {
	f := *free
	for i, r := range f {
		if r == reg {
			*free = append(f[:i], f[i+1:]...)
			return
		}
	}
}

// PrimitiveStackArg binds sym, an incoming parameter passed on the stack, to
// a primitive slot at baseOffset — a positive, caller-frame-relative
// displacement per spec.md §6's stack frame contract.
func (m *Manager[S]) PrimitiveStackArg(sym S, baseOffset int32) {
	m.symbols[sym] = primitiveStorage(baseOffset, GeneralReg, asm.NilRegister, false)
}

// RetPointerArg binds this Manager's well-known RET_POINTER symbol (fixed
// at construction, see New) to reg: the hidden first argument used when
// returning an aggregate larger than the return-register set.
func (m *Manager[S]) RetPointerArg(reg asm.Register) {
	m.GeneralRegArg(m.retPointer, reg)
}

// UpdateFnCallStackSize records max(current, n): the extra bytes of stack
// this function must reserve at its prologue to hold outgoing stack
// arguments for the call site that just required n bytes.
func (m *Manager[S]) UpdateFnCallStackSize(n int32) {
	if n > m.fnCallStackSize {
		m.fnCallStackSize = n
	}
}

// PushUsedCallerSavedRegsToStack spills every used register that the
// calling convention marks caller-saved, returning each to the free list.
// Callee-saved entries are left untouched. After this call, any call
// instruction the client emits next cannot corrupt a live symbol. General
// registers are processed before float registers, matching the order a
// consumer would expect call clobbering to be undone in.
func (m *Manager[S]) PushUsedCallerSavedRegsToStack(buf *bytes.Buffer) {
	m.pushCallerSaved(buf, m.general, GeneralReg, m.cc.GeneralCallerSaved)
	m.pushCallerSaved(buf, m.float, FloatReg, m.cc.FloatCallerSaved)
}

func (m *Manager[S]) pushCallerSaved(buf *bytes.Buffer, pool *regPool[S], kind RegKind, callerSaved func(asm.Register) bool) {
	oldReg := pool.usedReg
	oldSym := pool.usedSym
	pool.usedReg = nil
	pool.usedSym = nil

	for i, r := range oldReg {
		sym := oldSym[i]
		if callerSaved(r) {
			m.spillToStack(buf, sym, kind, r)
			pool.pushFree(r)
		} else {
			pool.usedReg = append(pool.usedReg, r)
			pool.usedSym = append(pool.usedSym, sym)
		}
	}
}
