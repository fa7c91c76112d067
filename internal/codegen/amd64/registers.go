// Package amd64 is a concrete instantiation of the storage manager's
// asm.Assembler/asm.CallConv contracts for the System V AMD64 ABI, built on
// github.com/twitchyliquid64/golang-asm — the same assembler library the
// teacher repository used before replacing it with a hand-written one.
//
// It exists to prove the storage package's contracts are satisfiable on a
// real target and to exercise them end to end in tests; it is not itself
// part of the storage manager's public contract.
package amd64

import asm "github.com/nativegen/storagemgr/internal/codegen"

// General purpose registers, in System V AMD64 register numbering. RSP and
// RBP are reserved for the stack/base pointer and never appear in the free
// or used lists.
const (
	RAX asm.Register = asm.NilRegister + 1 + iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// Floating point (SSE) registers.
const (
	XMM0 asm.Register = R15 + 1 + iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15
)

// generalDefaultFree lists the general-purpose registers available to the
// storage manager at function entry, in LRU-preference order (RAX is
// popped first, matching the source's preference for the accumulator
// register as the cheapest-to-encode scratch register). RSP/RBP are never
// included: they are reserved for addressing the frame itself.
var generalDefaultFree = []asm.Register{
	R15, R14, R13, R12, RBX, // callee-saved, listed first so they're the last resort
	R11, R10, R9, R8, RSI, RDI, RDX, RCX, RAX, // caller-saved, popped first
}

var floatDefaultFree = []asm.Register{
	XMM15, XMM14, XMM13, XMM12, XMM11, XMM10, XMM9, XMM8,
	XMM7, XMM6, XMM5, XMM4, XMM3, XMM2, XMM1, XMM0,
}

// calleeSavedGeneral reports the System V AMD64 callee-saved registers that
// can enter the pools: RBX and R12-R15. RBP and RSP are callee-saved under the
// ABI too, but never enter the pools, so it reports false for them.
func calleeSavedGeneral(r asm.Register) bool {
	switch r {
	case RBX, R12, R13, R14, R15:
		return true
	default:
		return false
	}
}

// System V AMD64 passes no floating point registers callee-saved; all of
// XMM0-XMM15 are caller-saved.
func calleeSavedFloat(asm.Register) bool { return false }

func callerSavedGeneral(r asm.Register) bool {
	switch r {
	case RAX, RCX, RDX, RSI, RDI, R8, R9, R10, R11:
		return true
	default:
		return false
	}
}

func callerSavedFloat(asm.Register) bool { return true }
