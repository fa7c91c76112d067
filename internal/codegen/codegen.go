// Package codegen defines the contracts the storage package is parameterized
// over: an instruction emitter (Assembler) and a target's calling convention
// (CallConv). Concrete architectures implement both; storage.Manager never
// imports a specific architecture package.
package codegen

import "bytes"

// Register is an opaque, architecture-specific register identifier. General
// purpose and floating point registers share this type but never the same
// values within one CallConv implementation — the manager always knows which
// family it is dealing with from which method it called, so no runtime type
// tag is needed here.
type Register uint8

// NilRegister is the zero value, used where no register is applicable.
const NilRegister Register = 0

// Assembler emits the handful of 64-bit move instructions the storage
// manager needs to realize a spill, a reload, or a field store. It writes
// directly into buf; callers own buf's lifetime.
//
// Every method here writes exactly one instruction. None of them touch
// bookkeeping: that is the Manager's job.
type Assembler interface {
	// MovReg64Reg64 copies a 64-bit integer register to another.
	MovReg64Reg64(buf *bytes.Buffer, dst, src Register)
	// MovFreg64Freg64 copies a 64-bit float register to another.
	MovFreg64Freg64(buf *bytes.Buffer, dst, src Register)
	// MovReg64Base32 loads 8 bytes from (basePointer+offset) into dst.
	MovReg64Base32(buf *bytes.Buffer, dst Register, offset int32)
	// MovFreg64Base32 loads 8 bytes from (basePointer+offset) into dst.
	MovFreg64Base32(buf *bytes.Buffer, dst Register, offset int32)
	// MovBase32Reg64 stores src's 8 bytes at (basePointer+offset).
	MovBase32Reg64(buf *bytes.Buffer, offset int32, src Register)
	// MovBase32Freg64 stores src's 8 bytes at (basePointer+offset).
	MovBase32Freg64(buf *bytes.Buffer, offset int32, src Register)
}

// CallConv exposes the parts of a target's calling convention the storage
// manager needs: which registers are free at function entry, and which of
// the two ABI-mandated save disciplines applies to any given register.
type CallConv interface {
	// GeneralDefaultFreeRegs returns the registers usable at function entry,
	// in LRU-preference order: the last element is popped first.
	GeneralDefaultFreeRegs() []Register
	// FloatDefaultFreeRegs is the float-register equivalent of GeneralDefaultFreeRegs.
	FloatDefaultFreeRegs() []Register
	// GeneralCalleeSaved reports whether r must be restored by this function
	// before it returns, if clobbered.
	GeneralCalleeSaved(r Register) bool
	// FloatCalleeSaved is the float-register equivalent of GeneralCalleeSaved.
	FloatCalleeSaved(r Register) bool
	// GeneralCallerSaved reports whether r may be clobbered by a call and so
	// must be spilled before emitting one.
	GeneralCallerSaved(r Register) bool
	// FloatCallerSaved is the float-register equivalent of GeneralCallerSaved.
	FloatCallerSaved(r Register) bool
}
