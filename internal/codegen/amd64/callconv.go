package amd64

import asm "github.com/nativegen/storagemgr/internal/codegen"

// SystemV implements asm.CallConv for the System V AMD64 ABI (the calling
// convention used on Linux, macOS and BSD amd64 targets).
type SystemV struct{}

var _ asm.CallConv = SystemV{}

func (SystemV) GeneralDefaultFreeRegs() []asm.Register { return append([]asm.Register(nil), generalDefaultFree...) }
func (SystemV) FloatDefaultFreeRegs() []asm.Register   { return append([]asm.Register(nil), floatDefaultFree...) }

func (SystemV) GeneralCalleeSaved(r asm.Register) bool { return calleeSavedGeneral(r) }
func (SystemV) FloatCalleeSaved(r asm.Register) bool   { return calleeSavedFloat(r) }
func (SystemV) GeneralCallerSaved(r asm.Register) bool { return callerSavedGeneral(r) }
func (SystemV) FloatCallerSaved(r asm.Register) bool   { return callerSavedFloat(r) }

// IntArgRegs is the System V AMD64 integer argument-passing sequence, in
// order: RDI, RSI, RDX, RCX, R8, R9.
var IntArgRegs = []asm.Register{RDI, RSI, RDX, RCX, R8, R9}

// FloatArgRegs is the System V AMD64 float argument-passing sequence:
// XMM0-XMM7.
var FloatArgRegs = []asm.Register{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7}
