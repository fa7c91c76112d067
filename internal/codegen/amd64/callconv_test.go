package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"

	asm "github.com/nativegen/storagemgr/internal/codegen"
)

func TestSystemVDefaultFreeRegsReturnsIndependentCopies(t *testing.T) {
	cc := SystemV{}
	a := cc.GeneralDefaultFreeRegs()
	b := cc.GeneralDefaultFreeRegs()
	require.Equal(t, a, b)

	a[0] = RAX + 1
	require.NotEqual(t, a[0], b[0], "mutating one call's slice must not affect another's")
}

func TestSystemVCalleeSavedClassification(t *testing.T) {
	cc := SystemV{}
	for _, r := range []struct {
		reg    asm.Register
		callee bool
		caller bool
	}{
		{RBX, true, false},
		{R12, true, false},
		{R15, true, false},
		{RAX, false, true},
		{RCX, false, true},
		{RDX, false, true},
	} {
		require.Equal(t, r.callee, cc.GeneralCalleeSaved(r.reg), "register %v", r.reg)
		require.Equal(t, r.caller, cc.GeneralCallerSaved(r.reg), "register %v", r.reg)
	}
}

func TestSystemVFloatRegsAreAllCallerSaved(t *testing.T) {
	cc := SystemV{}
	for _, r := range []asm.Register{XMM0, XMM7, XMM15} {
		require.True(t, cc.FloatCallerSaved(r))
		require.False(t, cc.FloatCalleeSaved(r))
	}
}

func TestIntArgRegsOrder(t *testing.T) {
	require.Equal(t, []asm.Register{RDI, RSI, RDX, RCX, R8, R9}, IntArgRegs)
}
