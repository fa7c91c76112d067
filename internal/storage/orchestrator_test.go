package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nativegen/storagemgr/internal/layout"
)

func TestLoadToGeneralRegReturnsExistingRegDirectly(t *testing.T) {
	m, a := newTestManager()
	buf := &bytes.Buffer{}
	want := m.ClaimGeneralReg(buf, "x")

	got := m.LoadToGeneralReg(buf, "x")
	require.Equal(t, want, got)
	require.Empty(t, a.ops, "already in a register of the right kind: no instruction needed")
}

func TestLoadToGeneralRegWrongKindPanics(t *testing.T) {
	m, _ := newTestManager()
	buf := &bytes.Buffer{}
	m.ClaimFloatReg(buf, "x")
	require.Panics(t, func() { m.LoadToGeneralReg(buf, "x") })
}

func TestLoadToGeneralRegFromPrimitiveSlotLoadsAndPromotes(t *testing.T) {
	m, a := newTestManager()
	buf := &bytes.Buffer{}
	m.PrimitiveStackArg("x", 16)

	reg := m.LoadToGeneralReg(buf, "x")
	require.Equal(t, []string{"mov_reg_base"}, a.ops)
	require.True(t, m.symbols["x"].hasReg)
	require.Equal(t, reg, m.symbols["x"].reg)

	a.ops = nil
	again := m.LoadToGeneralReg(buf, "x")
	require.Equal(t, reg, again)
	require.Empty(t, a.ops, "a second load of an already-mirrored primitive is free")
}

func TestLoadToGeneralRegUnalignedPrimitivePanics(t *testing.T) {
	m, _ := newTestManager()
	buf := &bytes.Buffer{}
	m.PrimitiveStackArg("x", 3)
	require.Panics(t, func() { m.LoadToGeneralReg(buf, "x") })
}

func TestClaimStackAreaAndLoadFieldAtIndexSharesAllocation(t *testing.T) {
	m, _ := newTestManager()
	fields := []layout.Layout{{Kind: layout.I64}, {Kind: layout.F64}}

	off := m.ClaimStackArea("s", 16)
	require.Equal(t, int32(-16), off)
	require.Equal(t, 1, m.allocations["s"].refs)

	m.LoadFieldAtIndex("s.0", "s", 0, fields)
	require.Equal(t, 2, m.allocations["s"].refs, "projecting a field increments the shared refcount")
	require.True(t, m.symbols["s.0"].kind == kindReferencedPrimitive)
	require.Same(t, m.allocations["s"], m.allocations["s.0"])

	m.LoadFieldAtIndex("s.1", "s", 1, fields)
	require.Equal(t, 3, m.allocations["s"].refs)

	m.FreeSymbol("s")
	require.Equal(t, 2, m.allocations["s.0"].refs, "freeing the struct does not free the chunk while fields still reference it")
	require.NotContains(t, m.stack.freeList, chunk{offset: off, size: 16})

	m.FreeSymbol("s.0")
	require.Equal(t, 1, m.allocations["s.1"].refs)
	require.NotContains(t, m.stack.freeList, chunk{offset: off, size: 16}, "one live reference (s.1) still keeps the chunk allocated")

	m.FreeSymbol("s.1")
	require.Contains(t, m.stack.freeList, chunk{offset: off, size: 16}, "the last reference releases the chunk")
}

func TestLoadFieldAtIndexOutOfRangePanics(t *testing.T) {
	m, _ := newTestManager()
	fields := []layout.Layout{{Kind: layout.I64}}
	m.ClaimStackArea("s", 8)
	require.Panics(t, func() { m.LoadFieldAtIndex("f", "s", 5, fields) })
}

func TestCreateStructZeroSizedYieldsNoData(t *testing.T) {
	m, _ := newTestManager()
	buf := &bytes.Buffer{}
	m.CreateStruct(buf, "z", layout.Layout{Kind: layout.ZeroSized}, nil)
	require.Equal(t, kindNoData, m.symbols["z"].kind)
}

func TestCreateStructCopiesFieldsInOrder(t *testing.T) {
	m, a := newTestManager()
	buf := &bytes.Buffer{}
	m.GeneralRegArg("a", g1)
	m.FloatRegArg("b", f1)

	l := layout.Layout{Kind: layout.Struct, Fields: []layout.Layout{{Kind: layout.I64}, {Kind: layout.F64}}}
	m.CreateStruct(buf, "s", l, []string{"a", "b"})

	require.Equal(t, []string{"mov_base_reg", "mov_base_freg"}, a.ops)
	require.Equal(t, kindComplex, m.symbols["s"].kind)
	require.Equal(t, int32(16), m.symbols["s"].size)
}
