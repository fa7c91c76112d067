package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	asm "github.com/nativegen/storagemgr/internal/codegen"
)

func TestClaimGeneralRegBindsFreeRegister(t *testing.T) {
	m, a := newTestManager()
	buf := &bytes.Buffer{}

	r := m.ClaimGeneralReg(buf, "x")
	require.Equal(t, g2, r, "first pop comes from the end of the default free list")
	require.Empty(t, a.ops, "no spill should have been necessary")
	require.True(t, m.symbols["x"].OnRegister())
}

func TestClaimGeneralRegRejectsSymbolAlreadyBound(t *testing.T) {
	m, _ := newTestManager()
	buf := &bytes.Buffer{}
	m.ClaimGeneralReg(buf, "x")
	require.Panics(t, func() { m.ClaimGeneralReg(buf, "x") })
}

func TestClaimGeneralRegSpillsOldestUsedWhenExhausted(t *testing.T) {
	m, a := newTestManager()
	buf := &bytes.Buffer{}

	r1 := m.ClaimGeneralReg(buf, "a") // g2
	r2 := m.ClaimGeneralReg(buf, "b") // g1
	r3 := m.ClaimGeneralReg(buf, "c") // g4
	r4 := m.ClaimGeneralReg(buf, "d") // g3
	require.Equal(t, []interface{}{g2, g1, g4, g3}, []interface{}{r1, r2, r3, r4})
	require.Empty(t, a.ops)

	r5 := m.ClaimGeneralReg(buf, "e")
	require.Equal(t, r1, r5, "the oldest used register (a's) must be stolen first")
	require.Equal(t, []string{"mov_base_reg"}, a.ops, "spilling a writes it to a fresh stack slot")

	require.True(t, m.symbols["a"].OnStack())
	require.False(t, m.symbols["a"].OnRegister())
	require.True(t, m.symbols["e"].OnRegister())
}

func TestClaimGeneralRegHandsOutEachDefaultRegisterOnce(t *testing.T) {
	m, _ := newTestManager()
	buf := &bytes.Buffer{}
	// One claim per default free register: each claim must get a register
	// no earlier claim holds. The out-of-registers panic is not reached here,
	// since the used list is never empty while the free list is.
	seen := map[asm.Register]bool{}
	syms := []string{"a", "b", "c", "d"}
	for _, s := range syms {
		r := m.ClaimGeneralReg(buf, s)
		seen[r] = true
	}
	require.Len(t, seen, 4)
}

func TestResetClearsSymbolsAndPools(t *testing.T) {
	m, _ := newTestManager()
	buf := &bytes.Buffer{}
	m.ClaimGeneralReg(buf, "x")
	require.NotEmpty(t, m.symbols)

	m.Reset()
	require.Empty(t, m.symbols)
	require.Empty(t, m.allocations)
	require.Equal(t, int32(0), m.StackSize())
	require.Equal(t, int32(0), m.FnCallStackSize())
}

func TestFreeSymbolUnknownSymbolPanics(t *testing.T) {
	m, _ := newTestManager()
	require.Panics(t, func() { m.FreeSymbol("nope") })
}

func TestFreeSymbolReleasesRegisterToFreeList(t *testing.T) {
	m, _ := newTestManager()
	buf := &bytes.Buffer{}
	r := m.ClaimGeneralReg(buf, "x")
	m.FreeSymbol("x")
	require.Contains(t, m.general.free, r)
	_, ok := m.symbols["x"]
	require.False(t, ok)
}

func TestFreeSymbolPrimitiveReturnsStackChunk(t *testing.T) {
	m, _ := newTestManager()
	m.PrimitiveStackArg("x", 16)
	m.FreeSymbol("x")
	// PrimitiveStackArg binds an argument slot the manager didn't itself
	// claim, so freeing it returns (16, 8) to the allocator's free list
	// even though stackSize was never grown for it - this mirrors the
	// source's behavior for incoming-argument slots living above the
	// frame's own claimed region.
	require.Contains(t, m.stack.freeList, chunk{offset: 16, size: 8})
}
