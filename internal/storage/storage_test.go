package storage

import (
	"bytes"

	asm "github.com/nativegen/storagemgr/internal/codegen"
)

// Test register space: 1-4 general, 101-104 float. Disjoint ranges so a bug
// that mixes up families shows up immediately rather than aliasing.
const (
	g1 asm.Register = iota + 1
	g2
	g3
	g4
)

const (
	f1 asm.Register = iota + 101
	f2
	f3
	f4
)

// fakeAssembler records every instruction emitted instead of encoding real
// machine code, so tests can assert on the sequence of operations the
// manager performed without depending on any particular target's encoding.
type fakeAssembler struct {
	ops []string
}

func (a *fakeAssembler) MovReg64Reg64(buf *bytes.Buffer, dst, src asm.Register) {
	a.record("mov_reg_reg", dst, src, 0)
}

func (a *fakeAssembler) MovFreg64Freg64(buf *bytes.Buffer, dst, src asm.Register) {
	a.record("mov_freg_freg", dst, src, 0)
}

func (a *fakeAssembler) MovReg64Base32(buf *bytes.Buffer, dst asm.Register, offset int32) {
	a.record("mov_reg_base", dst, asm.NilRegister, offset)
}

func (a *fakeAssembler) MovFreg64Base32(buf *bytes.Buffer, dst asm.Register, offset int32) {
	a.record("mov_freg_base", dst, asm.NilRegister, offset)
}

func (a *fakeAssembler) MovBase32Reg64(buf *bytes.Buffer, offset int32, src asm.Register) {
	a.record("mov_base_reg", src, asm.NilRegister, offset)
}

func (a *fakeAssembler) MovBase32Freg64(buf *bytes.Buffer, offset int32, src asm.Register) {
	a.record("mov_base_freg", src, asm.NilRegister, offset)
}

func (a *fakeAssembler) record(op string, r1, r2 asm.Register, offset int32) {
	a.ops = append(a.ops, op)
}

var _ asm.Assembler = (*fakeAssembler)(nil)

// fakeCallConv is a minimal calling convention with a small, fixed register
// set: g1/g2 caller-saved, g3/g4 callee-saved; f1/f2 caller-saved, f3/f4
// callee-saved. Small enough to force spills deterministically in tests.
type fakeCallConv struct{}

func (fakeCallConv) GeneralDefaultFreeRegs() []asm.Register { return []asm.Register{g3, g4, g1, g2} }
func (fakeCallConv) FloatDefaultFreeRegs() []asm.Register   { return []asm.Register{f3, f4, f1, f2} }

func (fakeCallConv) GeneralCalleeSaved(r asm.Register) bool { return r == g3 || r == g4 }
func (fakeCallConv) FloatCalleeSaved(r asm.Register) bool   { return r == f3 || r == f4 }
func (fakeCallConv) GeneralCallerSaved(r asm.Register) bool { return r == g1 || r == g2 }
func (fakeCallConv) FloatCallerSaved(r asm.Register) bool   { return r == f1 || r == f2 }

var _ asm.CallConv = fakeCallConv{}

// newTestManager builds a Manager[string] over the fakes above, with
// retPointer bound to the symbol "ret_ptr".
func newTestManager() (*Manager[string], *fakeAssembler) {
	a := &fakeAssembler{}
	m := New[string](a, fakeCallConv{}, "ret_ptr")
	return m, a
}
