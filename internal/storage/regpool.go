package storage

import asm "github.com/nativegen/storagemgr/internal/codegen"

// regPool is one of the two symmetric register pools (general or float)
// described in spec.md §4.2: a free list, a used list recording which symbol
// currently owns each used register, and the subset of callee-saved
// registers that have ever been clobbered.
//
// The free list is consumed from the end (LRU-preference order, per
// asm.CallConv's contract: the last element is popped first). The used list
// is consumed from the front when a register must be stolen: "oldest entry
// in the used list" approximates LRU, per spec.md §4.2.
type regPool[S comparable] struct {
	free []asm.Register

	// used holds (register, symbol) pairs in the order they were claimed.
	usedReg []asm.Register
	usedSym []S

	// calleeSavedClobbered is every callee-saved register that has ever
	// been popped from free, tracked until function epilogue regardless of
	// whether it has since been freed again.
	calleeSavedClobbered map[asm.Register]bool
}

func newRegPool[S comparable]() *regPool[S] {
	return &regPool[S]{calleeSavedClobbered: map[asm.Register]bool{}}
}

func (p *regPool[S]) reset(defaultFree []asm.Register) {
	p.free = append(p.free[:0], defaultFree...)
	p.usedReg = p.usedReg[:0]
	p.usedSym = p.usedSym[:0]
	p.calleeSavedClobbered = map[asm.Register]bool{}
}

// markUsed appends (r, sym) to the used list.
func (p *regPool[S]) markUsed(r asm.Register, sym S) {
	p.usedReg = append(p.usedReg, r)
	p.usedSym = append(p.usedSym, sym)
}

// releaseUsed removes the used-list entry for sym and returns its register
// to the free list. Returns false if sym was not found in the used list.
func (p *regPool[S]) releaseUsed(sym S) (asm.Register, bool) {
	for i, s := range p.usedSym {
		if s == sym {
			r := p.usedReg[i]
			p.usedReg = append(p.usedReg[:i], p.usedReg[i+1:]...)
			p.usedSym = append(p.usedSym[:i], p.usedSym[i+1:]...)
			p.free = append(p.free, r)
			return r, true
		}
	}
	return asm.NilRegister, false
}

// popFree pops a register straight from the free list (LRU-preference
// order), without touching the used list. Returns false if the free list is
// empty. calleeSaved classifies the popped register so it can be recorded
// as clobbered.
func (p *regPool[S]) popFree(calleeSaved func(asm.Register) bool) (asm.Register, bool) {
	if len(p.free) == 0 {
		return asm.NilRegister, false
	}
	r := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	if calleeSaved(r) {
		p.calleeSavedClobbered[r] = true
	}
	return r, true
}

// popOldestUsed removes and returns the used-list entry at the front (the
// oldest), without returning its register to the free list — the caller is
// about to reuse that register directly for a new claimant.
func (p *regPool[S]) popOldestUsed() (asm.Register, S, bool) {
	if len(p.usedReg) == 0 {
		var zero S
		return asm.NilRegister, zero, false
	}
	r, s := p.usedReg[0], p.usedSym[0]
	p.usedReg = p.usedReg[1:]
	p.usedSym = p.usedSym[1:]
	return r, s, true
}

func (p *regPool[S]) pushFree(r asm.Register) {
	p.free = append(p.free, r)
}

// calleeSavedUsed returns every callee-saved register ever clobbered in this
// pool since the last reset, for epilogue generation.
func (p *regPool[S]) calleeSavedUsed() []asm.Register {
	out := make([]asm.Register, 0, len(p.calleeSavedClobbered))
	for r := range p.calleeSavedClobbered {
		out = append(out, r)
	}
	return out
}
