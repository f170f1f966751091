// Package verifier statically proves that a bytecode program cannot
// execute an invalid opcode, read an uninitialized register, branch
// outside the program, access memory outside its permitted region, divide
// by zero, or loop forever (subject to the profile's loop-bounding policy).
package verifier

import (
	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/profile"
	"github.com/utkarshm/axiom-bpf/register"
)

// maxContextOffset bounds context-pointer accesses statically. The ABI's
// largest event struct (SyscallContext) is 56 bytes; 256 leaves headroom
// for future attachment context types without reopening the verifier.
const maxContextOffset = 256

// maxMapValueOffset is a conservative static bound on map-value pointer
// arithmetic. Exact per-map bounds require the map's value size, which is
// only known at map-creation time, not at verification time; this is a
// documented simplification, not a security hole, since the interpreter
// re-checks every map-value access against the map's actual value size at
// dispatch time (see vm.Interpreter.region).
const maxMapValueOffset = 4096

// Verify runs the full pipeline from §4.3 against insns for the given
// program type under profile P, returning an immutable, executable
// Program on success.
func Verify[P profile.Physical](progType bytecode.ProgType, insns []bytecode.Instruction) (*bytecode.Program, Error) {
	var p P

	if len(insns) == 0 {
		return nil, ErrEmptyProgram()
	}
	if len(insns) > p.MaxInstructions() {
		return nil, ErrInsnCountExceeded(len(insns), p.MaxInstructions())
	}

	cfg := BuildCFG(insns)
	reachable := cfg.ReachableInstructions()
	for idx := range insns {
		if idx == 0 {
			continue
		}
		if !reachable[idx] && len(cfg.Predecessors(idx)) > 0 {
			return nil, ErrUnreachableInstruction(idx)
		}
	}

	reachedExit := false
	for _, ex := range cfg.ExitPoints() {
		if reachable[ex] {
			reachedExit = true
			break
		}
	}
	if !reachedExit {
		return nil, ErrNoExit()
	}

	v := &verifyPass{
		insns:    insns,
		cfg:      cfg,
		progType: progType,
		profile:  p,
		states:   make(map[int]State, len(insns)),
	}
	if err := v.run(); err != nil {
		return nil, err
	}

	if cfg.HasLoops() {
		if err := v.checkLoopBounding(); err != nil {
			return nil, err
		}
	}

	stackUsed := -v.minStackOffset
	if stackUsed > p.MaxStackBytes() {
		return nil, ErrStackExceeded(stackUsed, p.MaxStackBytes())
	}

	prog := &bytecode.Program{Type: progType, Insns: insns, StackBound: stackUsed}
	return prog, nil
}

type verifyPass struct {
	insns          []bytecode.Instruction
	cfg            *ControlFlowGraph
	progType       bytecode.ProgType
	profile        profile.Physical
	states         map[int]State
	minStackOffset int
}

// run performs the abstract-interpretation fixed-point iteration (§4.3 step
// 5) and, inline, the helper-allowlist check (step 7) and R10/div-by-zero
// checks. Reachable instructions are processed repeatedly until no state
// changes, bounded by a small multiple of the instruction count so
// termination never depends on recursion depth.
func (v *verifyPass) run() Error {
	entry := EntryState()
	v.states[0] = entry

	maxPasses := len(v.insns)*2 + 8
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for idx := range v.insns {
			in, ok := v.incomingState(idx)
			if !ok {
				continue
			}
			prev, had := v.states[idx]
			if had && statesEqual(prev, in) {
				continue
			}
			v.states[idx] = in
			changed = true
		}
		if !changed {
			break
		}
	}

	for idx, insn := range v.insns {
		st, ok := v.states[idx]
		if !ok {
			continue // unreachable, already reported above if it mattered
		}
		if err := v.checkInstruction(idx, insn, st); err != nil {
			return err
		}
		out := v.transfer(idx, st)
		if out.StackWrite < v.minStackOffset {
			v.minStackOffset = out.StackWrite
		}
	}
	return nil
}

func (v *verifyPass) incomingState(idx int) (State, bool) {
	if idx == 0 {
		return v.states[0], true
	}
	preds := v.cfg.Predecessors(idx)
	if len(preds) == 0 {
		return State{}, false
	}
	var merged State
	first := true
	any := false
	for _, p := range preds {
		ps, ok := v.states[p]
		if !ok {
			continue
		}
		out := v.transfer(p, ps)
		if first {
			merged = out
			first = false
		} else {
			merged.JoinInto(out)
		}
		any = true
	}
	return merged, any
}

// transfer computes the post-state of instruction idx given its pre-state,
// without raising errors (errors are raised once in the final checking
// pass over fully-converged states, so a mid-iteration transient state
// never produces a spurious diagnostic).
func (v *verifyPass) transfer(idx int, in State) State {
	out := in
	insn := v.insns[idx]
	switch {
	case insn.IsExit(), insn.IsWideImmHigh():
		return out
	case insn.Op.Class() == bytecode.ClassLoadImm && insn.IsWide():
		if idx+1 < len(v.insns) {
			imm := bytecode.ImmHigh64(insn, v.insns[idx+1])
			out.Regs[insn.Dst] = ScalarExact(int64(imm))
		}
	case insn.Op.IsALU():
		out.Regs[insn.Dst] = v.transferALU(insn, in)
	case insn.IsLoad():
		out.Regs[insn.Dst] = v.loadResultState(insn, in)
	case insn.IsCall():
		out.Regs[register.R0] = ScalarUnknown()
		for r := register.R1; r <= register.R5; r++ {
			out.Regs[r] = Uninit()
		}
	case insn.IsStore():
		if insn.Dst == register.R10 {
			baseState := in.Regs[register.R10]
			off := int64(baseState.Offset) + int64(insn.Off)
			if off < out.StackWrite {
				out.StackWrite = off
			}
		} else {
			base := in.Regs[insn.Dst]
			if base.Kind == KindPtrStack {
				off := base.Offset + int64(insn.Off)
				if off < out.StackWrite {
					out.StackWrite = off
				}
			}
		}
	}
	return out
}

func (v *verifyPass) transferALU(insn bytecode.Instruction, in State) RegState {
	dst := in.Regs[insn.Dst]
	if insn.Op.AluOp() == bytecode.AluMov {
		if insn.Op.Src() == bytecode.SrcImm {
			return ScalarExact(int64(insn.Imm))
		}
		return in.Regs[insn.Src]
	}
	if insn.Op.AluOp() == bytecode.AluAdd {
		switch dst.Kind {
		case KindPtrContext, KindPtrStack, KindPtrMapValue:
			delta := int64(insn.Imm)
			if insn.Op.Src() == bytecode.SrcReg {
				src := in.Regs[insn.Src]
				if src.Kind == KindScalar && src.Scalar.Known && src.Scalar.Min == src.Scalar.Max {
					delta = src.Scalar.Min
				} else {
					delta = 0
				}
			}
			next := dst
			next.Offset += delta
			return next
		}
	}
	return ScalarUnknown()
}

func (v *verifyPass) loadResultState(insn bytecode.Instruction, in State) RegState {
	base := in.Regs[insn.Src]
	switch base.Kind {
	case KindPtrMapValue:
		return ScalarUnknown()
	default:
		return ScalarUnknown()
	}
}

func statesEqual(a, b State) bool {
	if a.StackWrite != b.StackWrite {
		return false
	}
	for i := range a.Regs {
		if a.Regs[i] != b.Regs[i] {
			return false
		}
	}
	return true
}

// checkInstruction raises the §4.3/§7 diagnostics for one instruction given
// its fully-converged pre-state.
func (v *verifyPass) checkInstruction(idx int, insn bytecode.Instruction, st State) Error {
	switch {
	case insn.IsExit():
		if st.Regs[register.R0].Kind == KindUninitialized {
			return ErrUninitializedRegister(idx, uint8(register.R0))
		}
		return nil
	case insn.IsWideImmHigh():
		return nil
	case insn.Op.Class() == bytecode.ClassLoadImm && insn.IsWide():
		return nil
	case insn.IsCall():
		return v.checkCall(idx, insn, st)
	case insn.Op.IsALU():
		return v.checkALU(idx, insn, st)
	case insn.IsLoad():
		return v.checkLoad(idx, insn, st)
	case insn.IsStore():
		return v.checkStore(idx, insn, st)
	case insn.IsJump():
		return v.checkJump(idx, insn, st)
	default:
		return nil
	}
}

func (v *verifyPass) checkALU(idx int, insn bytecode.Instruction, st State) Error {
	if insn.Dst == register.R10 {
		return ErrWriteToReadOnly(idx)
	}
	// mov never reads its destination, only writes it, regardless of
	// whether its source is a register or an immediate. Every other ALU
	// op (add/sub/.../arsh, neg) is read-modify-write and requires dst to
	// already hold a value.
	if insn.Op.AluOp() != bytecode.AluMov && st.Regs[insn.Dst].Kind == KindUninitialized {
		return ErrUninitializedRegister(idx, uint8(insn.Dst))
	}
	if insn.Op.Src() == bytecode.SrcReg && st.Regs[insn.Src].Kind == KindUninitialized {
		return ErrUninitializedRegister(idx, uint8(insn.Src))
	}
	if insn.Op.AluOp() == bytecode.AluDiv || insn.Op.AluOp() == bytecode.AluMod {
		if insn.Op.Src() == bytecode.SrcImm {
			if insn.Imm == 0 {
				return ErrDivisionByZero(idx)
			}
		} else {
			if st.Regs[insn.Src].Kind == KindScalar && st.Regs[insn.Src].Scalar.ContainsZero() {
				return ErrDivisionByZero(idx)
			}
		}
	}
	return nil
}

func (v *verifyPass) checkLoad(idx int, insn bytecode.Instruction, st State) Error {
	base := st.Regs[insn.Src]
	if base.Kind == KindUninitialized {
		return ErrUninitializedRegister(idx, uint8(insn.Src))
	}
	off := base.Offset + int64(insn.Off)
	size := insn.Op.Size().Bytes()
	switch base.Kind {
	case KindPtrContext:
		if off < 0 || off+int64(size) > maxContextOffset {
			return ErrOutOfBoundsAccess(idx, off, size)
		}
	case KindPtrStack:
		if off > 0 || -off > int64(v.profile.MaxStackBytes()) {
			return ErrOutOfBoundsAccess(idx, off, size)
		}
	case KindPtrMapValue:
		if off < 0 || off+int64(size) > maxMapValueOffset {
			return ErrOutOfBoundsAccess(idx, off, size)
		}
	default:
		return ErrInvalidMemoryAccess(idx, "load base is not a recognised pointer kind")
	}
	return nil
}

func (v *verifyPass) checkStore(idx int, insn bytecode.Instruction, st State) Error {
	if insn.Dst == register.R10 {
		base := st.Regs[register.R10]
		off := base.Offset + int64(insn.Off)
		if -off > int64(v.profile.MaxStackBytes()) {
			return ErrOutOfBoundsAccess(idx, off, insn.Op.Size().Bytes())
		}
		return nil
	}
	base := st.Regs[insn.Dst]
	if base.Kind == KindUninitialized {
		return ErrUninitializedRegister(idx, uint8(insn.Dst))
	}
	off := base.Offset + int64(insn.Off)
	size := insn.Op.Size().Bytes()
	switch base.Kind {
	case KindPtrStack:
		if off > 0 || -off > int64(v.profile.MaxStackBytes()) {
			return ErrOutOfBoundsAccess(idx, off, size)
		}
	case KindPtrMapValue:
		if off < 0 || off+int64(size) > maxMapValueOffset {
			return ErrOutOfBoundsAccess(idx, off, size)
		}
	case KindPtrContext:
		return ErrInvalidMemoryAccess(idx, "context region is read-only")
	default:
		return ErrInvalidMemoryAccess(idx, "store base is not a recognised pointer kind")
	}
	return nil
}

func (v *verifyPass) checkJump(idx int, insn bytecode.Instruction, st State) Error {
	if st.Regs[insn.Dst].Kind == KindUninitialized {
		return ErrUninitializedRegister(idx, uint8(insn.Dst))
	}
	if insn.Op.Src() == bytecode.SrcReg && st.Regs[insn.Src].Kind == KindUninitialized {
		return ErrUninitializedRegister(idx, uint8(insn.Src))
	}
	target := bytecode.JumpTarget(idx, insn.Off)
	if target < 0 || target >= len(v.insns) {
		return ErrInvalidJump(idx, target)
	}
	return nil
}

func (v *verifyPass) checkCall(idx int, insn bytecode.Instruction, st State) Error {
	allowed := bytecode.AllowedHelpers(v.progType)
	if !allowed[bytecode.HelperID(insn.Imm)] {
		return ErrInvalidHelper(idx, insn.Imm)
	}
	return nil
}

// checkLoopBounding implements §4.3 step 6: embedded builds require every
// back edge to be guarded by a conditional jump comparing a scalar with a
// known range, which bounds the number of iterations statically. Cloud
// builds accept any loop (the runtime instruction budget enforces
// termination instead, per the resolved Open Question).
func (v *verifyPass) checkLoopBounding() Error {
	if !v.profile.DeadlineTrackingPresent() {
		return nil // cloud: runtime-budget interpretation, no static bound required
	}
	for _, e := range v.cfg.BackEdges() {
		guard := v.insns[e.from]
		if !guard.IsConditional() {
			return ErrUnboundedLoop(e.from)
		}
		st := v.states[e.from]
		dstState := st.Regs[guard.Dst]
		if dstState.Kind != KindScalar || !dstState.Scalar.Known {
			return ErrUnboundedLoop(e.from)
		}
	}
	return nil
}
