package vm

import (
	"encoding/binary"

	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/profile"
	"github.com/utkarshm/axiom-bpf/register"
)

// Virtual base addresses carved out of the uint64 address space so load and
// store instructions can be routed to the right backing buffer by range
// check alone; none of these values can arise from ordinary arithmetic on a
// scalar, since programs start with only the context and frame pointers
// initialised to them.
const (
	contextBase  uint64 = 0x1000_0000_0000_0000
	stackBase    uint64 = 0x2000_0000_0000_0000
	mapValueBase uint64 = 0x3000_0000_0000_0000
)

// Result is what Run returns on successful completion: the program's return
// value and how many instructions it consumed.
type Result struct {
	R0    uint64
	Steps uint64
}

// Interpreter executes verified programs against a register file, a stack
// buffer sized to the profile, and a map registry for helper calls. One
// Interpreter is reusable across dispatches; Run resets all per-dispatch
// state at entry.
type Interpreter[P profile.Physical] struct {
	Registry *bpfmap.Registry
	Helpers  HelperTable

	regs    *register.File
	stack   []byte
	mapVal  []byte
	ctx     *Context
}

// NewInterpreter constructs an interpreter backed by reg (used to resolve
// map helper calls) and helpers (everything else a program may call).
func NewInterpreter[P profile.Physical](reg *bpfmap.Registry, helpers HelperTable) *Interpreter[P] {
	var p P
	return &Interpreter[P]{
		Registry: reg,
		Helpers:  helpers,
		regs:     register.New(),
		stack:    make([]byte, p.MaxStackBytes()),
	}
}

// budgetFor returns the instruction budget for prog under profile P: the
// profile ceiling on cloud, or the verifier-recorded WCET estimate on
// embedded when one was stamped, falling back to the ceiling otherwise.
func budgetFor[P profile.Physical](prog *bytecode.Program) uint64 {
	var p P
	if !p.DeadlineTrackingPresent() {
		return uint64(p.MaxInstructions())
	}
	if prog.WCETInsns > 0 && prog.WCETInsns < uint64(p.MaxInstructions()) {
		return prog.WCETInsns
	}
	return uint64(p.MaxInstructions())
}

// Run dispatches prog against ctx and returns its R0 on success, or the
// Error that terminated the dispatch.
func (vm *Interpreter[P]) Run(prog *bytecode.Program, ctx *Context) (Result, *Error) {
	if prog == nil || len(prog.Insns) == 0 {
		return Result{}, ErrProgramNotLoaded()
	}
	if ctx == nil {
		ctx = &Context{}
	}
	vm.ctx = ctx
	vm.mapVal = nil
	clear(vm.stack)
	vm.regs.InitForEntry(contextBase, stackBase+uint64(len(vm.stack)))

	budget := budgetFor[P](prog)
	pc := 0
	var steps uint64
	for {
		if steps >= budget {
			return Result{}, ErrTimeout(pc)
		}
		if pc < 0 || pc >= len(prog.Insns) {
			return Result{}, ErrInvalidInstruction(pc)
		}
		insn := prog.Insns[pc]
		steps++

		if insn.IsExit() {
			return Result{R0: vm.regs.ReturnValue(), Steps: steps}, nil
		}
		if insn.IsWideImmHigh() {
			return Result{}, ErrInvalidInstruction(pc)
		}
		if insn.IsWide() {
			if pc+1 >= len(prog.Insns) {
				return Result{}, ErrInvalidInstruction(pc)
			}
			next := prog.Insns[pc+1]
			if err := vm.setDst(pc, insn, bytecode.ImmHigh64(insn, next)); err != nil {
				return Result{}, err
			}
			pc += 2
			continue
		}

		switch {
		case insn.Op.IsALU():
			if err := vm.execALU(pc, insn); err != nil {
				return Result{}, err
			}
			pc++
		case insn.IsLoad():
			if err := vm.execLoad(pc, insn); err != nil {
				return Result{}, err
			}
			pc++
		case insn.IsStore():
			if err := vm.execStore(pc, insn); err != nil {
				return Result{}, err
			}
			pc++
		case insn.IsCall():
			if err := vm.dispatchCall(pc, insn); err != nil {
				return Result{}, err
			}
			pc++
		case insn.IsJump():
			taken, err := vm.evalJump(pc, insn)
			if err != nil {
				return Result{}, err
			}
			if taken {
				pc = bytecode.JumpTarget(pc, insn.Off)
			} else {
				pc++
			}
		default:
			return Result{}, ErrInvalidInstruction(pc)
		}
	}
}

// operand resolves an ALU or jump instruction's second operand: the source
// register's value, or the 32-bit immediate sign-extended to 64 bits (the
// 32-bit ALU/jump classes mask the result back down where that matters).
func (vm *Interpreter[P]) operand(insn bytecode.Instruction) uint64 {
	if insn.Op.Src() == bytecode.SrcReg {
		return vm.regs.Get(insn.Src)
	}
	return uint64(int64(insn.Imm))
}

func (vm *Interpreter[P]) setDst(pc int, insn bytecode.Instruction, v uint64) *Error {
	if insn.Dst == register.R10 {
		return ErrOutOfBounds(pc, "write to read-only frame pointer r10")
	}
	if insn.Op.Class() == bytecode.ClassALU32 {
		v &= 0xFFFFFFFF
	}
	vm.regs.Set(insn.Dst, v)
	return nil
}

func (vm *Interpreter[P]) execALU(pc int, insn bytecode.Instruction) *Error {
	dst := vm.regs.Get(insn.Dst)
	op2 := vm.operand(insn)

	var result uint64
	switch insn.Op.AluOp() {
	case bytecode.AluMov:
		result = op2
	case bytecode.AluAdd:
		result = dst + op2
	case bytecode.AluSub:
		result = dst - op2
	case bytecode.AluMul:
		result = dst * op2
	case bytecode.AluDiv:
		if op2 == 0 {
			return ErrDivisionByZero(pc)
		}
		result = dst / op2
	case bytecode.AluMod:
		if op2 == 0 {
			return ErrDivisionByZero(pc)
		}
		result = dst % op2
	case bytecode.AluOr:
		result = dst | op2
	case bytecode.AluAnd:
		result = dst & op2
	case bytecode.AluXor:
		result = dst ^ op2
	case bytecode.AluLsh:
		result = dst << (op2 & 63)
	case bytecode.AluRsh:
		result = dst >> (op2 & 63)
	case bytecode.AluArsh:
		result = uint64(int64(dst) >> (op2 & 63))
	case bytecode.AluNeg:
		result = -dst
	default:
		return ErrInvalidInstruction(pc)
	}
	return vm.setDst(pc, insn, result)
}

func (vm *Interpreter[P]) evalJump(pc int, insn bytecode.Instruction) (bool, *Error) {
	if insn.Op.JmpOp() == bytecode.JmpJA {
		return true, nil
	}
	dst := vm.regs.Get(insn.Dst)
	op2 := vm.operand(insn)
	if insn.Op.Class() == bytecode.ClassJmp32 {
		// Compare only the low 32 bits; sign-extending both sides keeps
		// signed and unsigned ordering of the 32-bit values intact.
		dst, op2 = uint64(int64(int32(dst))), uint64(int64(int32(op2)))
	}
	switch insn.Op.JmpOp() {
	case bytecode.JmpJEq:
		return dst == op2, nil
	case bytecode.JmpJNe:
		return dst != op2, nil
	case bytecode.JmpJGt:
		return dst > op2, nil
	case bytecode.JmpJGe:
		return dst >= op2, nil
	case bytecode.JmpJLt:
		return dst < op2, nil
	case bytecode.JmpJLe:
		return dst <= op2, nil
	case bytecode.JmpJSGt:
		return int64(dst) > int64(op2), nil
	case bytecode.JmpJSGe:
		return int64(dst) >= int64(op2), nil
	case bytecode.JmpJSLt:
		return int64(dst) < int64(op2), nil
	case bytecode.JmpJSLe:
		return int64(dst) <= int64(op2), nil
	case bytecode.JmpJSet:
		return dst&op2 != 0, nil
	default:
		return false, ErrInvalidInstruction(pc)
	}
}

// region resolves addr to a backing buffer and offset, or reports
// out-of-bounds if addr falls outside every known region.
func (vm *Interpreter[P]) region(addr uint64, size int) ([]byte, int, *Error) {
	switch {
	case addr >= contextBase && addr < contextBase+uint64(len(vm.ctx.Data)):
		off := int(addr - contextBase)
		if off+size > len(vm.ctx.Data) {
			return nil, 0, ErrOutOfBounds(-1, "context access past data_end")
		}
		return vm.ctx.Data, off, nil
	case addr >= stackBase && addr < stackBase+uint64(len(vm.stack)):
		off := int(addr - stackBase)
		if off+size > len(vm.stack) {
			return nil, 0, ErrOutOfBounds(-1, "stack access past frame bound")
		}
		return vm.stack, off, nil
	case addr >= mapValueBase && addr < mapValueBase+uint64(len(vm.mapVal)):
		off := int(addr - mapValueBase)
		if off+size > len(vm.mapVal) {
			return nil, 0, ErrOutOfBounds(-1, "map value access past value extent")
		}
		return vm.mapVal, off, nil
	default:
		return nil, 0, ErrOutOfBounds(-1, "pointer outside context, stack and map-value regions")
	}
}

func (vm *Interpreter[P]) execLoad(pc int, insn bytecode.Instruction) *Error {
	size := insn.Op.Size().Bytes()
	addr := vm.regs.Get(insn.Src) + uint64(int64(insn.Off))
	buf, off, err := vm.region(addr, size)
	if err != nil {
		err.InsnIdx = pc
		return err
	}
	var v uint64
	switch size {
	case 1:
		v = uint64(buf[off])
	case 2:
		v = uint64(binary.LittleEndian.Uint16(buf[off:]))
	case 4:
		v = uint64(binary.LittleEndian.Uint32(buf[off:]))
	case 8:
		v = binary.LittleEndian.Uint64(buf[off:])
	}
	return vm.setDst(pc, insn, v)
}

func (vm *Interpreter[P]) execStore(pc int, insn bytecode.Instruction) *Error {
	size := insn.Op.Size().Bytes()
	addr := vm.regs.Get(insn.Dst) + uint64(int64(insn.Off))
	buf, off, err := vm.region(addr, size)
	if err != nil {
		err.InsnIdx = pc
		return err
	}
	v := vm.regs.Get(insn.Src)
	switch size {
	case 1:
		buf[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf[off:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf[off:], v)
	}
	return nil
}

func (vm *Interpreter[P]) readBytes(pc int, addr uint64, size int) ([]byte, *Error) {
	buf, off, err := vm.region(addr, size)
	if err != nil {
		err.InsnIdx = pc
		return nil, err
	}
	out := make([]byte, size)
	copy(out, buf[off:off+size])
	return out, nil
}

func (vm *Interpreter[P]) dispatchCall(pc int, insn bytecode.Instruction) *Error {
	id := bytecode.HelperID(insn.Imm)
	r1, r2, r3, r4, r5 := vm.regs.Get(register.R1), vm.regs.Get(register.R2),
		vm.regs.Get(register.R3), vm.regs.Get(register.R4), vm.regs.Get(register.R5)

	switch id {
	case bytecode.HelperMapLookupElem:
		return vm.callMapLookup(pc, r1, r2, r3)
	case bytecode.HelperMapUpdateElem:
		return vm.callMapUpdate(pc, r1, r2, r3, r4, r5)
	case bytecode.HelperMapDeleteElem:
		return vm.callMapDelete(pc, r1, r2, r3)
	case bytecode.HelperRingBufOutput, bytecode.HelperTimeSeriesPush:
		return vm.callMapAppend(pc, r1, r2, r3)
	}

	fn, ok := vm.Helpers[id]
	if !ok {
		return ErrInvalidHelper(pc, int32(id))
	}
	vm.regs.Set(register.R0, fn(r1, r2, r3, r4, r5))
	return nil
}

func (vm *Interpreter[P]) callMapLookup(pc int, mapID, keyPtr, keyLen uint64) *Error {
	key, err := vm.readBytes(pc, keyPtr, int(keyLen))
	if err != nil {
		return err
	}
	m, ok := vm.Registry.Get(bpfmap.MapID(mapID))
	if !ok {
		vm.regs.Set(register.R0, 0)
		return nil
	}
	value, found := m.Lookup(key)
	if !found {
		vm.regs.Set(register.R0, 0)
		return nil
	}
	vm.mapVal = value
	vm.regs.Set(register.R0, mapValueBase)
	return nil
}

func (vm *Interpreter[P]) callMapUpdate(pc int, mapID, keyPtr, keyLen, valuePtr, flags uint64) *Error {
	m, ok := vm.Registry.Get(bpfmap.MapID(mapID))
	if !ok {
		vm.regs.Set(register.R0, negOne)
		return nil
	}
	key, err := vm.readBytes(pc, keyPtr, int(keyLen))
	if err != nil {
		return err
	}
	value, err := vm.readBytes(pc, valuePtr, int(m.Def().ValueSize))
	if err != nil {
		return err
	}
	if e := m.Update(key, value, bpfmap.UpdateFlag(flags)); e != nil {
		vm.regs.Set(register.R0, negOne)
		return nil
	}
	vm.regs.Set(register.R0, 0)
	return nil
}

func (vm *Interpreter[P]) callMapDelete(pc int, mapID, keyPtr, keyLen uint64) *Error {
	m, ok := vm.Registry.Get(bpfmap.MapID(mapID))
	if !ok {
		vm.regs.Set(register.R0, negOne)
		return nil
	}
	key, err := vm.readBytes(pc, keyPtr, int(keyLen))
	if err != nil {
		return err
	}
	if e := m.Delete(key); e != nil {
		vm.regs.Set(register.R0, negOne)
		return nil
	}
	vm.regs.Set(register.R0, 0)
	return nil
}

func (vm *Interpreter[P]) callMapAppend(pc int, mapID, dataPtr, dataLen uint64) *Error {
	m, ok := vm.Registry.Get(bpfmap.MapID(mapID))
	if !ok {
		vm.regs.Set(register.R0, negOne)
		return nil
	}
	data, err := vm.readBytes(pc, dataPtr, int(dataLen))
	if err != nil {
		return err
	}
	if e := m.Update(nil, data, bpfmap.FlagAny); e != nil {
		vm.regs.Set(register.R0, negOne)
		return nil
	}
	vm.regs.Set(register.R0, 0)
	return nil
}

// negOne is the 64-bit two's-complement encoding of -1, the generic
// map-helper failure status.
const negOne = ^uint64(0)
