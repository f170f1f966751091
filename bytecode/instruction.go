package bytecode

import (
	"fmt"

	"github.com/utkarshm/axiom-bpf/register"
)

// InstructionSize is the fixed width of one instruction slot in bytes.
const InstructionSize = 8

// Instruction is the fixed 8-byte record: opcode, destination register,
// source register, a 16-bit signed offset, and a 32-bit signed immediate.
type Instruction struct {
	Op  OpCode
	Dst register.Register
	Src register.Register
	Off int16
	Imm int32
}

// InvalidOpcodeError is returned when a decoded opcode byte does not map to
// any known class/op combination.
type InvalidOpcodeError struct {
	InsnIdx int
	Opcode  uint8
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("instruction %d: invalid opcode 0x%02x", e.InsnIdx, e.Opcode)
}

// IsWide reports whether this instruction occupies two slots (a 64-bit
// immediate load). Only ClassLoadImm ALU-mov-style instructions with src
// register r11+ as a marker are wide; in this encoding a wide load is any
// ClassLoadImm instruction whose Src field is set to a sentinel value,
// mirroring the dedicated `ld_dw_imm` form in the source material.
func (i Instruction) IsWide() bool {
	return i.Op.Class() == ClassLoadImm && i.Src == wideMarker
}

// wideMarker flags the first slot of a two-slot 64-bit immediate load. It is
// never a valid decoded register value coming out of FromRaw (those are
// bounded to r0..r10), so reusing the Src field here cannot collide with a
// legitimate source register on an ordinary load-immediate instruction.
const wideMarker = register.Register(0x0F)

func (i Instruction) IsExit() bool         { return i.Op.IsExit() }
func (i Instruction) IsCall() bool         { return i.Op.IsCall() }
func (i Instruction) IsWideImmHigh() bool  { return i.Op.IsWideImmHigh() }
func (i Instruction) IsJump() bool         { return i.Op.IsJump() }
func (i Instruction) IsConditional() bool  { return i.Op.IsConditionalJump() }
func (i Instruction) IsLoad() bool         { return i.Op.IsLoad() }
func (i Instruction) IsStore() bool        { return i.Op.IsStore() }

// JumpTarget computes the absolute instruction index a taken branch lands
// on: next + offset, where next = idx + 1.
func JumpTarget(idx int, off int16) int {
	return idx + 1 + int(off)
}

// ImmHigh64 reassembles the 64-bit immediate of a wide instruction from its
// low slot (i, whose Imm holds the low 32 bits) and the following
// WideImmHigh slot (whose Imm holds the high 32 bits).
func ImmHigh64(low, high Instruction) uint64 {
	return uint64(uint32(low.Imm)) | uint64(uint32(high.Imm))<<32
}

// --- constructors -----------------------------------------------------

func newALU(class OpClass, op uint8, dst, src register.Register, imm int32, useReg bool) Instruction {
	s := SrcImm
	if useReg {
		s = SrcReg
	}
	return Instruction{Op: MakeALUOp(class, op, s), Dst: dst, Src: src, Imm: imm}
}

// Mov64Imm: dst = imm (sign-extended into 64 bits).
func Mov64Imm(dst register.Register, imm int32) Instruction {
	return newALU(ClassALU64, AluMov, dst, register.R0, imm, false)
}

// Mov64Reg: dst = src.
func Mov64Reg(dst, src register.Register) Instruction {
	return newALU(ClassALU64, AluMov, dst, src, 0, true)
}

// Mov32Imm: dst[31:0] = imm, upper 32 bits zeroed.
func Mov32Imm(dst register.Register, imm int32) Instruction {
	return newALU(ClassALU32, AluMov, dst, register.R0, imm, false)
}

func alu64(op uint8, dst register.Register, imm int32) Instruction {
	return newALU(ClassALU64, op, dst, register.R0, imm, false)
}
func alu64r(op uint8, dst, src register.Register) Instruction {
	return newALU(ClassALU64, op, dst, src, 0, true)
}
func alu32(op uint8, dst register.Register, imm int32) Instruction {
	return newALU(ClassALU32, op, dst, register.R0, imm, false)
}
func alu32r(op uint8, dst, src register.Register) Instruction {
	return newALU(ClassALU32, op, dst, src, 0, true)
}

func Add64Imm(dst register.Register, imm int32) Instruction { return alu64(AluAdd, dst, imm) }
func Add64Reg(dst, src register.Register) Instruction        { return alu64r(AluAdd, dst, src) }
func Sub64Imm(dst register.Register, imm int32) Instruction { return alu64(AluSub, dst, imm) }
func Sub64Reg(dst, src register.Register) Instruction        { return alu64r(AluSub, dst, src) }
func Mul64Imm(dst register.Register, imm int32) Instruction { return alu64(AluMul, dst, imm) }
func Mul64Reg(dst, src register.Register) Instruction        { return alu64r(AluMul, dst, src) }
func Div64Imm(dst register.Register, imm int32) Instruction { return alu64(AluDiv, dst, imm) }
func Div64Reg(dst, src register.Register) Instruction        { return alu64r(AluDiv, dst, src) }
func Mod64Imm(dst register.Register, imm int32) Instruction { return alu64(AluMod, dst, imm) }
func Mod64Reg(dst, src register.Register) Instruction        { return alu64r(AluMod, dst, src) }
func Or64Imm(dst register.Register, imm int32) Instruction  { return alu64(AluOr, dst, imm) }
func And64Imm(dst register.Register, imm int32) Instruction { return alu64(AluAnd, dst, imm) }
func Xor64Imm(dst register.Register, imm int32) Instruction { return alu64(AluXor, dst, imm) }
func LSh64Imm(dst register.Register, imm int32) Instruction { return alu64(AluLsh, dst, imm) }
func RSh64Imm(dst register.Register, imm int32) Instruction { return alu64(AluRsh, dst, imm) }
func ArSh64Imm(dst register.Register, imm int32) Instruction { return alu64(AluArsh, dst, imm) }
func Neg64(dst register.Register) Instruction                { return alu64(AluNeg, dst, 0) }

func Add32Imm(dst register.Register, imm int32) Instruction { return alu32(AluAdd, dst, imm) }
func Add32Reg(dst, src register.Register) Instruction        { return alu32r(AluAdd, dst, src) }

// --- memory ------------------------------------------------------------

func Load(size MemSize, dst, base register.Register, off int16) Instruction {
	return Instruction{Op: MakeMemOp(ClassLoadMem, size), Dst: dst, Src: base, Off: off}
}

func Store(size MemSize, base register.Register, off int16, src register.Register) Instruction {
	return Instruction{Op: MakeMemOp(ClassStoreMem, size), Dst: base, Src: src, Off: off}
}

// --- jumps ---------------------------------------------------------------

func jmp(class OpClass, op uint8, dst, src register.Register, off int16, imm int32, useReg bool) Instruction {
	s := SrcImm
	if useReg {
		s = SrcReg
	}
	return Instruction{Op: MakeJmpOp(class, op, s), Dst: dst, Src: src, Off: off, Imm: imm}
}

func Ja(off int16) Instruction {
	return jmp(ClassJmp64, JmpJA, register.R0, register.R0, off, 0, false)
}

func JEqImm(dst register.Register, imm int32, off int16) Instruction {
	return jmp(ClassJmp64, JmpJEq, dst, register.R0, off, imm, false)
}
func JNeImm(dst register.Register, imm int32, off int16) Instruction {
	return jmp(ClassJmp64, JmpJNe, dst, register.R0, off, imm, false)
}
func JGtImm(dst register.Register, imm int32, off int16) Instruction {
	return jmp(ClassJmp64, JmpJGt, dst, register.R0, off, imm, false)
}
func JGeImm(dst register.Register, imm int32, off int16) Instruction {
	return jmp(ClassJmp64, JmpJGe, dst, register.R0, off, imm, false)
}
func JLtImm(dst register.Register, imm int32, off int16) Instruction {
	return jmp(ClassJmp64, JmpJLt, dst, register.R0, off, imm, false)
}
func JSetImm(dst register.Register, imm int32, off int16) Instruction {
	return jmp(ClassJmp64, JmpJSet, dst, register.R0, off, imm, false)
}
func JEqReg(dst, src register.Register, off int16) Instruction {
	return jmp(ClassJmp64, JmpJEq, dst, src, off, 0, true)
}

// Call invokes the helper identified by id, passing r1..r5 as arguments and
// writing the result into r0.
func Call(id int32) Instruction {
	return Instruction{Op: MakeJmpOp(ClassJmp64, JmpCall, SrcImm), Imm: id}
}

// Exit halts the program; r0 is the return value.
func Exit() Instruction {
	return Instruction{Op: MakeExitOp()}
}

// LdDwImm builds the two-slot wide instruction loading a 64-bit immediate
// into dst. The caller must append both returned instructions consecutively
// to the program.
func LdDwImm(dst register.Register, imm uint64) [2]Instruction {
	low := Instruction{
		Op:  MakeALUOp(ClassLoadImm, AluMov, SrcImm),
		Dst: dst,
		Src: wideMarker,
		Imm: int32(uint32(imm)),
	}
	high := Instruction{
		Op:  MakeJmpOp(ClassJmp64, WideImmHigh, SrcImm),
		Imm: int32(uint32(imm >> 32)),
	}
	return [2]Instruction{low, high}
}
