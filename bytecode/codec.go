package bytecode

import (
	"encoding/binary"

	"github.com/utkarshm/axiom-bpf/register"
)

// valid reports whether the class/op combination in o is one the decoder
// will accept. Memory classes have no invalid op field (size is two bits,
// always 0..3); exit accepts only the canonical exit byte; ALU and jump
// classes reject op values above the last defined operation, since their
// four-bit op field has unused values there.
func (o OpCode) valid() bool {
	switch o.Class() {
	case ClassLoadImm:
		return o.aluJmpOp() == AluMov
	case ClassALU64, ClassALU32:
		return o.aluJmpOp() <= AluArsh
	case ClassJmp64, ClassJmp32:
		op := o.aluJmpOp()
		return op <= JmpCall || op == WideImmHigh
	case ClassLoadMem, ClassStoreMem:
		return true
	case ClassExit:
		return o == MakeExitOp()
	default:
		return false
	}
}

// Encode serialises the instruction into its canonical 8-byte wire slot:
// opcode, dst:4|src:4, offset (little-endian), immediate (little-endian).
func (i Instruction) Encode() [InstructionSize]byte {
	var raw [InstructionSize]byte
	raw[0] = uint8(i.Op)
	raw[1] = uint8(i.Dst)<<4 | uint8(i.Src)&0x0F
	binary.LittleEndian.PutUint16(raw[2:4], uint16(i.Off))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(i.Imm))
	return raw
}

// DecodeInstruction parses one 8-byte slot. insnIdx is used only to
// annotate diagnostics. The WideImmHigh continuation slot carries no
// register fields (§4.2: it "has no executable semantics"), so its dst/src
// nibbles are not register-validated. The low slot of a wide load is the
// one case where the src nibble legitimately names an out-of-range
// register (the reserved marker 0x0F flagging "this is a 64-bit immediate
// load"); every other instruction's register fields go through
// register.FromRaw and reject r11..r15 with InvalidRegister.
func DecodeInstruction(raw []byte, insnIdx int) (Instruction, error) {
	if len(raw) != InstructionSize {
		return Instruction{}, &ProgramError{Reason: "instruction slot is not 8 bytes"}
	}
	op := OpCode(raw[0])
	if !op.valid() {
		return Instruction{}, &InvalidOpcodeError{InsnIdx: insnIdx, Opcode: raw[0]}
	}

	off := int16(binary.LittleEndian.Uint16(raw[2:4]))
	imm := int32(binary.LittleEndian.Uint32(raw[4:8]))

	if op.IsWideImmHigh() {
		return Instruction{Op: op, Imm: imm}, nil
	}

	dstRaw := raw[1] >> 4
	srcRaw := raw[1] & 0x0F

	dst, err := register.FromRaw(dstRaw)
	if err != nil {
		return Instruction{}, err
	}

	if op.Class() == ClassLoadImm {
		if srcRaw != uint8(wideMarker) {
			return Instruction{}, &InvalidOpcodeError{InsnIdx: insnIdx, Opcode: raw[0]}
		}
		return Instruction{Op: op, Dst: dst, Src: wideMarker, Imm: imm}, nil
	}

	src, err := register.FromRaw(srcRaw)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Op: op, Dst: dst, Src: src, Off: off, Imm: imm}, nil
}

// EncodeProgram flattens an instruction sequence into its wire
// representation, one 8-byte slot per instruction (wide loads already
// occupy two adjacent logical instructions, so they fall out naturally).
func EncodeProgram(insns []Instruction) []byte {
	out := make([]byte, 0, len(insns)*InstructionSize)
	for _, insn := range insns {
		slot := insn.Encode()
		out = append(out, slot[:]...)
	}
	return out
}

// DecodeProgram parses a flat byte slice into an instruction sequence.
// raw's length must be a multiple of InstructionSize.
func DecodeProgram(raw []byte) ([]Instruction, error) {
	if len(raw)%InstructionSize != 0 {
		return nil, &ProgramError{Reason: "raw program length is not a multiple of the instruction size"}
	}
	n := len(raw) / InstructionSize
	insns := make([]Instruction, 0, n)
	for idx := 0; idx < n; idx++ {
		insn, err := DecodeInstruction(raw[idx*InstructionSize:(idx+1)*InstructionSize], idx)
		if err != nil {
			return nil, err
		}
		insns = append(insns, insn)
	}
	return insns, nil
}
