package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/register"
)

func TestOpCodeClassRoundTrip(t *testing.T) {
	op := MakeALUOp(ClassALU64, AluAdd, SrcReg)
	require.Equal(t, ClassALU64, op.Class())
	require.Equal(t, AluAdd, op.AluOp())
	require.Equal(t, SrcReg, op.Src())
}

func TestMemOpSizeRoundTrip(t *testing.T) {
	op := MakeMemOp(ClassLoadMem, SizeWord)
	require.Equal(t, ClassLoadMem, op.Class())
	require.Equal(t, SizeWord, op.Size())
	require.True(t, op.IsLoad())
	require.False(t, op.IsStore())
}

func TestPredicates(t *testing.T) {
	require.True(t, Exit().IsExit())
	require.True(t, Call(int32(HelperKtimeGetNs)).IsCall())
	require.True(t, Ja(3).IsJump())
	require.False(t, Ja(3).IsConditional())
	require.True(t, JEqImm(register.R1, 0, 1).IsConditional())
	require.True(t, Load(SizeDWord, register.R2, register.R1, 0).IsLoad())
	require.True(t, Store(SizeDWord, register.R10, -8, register.R2).IsStore())
}

func TestJumpTarget(t *testing.T) {
	require.Equal(t, 5, JumpTarget(3, 1))
	require.Equal(t, 2, JumpTarget(3, -2))
}

func TestLdDwImmIsWideAndReassembles(t *testing.T) {
	slots := LdDwImm(register.R3, 0x1122334455667788)
	require.True(t, slots[0].IsWide())
	require.True(t, slots[1].IsWideImmHigh())
	require.Equal(t, uint64(0x1122334455667788), ImmHigh64(slots[0], slots[1]))
}

func TestInstructionEncodeDecodeRoundTrip(t *testing.T) {
	insns := []Instruction{
		Mov64Imm(register.R0, -7),
		Add64Reg(register.R1, register.R2),
		JEqImm(register.R3, 42, 5),
		Load(SizeHalf, register.R4, register.R5, -4),
		Store(SizeByte, register.R6, 2, register.R7),
		Call(int32(HelperMapLookupElem)),
		Exit(),
	}
	for _, want := range insns {
		raw := want.Encode()
		got, err := DecodeInstruction(raw[:], 0)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestWideInstructionEncodeDecodeRoundTrip(t *testing.T) {
	slots := LdDwImm(register.R6, 0xAAAAAAAAAAAAAAAA)
	raw0 := slots[0].Encode()
	raw1 := slots[1].Encode()

	got0, err := DecodeInstruction(raw0[:], 0)
	require.NoError(t, err)
	require.Equal(t, slots[0], got0)
	require.True(t, got0.IsWide())

	got1, err := DecodeInstruction(raw1[:], 1)
	require.NoError(t, err)
	require.True(t, got1.IsWideImmHigh())
	require.Equal(t, uint64(0xAAAAAAAAAAAAAAAA), ImmHigh64(got0, got1))
}

func TestDecodeProgramRoundTrip(t *testing.T) {
	prog := []Instruction{
		Mov64Imm(register.R0, 42),
		Exit(),
	}
	raw := EncodeProgram(prog)
	require.Len(t, raw, InstructionSize*2)

	decoded, err := DecodeProgram(raw)
	require.NoError(t, err)
	require.Equal(t, prog, decoded)
}

func TestDecodeProgramRejectsTruncatedLength(t *testing.T) {
	_, err := DecodeProgram(make([]byte, InstructionSize+1))
	require.Error(t, err)
}

func TestDecodeInstructionRejectsInvalidOpcode(t *testing.T) {
	raw := [InstructionSize]byte{0xFF, 0, 0, 0, 0, 0, 0, 0}
	_, err := DecodeInstruction(raw[:], 3)
	require.Error(t, err)
	var opErr *InvalidOpcodeError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, 3, opErr.InsnIdx)
}

func TestDecodeInstructionRejectsOutOfRangeRegister(t *testing.T) {
	op := MakeALUOp(ClassALU64, AluMov, SrcImm)
	raw := [InstructionSize]byte{uint8(op), 0xF0, 0, 0, 0, 0, 0, 0} // dst nibble = 15
	_, err := DecodeInstruction(raw[:], 0)
	require.Error(t, err)
	var regErr *register.InvalidRegisterError
	require.ErrorAs(t, err, &regErr)
}

func TestProgramBuilderRejectsEmptyProgram(t *testing.T) {
	_, err := NewProgramBuilder(ProgTypeTimer).Build()
	require.Error(t, err)
}

func TestProgramBuilderBuildsInOrder(t *testing.T) {
	prog, err := NewProgramBuilder(ProgTypeGPIO).
		Insn(Mov64Imm(register.R0, 1)).
		Insns(Exit()).
		Build()
	require.NoError(t, err)
	require.Equal(t, ProgTypeGPIO, prog.Type)
	require.Len(t, prog.Insns, 2)
}

func TestAllowedHelpersPerProgType(t *testing.T) {
	require.True(t, AllowedHelpers(ProgTypeGPIO)[HelperGpioRead])
	require.False(t, AllowedHelpers(ProgTypeGPIO)[HelperPwmWrite])
	require.Empty(t, AllowedHelpers(ProgType(99)))
}
