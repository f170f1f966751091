package main

import (
	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/register"
)

// The scenario builders below are the concrete end-to-end programs from
// §8: small, fixed instruction sequences used by the demo subcommands to
// exercise load/verify/dispatch without needing a text assembler.

func scenarioMinimalReturn() []bytecode.Instruction {
	return []bytecode.Instruction{
		bytecode.Mov64Imm(register.R0, 42),
		bytecode.Exit(),
	}
}

func scenarioArithmetic() []bytecode.Instruction {
	return []bytecode.Instruction{
		bytecode.Mov64Imm(register.R0, 0),
		bytecode.Mov64Imm(register.R1, 100),
		bytecode.Add64Reg(register.R0, register.R1),
		bytecode.Mul64Imm(register.R0, 2),
		bytecode.Sub64Imm(register.R0, 50),
		bytecode.Exit(),
	}
}

// scenarioBoundedLoop counts r1 down from 10 to 0, returning 0.
func scenarioBoundedLoop() []bytecode.Instruction {
	return []bytecode.Instruction{
		bytecode.Mov64Imm(register.R1, 10),
		bytecode.Mov64Imm(register.R0, 0),
		bytecode.JEqImm(register.R1, 0, 2), // loop:
		bytecode.Sub64Imm(register.R1, 1),
		bytecode.Ja(-3),
		bytecode.Exit(),
	}
}

func scenarioDivisionByZero() []bytecode.Instruction {
	return []bytecode.Instruction{
		bytecode.Mov64Imm(register.R0, 10),
		bytecode.Mov64Imm(register.R1, 0),
		bytecode.Div64Reg(register.R0, register.R1),
		bytecode.Exit(),
	}
}

// scenarioGpioFilter reads the line field (offset 12) out of the context
// and returns 1 if it equals 17, 0 otherwise.
func scenarioGpioFilter() []bytecode.Instruction {
	return []bytecode.Instruction{
		bytecode.Mov64Reg(register.R4, register.R1),
		bytecode.Load(bytecode.SizeWord, register.R5, register.R4, 12),
		bytecode.JEqImm(register.R5, 17, 2),
		bytecode.Mov64Imm(register.R0, 0),
		bytecode.Ja(1),
		bytecode.Mov64Imm(register.R0, 1),
		bytecode.Exit(),
	}
}

// scenarioHashMapRoundTrip writes a fixed key/value pair onto the stack,
// calls map_update then map_lookup on mapID, and returns the low 32 bits of
// the looked-up value in r0 (0xAAAAAAAA on success).
func scenarioHashMapRoundTrip(mapID uint64) []bytecode.Instruction {
	ldKey := bytecode.LdDwImm(register.R6, 0x0102030405060708)
	ldVal := bytecode.LdDwImm(register.R6, 0xAAAAAAAAAAAAAAAA)

	insns := []bytecode.Instruction{}
	insns = append(insns, ldKey[0], ldKey[1])
	insns = append(insns, bytecode.Store(bytecode.SizeDWord, register.R10, -16, register.R6))
	insns = append(insns, ldVal[0], ldVal[1])
	insns = append(insns, bytecode.Store(bytecode.SizeDWord, register.R10, -8, register.R6))

	ldMapID := bytecode.LdDwImm(register.R1, mapID)
	insns = append(insns, ldMapID[0], ldMapID[1])
	insns = append(insns,
		bytecode.Mov64Reg(register.R2, register.R10),
		bytecode.Add64Imm(register.R2, -16),
		bytecode.Mov64Imm(register.R3, 8),
		bytecode.Mov64Reg(register.R4, register.R10),
		bytecode.Add64Imm(register.R4, -8),
		bytecode.Mov64Imm(register.R5, 0), // FlagAny
		bytecode.Call(int32(bytecode.HelperMapUpdateElem)),
	)

	insns = append(insns, ldMapID[0], ldMapID[1])
	insns = append(insns,
		bytecode.Mov64Reg(register.R2, register.R10),
		bytecode.Add64Imm(register.R2, -16),
		bytecode.Mov64Imm(register.R3, 8),
		bytecode.Call(int32(bytecode.HelperMapLookupElem)),
	)

	insns = append(insns,
		bytecode.JEqImm(register.R0, 0, 1),
		bytecode.Load(bytecode.SizeWord, register.R0, register.R0, 0),
		bytecode.Exit(),
	)
	return insns
}
