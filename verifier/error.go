package verifier

import (
	"fmt"

	"github.com/utkarshm/axiom-bpf/bpferr"
)

// Error is the verification error taxonomy from §7. Every variant is a
// baseErr holding only its formatted message, which includes the offending
// instruction index where one applies. The variants share that one concrete
// type, so errors.As cannot tell them apart; only the message text differs.
type Error interface {
	error
	verifyError()
}

type baseErr struct{ msg string }

func (e baseErr) Error() string                  { return e.msg }
func (baseErr) verifyError()                     {}
func (baseErr) Category() bpferr.Category        { return bpferr.CategoryVerification }

func newErr(format string, args ...any) Error {
	return baseErr{msg: fmt.Sprintf(format, args...)}
}

func ErrEmptyProgram() Error { return newErr("program is empty") }

func ErrInsnCountExceeded(count, limit int) Error {
	return newErr("instruction count %d exceeds profile limit %d", count, limit)
}

func ErrInvalidOpcode(insnIdx int, opcode uint8) Error {
	return newErr("instruction %d: invalid opcode 0x%02x", insnIdx, opcode)
}

func ErrInvalidRegister(insnIdx int, reg uint8) Error {
	return newErr("instruction %d: invalid register field %d", insnIdx, reg)
}

func ErrUninitializedRegister(insnIdx int, reg uint8) Error {
	return newErr("instruction %d: read of uninitialized register r%d", insnIdx, reg)
}

func ErrOutOfBoundsAccess(insnIdx int, offset int64, size int) Error {
	return newErr("instruction %d: out-of-bounds access at offset %d size %d", insnIdx, offset, size)
}

func ErrInvalidMemoryAccess(insnIdx int, reason string) Error {
	return newErr("instruction %d: invalid memory access: %s", insnIdx, reason)
}

func ErrUnreachableInstruction(insnIdx int) Error {
	return newErr("instruction %d: unreachable", insnIdx)
}

func ErrInvalidJump(insnIdx, target int) Error {
	return newErr("instruction %d: jump target %d out of range", insnIdx, target)
}

func ErrNoExit() Error { return newErr("no path reaches exit") }

func ErrInvalidHelper(insnIdx int, helperID int32) Error {
	return newErr("instruction %d: helper %d not allowed for this program type", insnIdx, helperID)
}

func ErrDivisionByZero(insnIdx int) Error {
	return newErr("instruction %d: divisor may be zero", insnIdx)
}

func ErrStackExceeded(used, limit int) Error {
	return newErr("stack usage %d exceeds profile limit %d", used, limit)
}

func ErrWriteToReadOnly(insnIdx int) Error {
	return newErr("instruction %d: write to read-only register r10", insnIdx)
}

func ErrMisalignedAccess(insnIdx int, offset int64, alignment int) Error {
	return newErr("instruction %d: misaligned access at offset %d (alignment %d)", insnIdx, offset, alignment)
}

func ErrUnboundedLoop(insnIdx int) Error {
	return newErr("instruction %d: loop has no statically computable bound", insnIdx)
}

// Embedded-only diagnostics. Verify does not construct these variants on
// either profile: it runs no WCET, interrupt-safety or allocation check.

func ErrWcetExceeded(cycles, budget uint64) Error {
	return newErr("estimated WCET %d cycles exceeds budget %d", cycles, budget)
}

func ErrInterruptUnsafe(insnIdx int, reason string) Error {
	return newErr("instruction %d: interrupt-unsafe: %s", insnIdx, reason)
}

func ErrDynamicAllocationAttempted(insnIdx int) Error {
	return newErr("instruction %d: dynamic allocation attempted", insnIdx)
}
