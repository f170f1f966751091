package vm

import (
	"fmt"

	"github.com/utkarshm/axiom-bpf/bpferr"
)

// Error is the execution-error taxonomy from §7. Every variant terminates
// the current dispatch only; the scheduler records it against the
// program's statistics and continues.
type Error struct {
	Kind    string
	InsnIdx int
	msg     string
}

func (e *Error) Error() string {
	if e.InsnIdx >= 0 {
		return fmt.Sprintf("vm: %s at instruction %d: %s", e.Kind, e.InsnIdx, e.msg)
	}
	return fmt.Sprintf("vm: %s: %s", e.Kind, e.msg)
}

func (e *Error) Category() bpferr.Category { return bpferr.CategoryExecution }

func newErr(kind string, insnIdx int, format string, args ...any) *Error {
	return &Error{Kind: kind, InsnIdx: insnIdx, msg: fmt.Sprintf(format, args...)}
}

func ErrDivisionByZero(insnIdx int) *Error {
	return newErr("division_by_zero", insnIdx, "divisor is zero")
}

func ErrOutOfBounds(insnIdx int, reason string) *Error {
	return newErr("out_of_bounds", insnIdx, "%s", reason)
}

func ErrStackOverflow(insnIdx int) *Error {
	return newErr("stack_overflow", insnIdx, "stack pointer exceeded profile bound")
}

func ErrInvalidHelper(insnIdx int, id int32) *Error {
	return newErr("invalid_helper", insnIdx, "helper %d not registered", id)
}

func ErrTimeout(insnIdx int) *Error {
	return newErr("timeout", insnIdx, "instruction budget exhausted")
}

func ErrInvalidInstruction(insnIdx int) *Error {
	return newErr("invalid_instruction", insnIdx, "instruction cannot be dispatched")
}

func ErrProgramNotLoaded() *Error {
	return newErr("program_not_loaded", -1, "program has not been verified and loaded")
}
