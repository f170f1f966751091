package sched

import (
	"fmt"

	"github.com/utkarshm/axiom-bpf/bpferr"
)

// Error is the scheduling error taxonomy from §7.
type Error struct{ msg string }

func (e *Error) Error() string { return "sched: " + e.msg }

func (e *Error) Category() bpferr.Category { return bpferr.CategoryScheduling }

func newErr(format string, args ...any) *Error { return &Error{msg: fmt.Sprintf(format, args...)} }

func ErrQueueFull() *Error { return newErr("ready queue is full") }
func ErrNotFound() *Error  { return newErr("program not found") }
