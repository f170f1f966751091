//go:build cloud

package vm

import (
	"github.com/sirupsen/logrus"

	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/profile"
)

// JIT reserves the compile entry point for translating verified bytecode to
// native code. It exists only in cloud builds; embedded has no executable
// memory allocator to acquire from and always runs the interpreter.
//
// Compile currently always declines: there is no native backend wired up.
// A declined compile is never fatal, matching the source material's
// fallback contract — RunOrFallback below always drops back to the interpreter.
type JIT struct {
	log *logrus.Logger
}

func NewJIT(log *logrus.Logger) *JIT {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &JIT{log: log}
}

// compiledProgram is what a successful Compile would hand back: native code
// acquired from the host executable-memory allocator. No backend populates
// it, so Compile never returns a non-nil value of this type.
type compiledProgram struct {
	code []byte
}

// Compile attempts to translate prog into native code. It returns
// (nil, false) on any failure, including "no backend implemented", which is
// always the case today.
func (j *JIT) Compile(prog *bytecode.Program) (*compiledProgram, bool) {
	j.log.WithField("program", prog.String()).Debug("jit compile declined: no native backend")
	return nil, false
}

// RunOrFallback attempts a JIT-compiled dispatch and falls back to interp
// (the mandatory interpreter) whenever compilation or execution does not
// succeed. Compilation failure is never fatal, per the execution engine's
// contract.
func RunOrFallback[P profile.Physical](j *JIT, interp *Interpreter[P], prog *bytecode.Program, ctx *Context) (Result, *Error) {
	if _, ok := j.Compile(prog); !ok {
		return interp.Run(prog, ctx)
	}
	return interp.Run(prog, ctx)
}
