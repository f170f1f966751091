package bytecode

import "fmt"

// ProgType tags what kind of attachment point a program is intended for.
// The verifier uses it to select a helper allowlist; the scheduler and
// attachment registry use it only for bookkeeping/logging.
type ProgType uint8

const (
	ProgTypeUnspec ProgType = iota
	ProgTypeTimer
	ProgTypeGPIO
	ProgTypePWM
	ProgTypeIIO
	ProgTypeSyscall
)

func (t ProgType) String() string {
	switch t {
	case ProgTypeTimer:
		return "timer"
	case ProgTypeGPIO:
		return "gpio"
	case ProgTypePWM:
		return "pwm"
	case ProgTypeIIO:
		return "iio"
	case ProgTypeSyscall:
		return "syscall"
	default:
		return "unspec"
	}
}

// HelperID identifies a helper function callable via the Call instruction.
type HelperID int32

const (
	HelperUnspec HelperID = iota
	HelperKtimeGetNs
	HelperTracePrintk
	HelperGetPrandomU32
	HelperGetSmpProcessorID
	HelperMapLookupElem
	HelperMapUpdateElem
	HelperMapDeleteElem
	HelperRingBufOutput
	HelperGpioRead
	HelperGpioWrite
	HelperPwmWrite
	HelperTimeSeriesPush
	HelperEmergencyMotorStop
)

// allowedHelpers is the program-type -> helper allowlist configuration
// table. It is deliberately data, not branching logic, per the resolved
// Open Question on helper allowlisting: swapping a program type's allowed
// helpers never requires touching the verifier.
var allowedHelpers = map[ProgType]map[HelperID]bool{
	ProgTypeTimer: set(HelperKtimeGetNs, HelperTracePrintk, HelperMapLookupElem,
		HelperMapUpdateElem, HelperMapDeleteElem, HelperRingBufOutput, HelperTimeSeriesPush),
	ProgTypeGPIO: set(HelperKtimeGetNs, HelperTracePrintk, HelperMapLookupElem,
		HelperMapUpdateElem, HelperMapDeleteElem, HelperRingBufOutput,
		HelperGpioRead, HelperGpioWrite, HelperEmergencyMotorStop),
	ProgTypePWM: set(HelperKtimeGetNs, HelperTracePrintk, HelperMapLookupElem,
		HelperMapUpdateElem, HelperMapDeleteElem, HelperPwmWrite, HelperEmergencyMotorStop),
	ProgTypeIIO: set(HelperKtimeGetNs, HelperTracePrintk, HelperMapLookupElem,
		HelperMapUpdateElem, HelperMapDeleteElem, HelperRingBufOutput, HelperTimeSeriesPush),
	ProgTypeSyscall: set(HelperKtimeGetNs, HelperTracePrintk, HelperGetPrandomU32,
		HelperGetSmpProcessorID, HelperMapLookupElem, HelperMapUpdateElem, HelperMapDeleteElem),
}

func set(ids ...HelperID) map[HelperID]bool {
	m := make(map[HelperID]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// AllowedHelpers returns the helper allowlist for t. Unknown program types
// get an empty allowlist, not a panic: the verifier will simply reject any
// call instruction as InvalidHelper.
func AllowedHelpers(t ProgType) map[HelperID]bool {
	if m, ok := allowedHelpers[t]; ok {
		return m
	}
	return map[HelperID]bool{}
}

// ProgramError reports a problem building or validating a program container
// independent of verification (verification errors live in package
// verifier).
type ProgramError struct {
	Reason string
}

func (e *ProgramError) Error() string { return "bytecode: " + e.Reason }

// Program is the immutable, loaded unit: a program type, its instruction
// sequence, and a proved stack-usage bound. Construct via ProgramBuilder;
// the verifier stamps StackBound after a successful check. It does not
// compute a WCET estimate, so WCETInsns stays zero on verified programs.
type Program struct {
	Type        ProgType
	Insns       []Instruction
	StackBound  int
	WCETInsns   uint64 // embedded instruction budget when non-zero (see vm budgetFor); zero means the profile ceiling
	id          uint64
}

// ID is the program's registry identifier, set once on load.
func (p *Program) ID() uint64 { return p.id }

// SetID is called by the loader once the program is admitted to the
// registry.
func (p *Program) SetID(id uint64) { p.id = id }

func (p *Program) String() string {
	return fmt.Sprintf("program{type=%s insns=%d stack=%d}", p.Type, len(p.Insns), p.StackBound)
}

// ProgramBuilder assembles an instruction sequence for a given program
// type. It performs no verification; it exists purely to make constructing
// test and demo programs readable, mirroring the teacher's fluent
// instruction-sequence construction style.
type ProgramBuilder struct {
	progType ProgType
	insns    []Instruction
}

func NewProgramBuilder(t ProgType) *ProgramBuilder {
	return &ProgramBuilder{progType: t}
}

func (b *ProgramBuilder) Insn(i Instruction) *ProgramBuilder {
	b.insns = append(b.insns, i)
	return b
}

func (b *ProgramBuilder) Insns(is ...Instruction) *ProgramBuilder {
	b.insns = append(b.insns, is...)
	return b
}

// Build returns the unverified instruction sequence wrapped in a Program.
// Callers must run it through verifier.Verify before it is safe to execute.
func (b *ProgramBuilder) Build() (*Program, error) {
	if len(b.insns) == 0 {
		return nil, &ProgramError{Reason: "empty program"}
	}
	return &Program{Type: b.progType, Insns: b.insns}, nil
}
