// Package profile carries the compile-time physical-profile constants that
// every other package in this module parameterises on. A profile is chosen
// once, at build time, by enabling exactly one of the `cloud` or `embedded`
// build tags; see active_*.go.
package profile

import "time"

// Name identifies a physical profile.
type Name string

const (
	NameCloud    Name = "cloud"
	NameEmbedded Name = "embedded"
)

// Physical is implemented by the zero-sized profile marker types Cloud and
// Embedded. Generic code parameterises over it the way the original source
// parameterised over a sealed trait with associated constants; a Go type
// parameter constrained to Physical plays the same role, with `var zero P`
// standing in for the associated-constant lookup.
type Physical interface {
	Name() Name
	MaxStackBytes() int
	MaxInstructions() int
	MemoryBudget() int // bytes; 0 means unbounded
	JITPermitted() bool
	RestartAcceptable() bool
	ResizeAllowed() bool
	DynamicAllocAllowed() bool
	DefaultQuantum() time.Duration
	DeadlineTrackingPresent() bool
}

// Cloud is the physical profile for elastic, multi-core deployments:
// unbounded memory, JIT permitted, throughput scheduling.
type Cloud struct{}

func (Cloud) Name() Name                    { return NameCloud }
func (Cloud) MaxStackBytes() int            { return 524288 }
func (Cloud) MaxInstructions() int          { return 1_000_000 }
func (Cloud) MemoryBudget() int             { return 0 }
func (Cloud) JITPermitted() bool            { return true }
func (Cloud) RestartAcceptable() bool       { return true }
func (Cloud) ResizeAllowed() bool           { return true }
func (Cloud) DynamicAllocAllowed() bool     { return true }
func (Cloud) DefaultQuantum() time.Duration { return 10 * time.Millisecond }
func (Cloud) DeadlineTrackingPresent() bool { return false }

// Embedded is the physical profile for single-core, memory-constrained,
// deadline-driven deployments.
type Embedded struct{}

func (Embedded) Name() Name                    { return NameEmbedded }
func (Embedded) MaxStackBytes() int            { return 8192 }
func (Embedded) MaxInstructions() int          { return 100_000 }
func (Embedded) MemoryBudget() int             { return 65536 }
func (Embedded) JITPermitted() bool            { return false }
func (Embedded) RestartAcceptable() bool       { return false }
func (Embedded) ResizeAllowed() bool           { return false }
func (Embedded) DynamicAllocAllowed() bool     { return false }
func (Embedded) DefaultQuantum() time.Duration { return 1 * time.Millisecond }
func (Embedded) DeadlineTrackingPresent() bool { return true }

// FailureSeverity ranks how badly a dispatch-time failure should be treated.
// Ordering is significant: Info < Warning < Error < Critical < Fatal.
type FailureSeverity int

const (
	SeverityInfo FailureSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
	SeverityFatal
)

// RecoveryAction is what the scheduler should do after a dispatch-time
// failure of the given severity, given the active profile's restart and
// recovery posture.
type RecoveryAction int

const (
	ActionContinue RecoveryAction = iota
	ActionTerminateProgram
	ActionRestartSubsystem
	ActionInvokeRecovery
	ActionHalt
)

// Recover decides the recovery action for a failure of the given severity
// under profile p: profiles that accept restarts resolve Critical to a
// subsystem restart, the others to ActionInvokeRecovery. It only returns the
// action; nothing in this module calls it or carries the action out, and no
// recovery-partition hook exists in either build.
func Recover(p Physical, severity FailureSeverity) RecoveryAction {
	switch severity {
	case SeverityInfo, SeverityWarning:
		return ActionContinue
	case SeverityError:
		return ActionTerminateProgram
	case SeverityCritical:
		if p.RestartAcceptable() {
			return ActionRestartSubsystem
		}
		return ActionInvokeRecovery
	case SeverityFatal:
		if !p.RestartAcceptable() {
			return ActionInvokeRecovery
		}
		return ActionHalt
	default:
		return ActionTerminateProgram
	}
}
