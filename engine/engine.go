// Package engine wires bytecode, verifier, bpfmap, vm and sched together
// behind the five calls from §6: load, attach, dispatch, and the map_*
// family. It is the one place a caller (cmd/bpfctl, a test, an embedder)
// needs to import to run the whole subsystem.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/event"
	"github.com/utkarshm/axiom-bpf/profile"
	"github.com/utkarshm/axiom-bpf/sched"
	"github.com/utkarshm/axiom-bpf/verifier"
	"github.com/utkarshm/axiom-bpf/vm"
)

// Kernel is the core eBPF subsystem for one physical profile: a program
// table, a map registry, and a scheduler/dispatcher wired to one
// interpreter. Safe for concurrent use.
type Kernel[P profile.Physical] struct {
	Maps       *bpfmap.Registry
	Dispatcher *sched.Dispatcher[P]

	mu       sync.RWMutex
	programs map[uint64]*bytecode.Program
	nextID   atomic.Uint64
	Log      *logrus.Logger
}

// Config carries the collaborators a Kernel cannot construct for itself:
// device bindings for the helper table and the profile-appropriate
// scheduling policy.
type Config[P profile.Physical] struct {
	Devices vm.Devices
	Policy  sched.Policy[P]
	Queue   *sched.Queue[P]
	Log     *logrus.Logger
}

// New assembles a Kernel from cfg, defaulting an unset queue/logger.
func New[P profile.Physical](cfg Config[P]) *Kernel[P] {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	queue := cfg.Queue
	if queue == nil {
		queue = sched.NewQueue[P](0)
	}
	maps := bpfmap.NewRegistry()
	helpers := vm.NewHelperTable(maps, cfg.Devices)
	interp := vm.NewInterpreter[P](maps, helpers)
	attach := sched.NewAttachmentRegistry()

	k := &Kernel[P]{
		Maps:     maps,
		programs: make(map[uint64]*bytecode.Program),
		Log:      cfg.Log,
	}
	k.Dispatcher = sched.NewDispatcher[P](attach, queue, cfg.Policy, k, interp, cfg.Log)
	return k
}

// Program satisfies sched.ProgramSource, letting the Dispatcher resolve an
// attached program id back to its verified instructions.
func (k *Kernel[P]) Program(id uint64) (*bytecode.Program, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	p, ok := k.programs[id]
	return p, ok
}

// Load verifies insns for progType under profile P and, on success, admits
// the program and returns its id.
func (k *Kernel[P]) Load(progType bytecode.ProgType, insns []bytecode.Instruction) (uint64, error) {
	prog, verr := verifier.Verify[P](progType, insns)
	if verr != nil {
		return 0, verr
	}
	id := k.nextID.Add(1)
	prog.SetID(id)
	k.mu.Lock()
	k.programs[id] = prog
	k.mu.Unlock()
	k.Log.WithFields(logrus.Fields{"program_id": id, "type": progType}).Info("engine: program loaded")
	return id, nil
}

// ErrProgramNotFound is returned by Attach when progID was never loaded.
type ErrProgramNotFound struct{ ID uint64 }

func (e *ErrProgramNotFound) Error() string { return fmt.Sprintf("engine: program %d not found", e.ID) }

// Attach registers progID against (attachmentType, selector), failing if the
// program was never loaded.
func (k *Kernel[P]) Attach(progID uint64, attachmentType sched.AttachmentType, selector sched.Selector) error {
	if _, ok := k.Program(progID); !ok {
		return &ErrProgramNotFound{ID: progID}
	}
	k.Dispatcher.Attachments.Attach(progID, attachmentType, selector)
	return nil
}

// Detach removes progID from (attachmentType, selector), reporting whether
// it had been attached.
func (k *Kernel[P]) Detach(progID uint64, attachmentType sched.AttachmentType, selector sched.Selector) bool {
	return k.Dispatcher.Attachments.Detach(progID, attachmentType, selector)
}

// Dispatch delivers ctxBytes to every program attached to (attachmentType,
// selector). It never fails: per-program errors are logged and counted by
// the Dispatcher.
func (k *Kernel[P]) Dispatch(attachmentType sched.AttachmentType, selector sched.Selector, ctxBytes []byte) {
	k.Dispatcher.Dispatch(attachmentType, selector, vm.NewContext(ctxBytes))
}

// DispatchGpio is a convenience wrapper encoding ev per the §6 ABI before
// dispatching it on a GPIO attachment.
func (k *Kernel[P]) DispatchGpio(ev event.GpioEvent) {
	k.Dispatch(sched.AttachGPIO, sched.GPIOSelector(ev.Line, uint8(ev.Edge)), ev.Encode())
}

// DispatchPwm encodes ev and dispatches it on a PWM attachment.
func (k *Kernel[P]) DispatchPwm(ev event.PwmEvent) {
	k.Dispatch(sched.AttachPWM, sched.PWMSelector(ev.Chip, ev.Channel), ev.Encode())
}

// DispatchIio encodes ev and dispatches it on an IIO attachment.
func (k *Kernel[P]) DispatchIio(ev event.IioEvent) {
	k.Dispatch(sched.AttachIIO, sched.IIOSelector(ev.DeviceID), ev.Encode())
}

// DispatchSyscall encodes ctx and dispatches it on a syscall-entry
// attachment, falling back to the catch-all selector if no program is
// attached to the specific syscall number.
func (k *Kernel[P]) DispatchSyscall(ctx event.SyscallContext) {
	sel := sched.SyscallSelector(int64(ctx.Nr))
	if len(k.Dispatcher.Attachments.Lookup(sched.AttachSyscall, sel)) == 0 {
		sel = sched.SyscallSelector(sched.SyscallAll)
	}
	k.Dispatch(sched.AttachSyscall, sel, ctx.Encode())
}

// RunSync executes progID against ctxBytes directly through the
// interpreter, bypassing the ready queue and policy. It exists for callers
// that need the program's return value synchronously, such as a CLI demo
// command or a scenario test; the dispatch path proper (Dispatch) never
// returns one, per §6.
func (k *Kernel[P]) RunSync(progID uint64, ctxBytes []byte) (vm.Result, error) {
	prog, ok := k.Program(progID)
	if !ok {
		return vm.Result{}, &ErrProgramNotFound{ID: progID}
	}
	res, verr := k.Dispatcher.Interp.Run(prog, vm.NewContext(ctxBytes))
	if verr != nil {
		return vm.Result{}, verr
	}
	return res, nil
}

// MapCreate creates a new map of def and returns its Handle.
func (k *Kernel[P]) MapCreate(def bpfmap.MapDef) (bpfmap.Handle, error) {
	return bpfmap.Create[P](k.Maps, def)
}

// MapLookup, MapUpdate and MapDelete forward to the map's Handle, resolving
// id through the registry each call so a stale id reports not-found
// (MapLookup) or ErrInvalidMapType (MapUpdate, MapDelete) rather than
// panicking.
func (k *Kernel[P]) MapLookup(id bpfmap.MapID, key []byte) ([]byte, bool) {
	m, ok := k.Maps.Get(id)
	if !ok {
		return nil, false
	}
	return m.Lookup(key)
}

func (k *Kernel[P]) MapUpdate(id bpfmap.MapID, key, value []byte, flag bpfmap.UpdateFlag) error {
	m, ok := k.Maps.Get(id)
	if !ok {
		return bpfmap.ErrInvalidMapType()
	}
	return m.Update(key, value, flag)
}

func (k *Kernel[P]) MapDelete(id bpfmap.MapID, key []byte) error {
	m, ok := k.Maps.Get(id)
	if !ok {
		return bpfmap.ErrInvalidMapType()
	}
	return m.Delete(key)
}
