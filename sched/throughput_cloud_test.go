//go:build cloud

package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/profile"
	"github.com/utkarshm/axiom-bpf/vm"
)

func TestThroughputPolicySelectsHighestPriorityThenFIFO(t *testing.T) {
	q := NewQueue[profile.Cloud](0)
	pol := NewThroughputPolicy()
	prog := minimalProgram(t)

	require.NoError(t, pol.Admit(q, &Request{ID: 1}))
	require.NoError(t, q.Enqueue(&Request{ID: 1, Program: prog, Priority: PriorityNormal}))
	require.NoError(t, q.Enqueue(&Request{ID: 2, Program: prog, Priority: PriorityHigh}))
	require.NoError(t, q.Enqueue(&Request{ID: 3, Program: prog, Priority: PriorityHigh}))

	req, ok := pol.Select(q)
	require.True(t, ok)
	require.Equal(t, ProgID(2), req.ID)
	require.EqualValues(t, 1, pol.ExecCount())

	req, ok = pol.Select(q)
	require.True(t, ok)
	require.Equal(t, ProgID(3), req.ID)

	req, ok = pol.Select(q)
	require.True(t, ok)
	require.Equal(t, ProgID(1), req.ID)
	require.EqualValues(t, 3, pol.ExecCount())

	_, ok = pol.Select(q)
	require.False(t, ok)
}

func TestThroughputPolicyAdmitRejectsWhenFull(t *testing.T) {
	q := NewQueue[profile.Cloud](1)
	pol := NewThroughputPolicy()
	prog := minimalProgram(t)
	require.NoError(t, q.Enqueue(&Request{ID: 1, Program: prog}))
	require.Error(t, pol.Admit(q, &Request{ID: 2}))
}

// fakeProgramSource implements ProgramSource over a fixed set of programs
// registered by id, mirroring how the loader's program table would satisfy
// this interface for the dispatcher.
type fakeProgramSource struct {
	progs map[uint64]*bytecode.Program
}

func newFakeProgramSource() *fakeProgramSource {
	return &fakeProgramSource{progs: make(map[uint64]*bytecode.Program)}
}

func (s *fakeProgramSource) set(id uint64, p *bytecode.Program) { s.progs[id] = p }

func (s *fakeProgramSource) Program(id uint64) (*bytecode.Program, bool) {
	p, ok := s.progs[id]
	return p, ok
}

func TestDispatcherDrainsAttachedProgramsAndExecutesThem(t *testing.T) {
	reg := bpfmap.NewRegistry()
	helpers := vm.NewHelperTable(reg, vm.Devices{})
	interp := vm.NewInterpreter[profile.Cloud](reg, helpers)

	prog := minimalProgram(t)
	prog.SetID(42)
	src := newFakeProgramSource()
	src.set(42, prog)

	attach := NewAttachmentRegistry()
	attach.Attach(42, AttachTimer, TimerSelector())

	queue := NewQueue[profile.Cloud](0)
	pol := NewThroughputPolicy()
	disp := NewDispatcher[profile.Cloud](attach, queue, pol, src, interp, nil)

	disp.Dispatch(AttachTimer, TimerSelector(), vm.NewContext(nil))

	require.EqualValues(t, 1, pol.ExecCount())
	require.True(t, queue.IsEmpty())
	require.EqualValues(t, 0, disp.ExecutionErrors())
}

func TestDispatcherCancelRemovesOnlyPending(t *testing.T) {
	reg := bpfmap.NewRegistry()
	helpers := vm.NewHelperTable(reg, vm.Devices{})
	interp := vm.NewInterpreter[profile.Cloud](reg, helpers)

	prog := minimalProgram(t)
	src := newFakeProgramSource()

	attach := NewAttachmentRegistry()
	queue := NewQueue[profile.Cloud](0)
	pol := NewThroughputPolicy()
	disp := NewDispatcher[profile.Cloud](attach, queue, pol, src, interp, nil)

	require.NoError(t, disp.Submit(&Request{ID: 1, Program: prog, Priority: PriorityNormal}))
	require.True(t, disp.Cancel(1))
	require.False(t, disp.Cancel(1))
	require.True(t, queue.IsEmpty())
}
