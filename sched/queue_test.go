package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/profile"
)

func minimalProgram(t *testing.T) *bytecode.Program {
	t.Helper()
	prog, err := bytecode.NewProgramBuilder(bytecode.ProgTypeTimer).
		Insn(bytecode.Mov64Imm(0, 7)).
		Insn(bytecode.Exit()).
		Build()
	require.NoError(t, err)
	return prog
}

func TestQueueEnqueueFIFOOrder(t *testing.T) {
	q := NewQueue[profile.Cloud](0)
	prog := minimalProgram(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(&Request{ID: ProgID(i), Program: prog, Priority: PriorityNormal}))
	}
	for i := 0; i < 3; i++ {
		req, ok := q.PopHighestPriority()
		require.True(t, ok)
		require.Equal(t, ProgID(i), req.ID)
	}
	_, ok := q.PopHighestPriority()
	require.False(t, ok)
}

func TestQueueFullRejectsEnqueue(t *testing.T) {
	q := NewQueue[profile.Cloud](1)
	prog := minimalProgram(t)
	require.NoError(t, q.Enqueue(&Request{ID: 1, Program: prog}))
	err := q.Enqueue(&Request{ID: 2, Program: prog})
	require.Error(t, err)
	require.Equal(t, ErrQueueFull().Error(), err.Error())
}

func TestQueuePopHighestPriorityBreaksFIFOTies(t *testing.T) {
	q := NewQueue[profile.Cloud](0)
	prog := minimalProgram(t)
	require.NoError(t, q.Enqueue(&Request{ID: 1, Program: prog, Priority: PriorityLow}))
	require.NoError(t, q.Enqueue(&Request{ID: 2, Program: prog, Priority: PriorityCritical}))
	require.NoError(t, q.Enqueue(&Request{ID: 3, Program: prog, Priority: PriorityCritical}))
	require.NoError(t, q.Enqueue(&Request{ID: 4, Program: prog, Priority: PriorityHigh}))

	first, ok := q.PopHighestPriority()
	require.True(t, ok)
	require.Equal(t, ProgID(2), first.ID, "first critical submitted wins over the later critical")

	second, ok := q.PopHighestPriority()
	require.True(t, ok)
	require.Equal(t, ProgID(3), second.ID)

	third, ok := q.PopHighestPriority()
	require.True(t, ok)
	require.Equal(t, ProgID(4), third.ID)
}

func TestQueueRemoveByIDOnlyAffectsPending(t *testing.T) {
	q := NewQueue[profile.Cloud](0)
	prog := minimalProgram(t)
	require.NoError(t, q.Enqueue(&Request{ID: 1, Program: prog}))
	require.NoError(t, q.Enqueue(&Request{ID: 2, Program: prog}))

	require.True(t, q.RemoveByID(1))
	require.False(t, q.RemoveByID(1), "already removed")
	require.Equal(t, 1, q.Len())

	req, ok := q.PopHighestPriority()
	require.True(t, ok)
	require.Equal(t, ProgID(2), req.ID)
}

func TestQueuePopEarliestDeadlinePrefersDeadlinedOverUndeadlined(t *testing.T) {
	q := NewQueue[profile.Embedded](0)
	prog := minimalProgram(t)
	require.NoError(t, q.Enqueue(&Request{ID: 1, Program: prog, DeadlineNs: 0}))
	require.NoError(t, q.Enqueue(&Request{ID: 2, Program: prog, DeadlineNs: 500}))
	require.NoError(t, q.Enqueue(&Request{ID: 3, Program: prog, DeadlineNs: 100}))

	first, ok := q.PopEarliestDeadline()
	require.True(t, ok)
	require.Equal(t, ProgID(3), first.ID)

	second, ok := q.PopEarliestDeadline()
	require.True(t, ok)
	require.Equal(t, ProgID(2), second.ID)

	third, ok := q.PopEarliestDeadline()
	require.True(t, ok)
	require.Equal(t, ProgID(1), third.ID)
}

func TestAttachmentRegistryDedupesAndPreservesOrder(t *testing.T) {
	r := NewAttachmentRegistry()
	sel := GPIOSelector(17, EdgeRising)
	r.Attach(1, AttachGPIO, sel)
	r.Attach(2, AttachGPIO, sel)
	r.Attach(1, AttachGPIO, sel)

	require.Equal(t, []uint64{1, 2}, r.Lookup(AttachGPIO, sel))
	require.Empty(t, r.Lookup(AttachGPIO, GPIOSelector(18, EdgeRising)))

	require.True(t, r.Detach(1, AttachGPIO, sel))
	require.False(t, r.Detach(1, AttachGPIO, sel))
	require.Equal(t, []uint64{2}, r.Lookup(AttachGPIO, sel))
}
