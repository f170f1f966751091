//go:build embedded

package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/profile"
)

func TestDeadlinePolicySelectsEarliestDeadline(t *testing.T) {
	q := NewQueue[profile.Embedded](0)
	pol := NewDeadlinePolicy()
	prog := minimalProgram(t)
	pol.UpdateTime(0)

	require.NoError(t, q.Enqueue(&Request{ID: 1, Program: prog, DeadlineNs: 1000}))
	require.NoError(t, q.Enqueue(&Request{ID: 2, Program: prog, DeadlineNs: 200}))

	req, ok := pol.Select(q)
	require.True(t, ok)
	require.Equal(t, ProgID(2), req.ID)

	req, ok = pol.Select(q)
	require.True(t, ok)
	require.Equal(t, ProgID(1), req.ID)
	require.EqualValues(t, 2, pol.ExecCount())
}

func TestDeadlinePolicyRecordsPastDeadlineMissAndSkipsIt(t *testing.T) {
	q := NewQueue[profile.Embedded](0)
	pol := NewDeadlinePolicy()
	prog := minimalProgram(t)

	require.NoError(t, q.Enqueue(&Request{ID: 1, Program: prog, DeadlineNs: 100}))
	require.NoError(t, q.Enqueue(&Request{ID: 2, Program: prog, DeadlineNs: 5000}))
	pol.UpdateTime(1000) // past request 1's deadline, well before request 2's

	req, ok := pol.Select(q)
	require.True(t, ok, "the missed request is skipped, not returned as a failure")
	require.Equal(t, ProgID(2), req.ID)
	require.EqualValues(t, 1, pol.ExecCount())

	misses := pol.DeadlineMisses()
	require.Len(t, misses, 1)
	require.EqualValues(t, 1, misses[0].ProgramID)
	require.EqualValues(t, 900, misses[0].OverrunNs)
	require.Equal(t, 1, pol.MissCount())

	_, ok = pol.Select(q)
	require.False(t, ok)
}

func TestDeadlinePolicyAdmitRejectsNegativeDeadline(t *testing.T) {
	q := NewQueue[profile.Embedded](0)
	pol := NewDeadlinePolicy()
	err := pol.Admit(q, &Request{ID: 1, DeadlineNs: -1})
	require.Error(t, err)
}

func TestCeilingTableTracksHighestWaiterPriority(t *testing.T) {
	ct := NewCeilingTable()
	const resource = 7

	ct.Wait(resource, PriorityLow)
	ct.Wait(resource, PriorityCritical)
	ct.Wait(resource, PriorityNormal)

	got := ct.Acquire(resource, ProgID(9))
	require.Equal(t, PriorityCritical, got)

	ct.Release(resource)
	require.Equal(t, PriorityLow, ct.Acquire(resource, ProgID(1)))
}
