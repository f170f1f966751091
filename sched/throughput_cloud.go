//go:build cloud

package sched

import "github.com/utkarshm/axiom-bpf/profile"

// ThroughputPolicy selects the highest-priority request, FIFO within a
// priority level, with no deadline enforcement. Cloud only: embedded
// always runs DeadlinePolicy instead.
type ThroughputPolicy struct {
	execCount uint64
}

func NewThroughputPolicy() *ThroughputPolicy { return &ThroughputPolicy{} }

func (p *ThroughputPolicy) Select(q *Queue[profile.Cloud]) (*Request, bool) {
	req, ok := q.PopHighestPriority()
	if !ok {
		return nil, false
	}
	p.execCount++
	return req, true
}

func (p *ThroughputPolicy) Admit(q *Queue[profile.Cloud], req *Request) error {
	if q.IsFull() {
		return ErrQueueFull()
	}
	return nil
}

func (p *ThroughputPolicy) ExecCount() uint64 { return p.execCount }
