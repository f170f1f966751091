//go:build embedded

package sched

import (
	"sync"

	"github.com/utkarshm/axiom-bpf/profile"
)

// ErrInvalidDeadline and ErrDeadlineMiss are embedded-only scheduling
// errors, declared here rather than error.go so they cannot even be named
// from a cloud build.
func ErrInvalidDeadline() *Error { return newErr("deadline must be in the future") }
func ErrDeadlineMiss() *Error    { return newErr("deadline missed before dispatch") }

// DeadlinePolicy selects the request with the earliest absolute deadline,
// sorting undeadlined requests last, and enforces a priority ceiling
// protocol over named shared resources. Embedded only: cloud always runs
// ThroughputPolicy instead.
type DeadlinePolicy struct {
	mu       sync.Mutex
	now      int64
	misses   []profile.DeadlineMiss
	execCnt  uint64
	ceilings *CeilingTable
}

func NewDeadlinePolicy() *DeadlinePolicy {
	return &DeadlinePolicy{ceilings: NewCeilingTable()}
}

// UpdateTime advances the policy's notion of the current monotonic clock,
// used to detect deadline misses at selection time.
func (p *DeadlinePolicy) UpdateTime(nowNs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = nowNs
}

// Select pops the earliest-deadline request. A request whose deadline has
// already passed is recorded as a miss and terminated without dispatch, per
// §5's cancellation semantics; Select keeps popping until it finds a
// dispatchable request or the queue is empty.
func (p *DeadlinePolicy) Select(q *Queue[profile.Embedded]) (*Request, bool) {
	for {
		req, ok := q.PopEarliestDeadline()
		if !ok {
			return nil, false
		}
		p.mu.Lock()
		now := p.now
		if req.DeadlineNs > 0 {
			d := profile.Deadline{AbsoluteNs: req.DeadlineNs}
			if d.Missed(now) {
				p.misses = append(p.misses, profile.DeadlineMiss{
					ProgramID: uint64(req.ID),
					Deadline:  d,
					ActualNs:  now,
					OverrunNs: now - d.AbsoluteNs,
				})
				p.mu.Unlock()
				continue
			}
		}
		p.execCnt++
		p.mu.Unlock()
		return req, true
	}
}

func (p *DeadlinePolicy) Admit(q *Queue[profile.Embedded], req *Request) error {
	if q.IsFull() {
		return ErrQueueFull()
	}
	if req.DeadlineNs < 0 {
		return ErrInvalidDeadline()
	}
	return nil
}

func (p *DeadlinePolicy) ExecCount() uint64 { return p.execCnt }

// DeadlineMisses returns every recorded miss so far, oldest first.
func (p *DeadlinePolicy) DeadlineMisses() []profile.DeadlineMiss {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]profile.DeadlineMiss, len(p.misses))
	copy(out, p.misses)
	return out
}

func (p *DeadlinePolicy) MissCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.misses)
}

func (p *DeadlinePolicy) Ceilings() *CeilingTable { return p.ceilings }

// CeilingTable implements the priority ceiling protocol: for each shared
// resource, it tracks the highest priority among programs currently
// waiting, so the current holder can temporarily inherit it and avoid
// priority inversion.
type CeilingTable struct {
	mu      sync.Mutex
	ceiling map[uint64]ExecPriority
	holder  map[uint64]ProgID
}

func NewCeilingTable() *CeilingTable {
	return &CeilingTable{ceiling: make(map[uint64]ExecPriority), holder: make(map[uint64]ProgID)}
}

// Wait registers a waiter's priority against resource, raising its ceiling
// if the waiter outranks the current ceiling.
func (c *CeilingTable) Wait(resource uint64, waiterPriority ExecPriority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.ceiling[resource]; !ok || waiterPriority > cur {
		c.ceiling[resource] = waiterPriority
	}
}

// Acquire records holder as currently holding resource and returns the
// priority it should run at while holding it: the resource's ceiling.
func (c *CeilingTable) Acquire(resource uint64, holder ProgID) ExecPriority {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holder[resource] = holder
	return c.ceiling[resource]
}

// Release clears resource's ceiling and holder once it is no longer held.
func (c *CeilingTable) Release(resource uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.holder, resource)
	delete(c.ceiling, resource)
}
