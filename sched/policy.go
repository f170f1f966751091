package sched

import "github.com/utkarshm/axiom-bpf/profile"

// Policy determines how programs are selected from, and admitted to, the
// ready queue. Cloud and embedded each implement exactly one concrete
// policy (ThroughputPolicy, DeadlinePolicy); both satisfy this same
// interface so Dispatcher stays policy-agnostic.
type Policy[P profile.Physical] interface {
	Select(q *Queue[P]) (*Request, bool)
	Admit(q *Queue[P], req *Request) error
	ExecCount() uint64
}
