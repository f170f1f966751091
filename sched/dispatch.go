package sched

import (
	"github.com/sirupsen/logrus"

	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/profile"
	"github.com/utkarshm/axiom-bpf/vm"
)

// ProgramSource resolves a loaded program id back to its verified program,
// typically the loader's program registry.
type ProgramSource interface {
	Program(id uint64) (*bytecode.Program, bool)
}

// Dispatcher ties the attachment registry, ready queue, policy and
// execution engine together behind the single dispatch entry point from
// §6. It never fails: every error along the way is logged and counted.
type Dispatcher[P profile.Physical] struct {
	Attachments *AttachmentRegistry
	Queue       *Queue[P]
	Policy      Policy[P]
	Programs    ProgramSource
	Interp      *vm.Interpreter[P]
	Log         *logrus.Logger

	execErrors uint64
}

// NewDispatcher wires together the already-constructed collaborators. log
// defaults to logrus's standard logger when nil.
func NewDispatcher[P profile.Physical](
	attach *AttachmentRegistry,
	queue *Queue[P],
	policy Policy[P],
	programs ProgramSource,
	interp *vm.Interpreter[P],
	log *logrus.Logger,
) *Dispatcher[P] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher[P]{
		Attachments: attach,
		Queue:       queue,
		Policy:      policy,
		Programs:    programs,
		Interp:      interp,
		Log:         log,
	}
}

// Submit admits a fully-formed request directly, bypassing attachment
// lookup. Used by callers that already know priority/deadline, such as a
// CLI demo or a test.
func (d *Dispatcher[P]) Submit(req *Request) error {
	if err := d.Policy.Admit(d.Queue, req); err != nil {
		return err
	}
	return d.Queue.Enqueue(req)
}

// Dispatch enqueues every program attached to (attachmentType, selector)
// then drains the ready queue in policy order, executing each against ctx.
// It never returns an error: admission and execution failures are logged
// and counted, matching the event dispatch call's contract.
func (d *Dispatcher[P]) Dispatch(attachmentType AttachmentType, selector Selector, ctx *vm.Context) {
	for _, id := range d.Attachments.Lookup(attachmentType, selector) {
		prog, ok := d.Programs.Program(id)
		if !ok {
			d.Log.WithField("program_id", id).Warn("dispatch: attached program not loaded")
			continue
		}
		req := &Request{ID: ProgID(id), Program: prog, Context: ctx, Priority: PriorityNormal}
		if err := d.Submit(req); err != nil {
			d.Log.WithError(err).WithField("program_id", id).Warn("dispatch: admission rejected")
		}
	}
	d.Drain()
}

// Drain runs the policy's selection loop until the queue is empty,
// executing each selected request. Exposed separately from Dispatch so
// periodic schedulers (e.g. a timer tick with nothing newly attached) can
// simply call Drain.
func (d *Dispatcher[P]) Drain() {
	for {
		req, ok := d.Policy.Select(d.Queue)
		if !ok {
			break
		}
		d.execute(req)
	}
}

func (d *Dispatcher[P]) execute(req *Request) {
	res, err := d.Interp.Run(req.Program, req.Context)
	if err != nil {
		d.execErrors++
		d.Log.WithError(err).WithField("program_id", req.ID).Warn("dispatch: execution error")
		return
	}
	d.Log.WithFields(logrus.Fields{
		"program_id": req.ID,
		"r0":         res.R0,
		"steps":      res.Steps,
	}).Debug("dispatch: program completed")
}

// Cancel removes a pending (not yet selected) request by program id.
// Cancellation of a request already handed to the execution engine is not
// supported; it either completes or is terminated by the instruction
// budget.
func (d *Dispatcher[P]) Cancel(id ProgID) bool {
	return d.Queue.RemoveByID(id)
}

// ExecutionErrors is the running count of executions that terminated with
// an Error.
func (d *Dispatcher[P]) ExecutionErrors() uint64 { return d.execErrors }
