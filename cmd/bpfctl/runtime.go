package main

import (
	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/sched"
	"github.com/utkarshm/axiom-bpf/vm"
)

// Runtime is the profile-erased surface bpfctl drives. The concrete type
// behind it is engine.Kernel[profile.Cloud] or engine.Kernel[profile.Embedded],
// selected at build time by newRuntime (see runtime_cloud.go/runtime_embedded.go).
type Runtime interface {
	Load(progType bytecode.ProgType, insns []bytecode.Instruction) (uint64, error)
	Attach(progID uint64, attachmentType sched.AttachmentType, selector sched.Selector) error
	Dispatch(attachmentType sched.AttachmentType, selector sched.Selector, ctxBytes []byte)
	RunSync(progID uint64, ctxBytes []byte) (vm.Result, error)

	MapCreate(def bpfmap.MapDef) (bpfmap.Handle, error)
	MapLookup(id bpfmap.MapID, key []byte) ([]byte, bool)
	MapUpdate(id bpfmap.MapID, key, value []byte, flag bpfmap.UpdateFlag) error
	MapDelete(id bpfmap.MapID, key []byte) error
}
