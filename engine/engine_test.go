package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/bytecode"
	"github.com/utkarshm/axiom-bpf/event"
	"github.com/utkarshm/axiom-bpf/profile"
	"github.com/utkarshm/axiom-bpf/register"
	"github.com/utkarshm/axiom-bpf/sched"
)

func newTestKernel(t *testing.T) *Kernel[profile.Cloud] {
	t.Helper()
	k := New[profile.Cloud](Config[profile.Cloud]{
		Policy: sched.NewThroughputPolicy(),
	})
	return k
}

func TestLoadAttachDispatchMinimalReturn(t *testing.T) {
	k := newTestKernel(t)

	id, err := k.Load(bytecode.ProgTypeTimer, []bytecode.Instruction{
		bytecode.Mov64Imm(register.R0, 42),
		bytecode.Exit(),
	})
	require.NoError(t, err)

	require.NoError(t, k.Attach(id, sched.AttachTimer, sched.TimerSelector()))
	k.Dispatch(sched.AttachTimer, sched.TimerSelector(), nil)

	require.EqualValues(t, 1, k.Dispatcher.Policy.ExecCount())
	require.EqualValues(t, 0, k.Dispatcher.ExecutionErrors())
}

func TestLoadRejectsVerifierFailure(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.Load(bytecode.ProgTypeTimer, []bytecode.Instruction{
		bytecode.Mov64Imm(register.R0, 1),
		// no exit: the verifier must reject this as ErrNoExit
	})
	require.Error(t, err)
}

func TestAttachUnknownProgramFails(t *testing.T) {
	k := newTestKernel(t)
	err := k.Attach(9999, sched.AttachTimer, sched.TimerSelector())
	require.Error(t, err)
}

func TestDispatchGpioFiltersByLine(t *testing.T) {
	k := newTestKernel(t)

	// *(u32*)(r4+12) compared against 17; r4 is loaded from r1 (context ptr).
	id, err := k.Load(bytecode.ProgTypeGPIO, []bytecode.Instruction{
		bytecode.Mov64Reg(register.R4, register.R1),
		bytecode.Load(bytecode.SizeWord, register.R5, register.R4, 12),
		bytecode.JEqImm(register.R5, 17, 2),
		bytecode.Mov64Imm(register.R0, 0),
		bytecode.Exit(),
		bytecode.Mov64Imm(register.R0, 1),
		bytecode.Exit(),
	})
	require.NoError(t, err)

	require.NoError(t, k.Attach(id, sched.AttachGPIO, sched.GPIOSelector(17, sched.EdgeRising)))

	ev := event.GpioEvent{TimestampNs: 1, Chip: 0, Line: 17, Edge: 1, Value: 1}
	k.DispatchGpio(ev)

	require.EqualValues(t, 1, k.Dispatcher.Policy.ExecCount())
	require.EqualValues(t, 0, k.Dispatcher.ExecutionErrors())
}

func TestMapCreateUpdateLookupDelete(t *testing.T) {
	k := newTestKernel(t)
	h, err := k.MapCreate(bpfmap.MapDef{Type: bpfmap.TypeHash, KeySize: 8, ValueSize: 8, MaxEntries: 1024})
	require.NoError(t, err)

	key := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	val := []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}
	require.NoError(t, k.MapUpdate(h.ID, key, val, bpfmap.FlagAny))

	got, ok := k.MapLookup(h.ID, key)
	require.True(t, ok)
	require.Equal(t, val, got)

	require.NoError(t, k.MapDelete(h.ID, key))
	_, ok = k.MapLookup(h.ID, key)
	require.False(t, ok)
}
