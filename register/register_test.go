package register

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromRawAcceptsR0ThroughR10(t *testing.T) {
	for raw := uint8(0); raw <= 10; raw++ {
		r, err := FromRaw(raw)
		require.NoError(t, err)
		require.Equal(t, Register(raw), r)
	}
}

func TestFromRawRejectsOutOfRange(t *testing.T) {
	for _, raw := range []uint8{11, 12, 15, 255} {
		_, err := FromRaw(raw)
		require.Error(t, err)
		var regErr *InvalidRegisterError
		require.ErrorAs(t, err, &regErr)
		require.Equal(t, raw, regErr.Raw)
	}
}

func TestRegisterClassification(t *testing.T) {
	require.True(t, R3.IsCallerSaved())
	require.False(t, R6.IsCallerSaved())
	require.True(t, R7.IsCalleeSaved())
	require.False(t, R1.IsCalleeSaved())
	require.True(t, R10.IsFramePointer())
	require.False(t, R10.IsWritable())
	require.True(t, R0.IsWritable())
}

func TestRegisterString(t *testing.T) {
	require.Equal(t, "r3", R3.String())
	require.Contains(t, Register(99).String(), "invalid")
}

func TestFileSetGetRoundTrip(t *testing.T) {
	f := New()
	f.Set(R2, 0xdeadbeef)
	require.Equal(t, uint64(0xdeadbeef), f.Get(R2))
}

func TestFileSetPanicsOnFramePointer(t *testing.T) {
	f := New()
	require.Panics(t, func() { f.Set(R10, 1) })
}

func TestFileSetUncheckedBypassesFramePointerGuard(t *testing.T) {
	f := New()
	require.NotPanics(t, func() { f.SetUnchecked(R10, 0x1000) })
	require.Equal(t, uint64(0x1000), f.FramePtr())
}

func TestFileInitForEntry(t *testing.T) {
	f := New()
	f.Set(R3, 77) // should be wiped by InitForEntry
	f.InitForEntry(0x2000, 0x3000)

	require.Equal(t, uint64(0x2000), f.ContextPtr())
	require.Equal(t, uint64(0x3000), f.FramePtr())
	require.Zero(t, f.Get(R3))
	require.Zero(t, f.ReturnValue())
}

func TestFileSnapshotReflectsLiveState(t *testing.T) {
	f := New()
	f.Set(R0, 5)
	f.Set(R1, 6)
	snap := f.Snapshot()
	require.Equal(t, uint64(5), snap[R0])
	require.Equal(t, uint64(6), snap[R1])
}
