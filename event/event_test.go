package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGpioEventRoundTrip(t *testing.T) {
	e := GpioEvent{TimestampNs: 123456789, Chip: 0, Line: 17, Edge: 1, Value: 1}
	buf := e.Encode()
	require.Len(t, buf, GpioEventSize)

	got, ok := DecodeGpioEvent(buf)
	require.True(t, ok)
	require.Equal(t, e, got)
}

func TestGpioEventDecodeTooShort(t *testing.T) {
	_, ok := DecodeGpioEvent(make([]byte, GpioEventSize-1))
	require.False(t, ok)
}

func TestPwmEventRoundTrip(t *testing.T) {
	e := PwmEvent{TimestampNs: 42, Chip: 1, Channel: 2, PeriodNs: 20000, DutyNs: 5000, Polarity: 1, Enabled: 1}
	buf := e.Encode()
	require.Len(t, buf, PwmEventSize)

	got, ok := DecodePwmEvent(buf)
	require.True(t, ok)
	require.Equal(t, e, got)
}

func TestIioEventRoundTrip(t *testing.T) {
	e := IioEvent{TimestampNs: 99, DeviceID: 3, Channel: 0, Value: 512, Scale: 1000, Offset: 0}
	buf := e.Encode()
	require.Len(t, buf, IioEventSize)

	got, ok := DecodeIioEvent(buf)
	require.True(t, ok)
	require.Equal(t, e, got)
}

func TestSyscallContextRoundTrip(t *testing.T) {
	c := SyscallContext{Nr: 57, Args: [6]uint64{1, 2, 3, 4, 5, 6}}
	buf := c.Encode()
	require.Len(t, buf, SyscallContextSize)

	got, ok := DecodeSyscallContext(buf)
	require.True(t, ok)
	require.Equal(t, c, got)
}

func TestSyscallContextDecodeTooShort(t *testing.T) {
	_, ok := DecodeSyscallContext(make([]byte, SyscallContextSize-1))
	require.False(t, ok)
}
