// Package event defines the wire layout of the context buffers event
// sources hand to dispatch: fixed little-endian structs per attachment
// type, encoded into the byte slice a program's context points at.
package event

import "encoding/binary"

// GpioEvent is the 24-byte context laid down by a GPIO edge attachment.
type GpioEvent struct {
	TimestampNs uint64
	Chip        uint32
	Line        uint32
	Edge        uint32
	Value       uint32
}

const GpioEventSize = 24

// Encode serialises e into a freshly allocated 24-byte little-endian buffer.
func (e GpioEvent) Encode() []byte {
	buf := make([]byte, GpioEventSize)
	binary.LittleEndian.PutUint64(buf[0:8], e.TimestampNs)
	binary.LittleEndian.PutUint32(buf[8:12], e.Chip)
	binary.LittleEndian.PutUint32(buf[12:16], e.Line)
	binary.LittleEndian.PutUint32(buf[16:20], e.Edge)
	binary.LittleEndian.PutUint32(buf[20:24], e.Value)
	return buf
}

// DecodeGpioEvent parses a GpioEvent out of buf, failing if it is short.
func DecodeGpioEvent(buf []byte) (GpioEvent, bool) {
	if len(buf) < GpioEventSize {
		return GpioEvent{}, false
	}
	return GpioEvent{
		TimestampNs: binary.LittleEndian.Uint64(buf[0:8]),
		Chip:        binary.LittleEndian.Uint32(buf[8:12]),
		Line:        binary.LittleEndian.Uint32(buf[12:16]),
		Edge:        binary.LittleEndian.Uint32(buf[16:20]),
		Value:       binary.LittleEndian.Uint32(buf[20:24]),
	}, true
}

// PwmEvent is the 32-byte context laid down by a PWM-change attachment.
type PwmEvent struct {
	TimestampNs uint64
	Chip        uint32
	Channel     uint32
	PeriodNs    uint32
	DutyNs      uint32
	Polarity    uint32
	Enabled     uint32
}

const PwmEventSize = 32

func (e PwmEvent) Encode() []byte {
	buf := make([]byte, PwmEventSize)
	binary.LittleEndian.PutUint64(buf[0:8], e.TimestampNs)
	binary.LittleEndian.PutUint32(buf[8:12], e.Chip)
	binary.LittleEndian.PutUint32(buf[12:16], e.Channel)
	binary.LittleEndian.PutUint32(buf[16:20], e.PeriodNs)
	binary.LittleEndian.PutUint32(buf[20:24], e.DutyNs)
	binary.LittleEndian.PutUint32(buf[24:28], e.Polarity)
	binary.LittleEndian.PutUint32(buf[28:32], e.Enabled)
	return buf
}

func DecodePwmEvent(buf []byte) (PwmEvent, bool) {
	if len(buf) < PwmEventSize {
		return PwmEvent{}, false
	}
	return PwmEvent{
		TimestampNs: binary.LittleEndian.Uint64(buf[0:8]),
		Chip:        binary.LittleEndian.Uint32(buf[8:12]),
		Channel:     binary.LittleEndian.Uint32(buf[12:16]),
		PeriodNs:    binary.LittleEndian.Uint32(buf[16:20]),
		DutyNs:      binary.LittleEndian.Uint32(buf[20:24]),
		Polarity:    binary.LittleEndian.Uint32(buf[24:28]),
		Enabled:     binary.LittleEndian.Uint32(buf[28:32]),
	}, true
}

// IioEvent is the 32-byte context laid down by an IIO-sample attachment.
type IioEvent struct {
	TimestampNs uint64
	DeviceID    uint32
	Channel     uint32
	Value       uint32
	Scale       uint32
	Offset      uint32
}

const IioEventSize = 32

func (e IioEvent) Encode() []byte {
	buf := make([]byte, IioEventSize)
	binary.LittleEndian.PutUint64(buf[0:8], e.TimestampNs)
	binary.LittleEndian.PutUint32(buf[8:12], e.DeviceID)
	binary.LittleEndian.PutUint32(buf[12:16], e.Channel)
	binary.LittleEndian.PutUint32(buf[16:20], e.Value)
	binary.LittleEndian.PutUint32(buf[20:24], e.Scale)
	binary.LittleEndian.PutUint32(buf[24:28], e.Offset)
	// byte 28:32 is padding, kept zero so the layout stays a fixed 32 bytes
	return buf
}

func DecodeIioEvent(buf []byte) (IioEvent, bool) {
	if len(buf) < IioEventSize {
		return IioEvent{}, false
	}
	return IioEvent{
		TimestampNs: binary.LittleEndian.Uint64(buf[0:8]),
		DeviceID:    binary.LittleEndian.Uint32(buf[8:12]),
		Channel:     binary.LittleEndian.Uint32(buf[12:16]),
		Value:       binary.LittleEndian.Uint32(buf[16:20]),
		Scale:       binary.LittleEndian.Uint32(buf[20:24]),
		Offset:      binary.LittleEndian.Uint32(buf[24:28]),
	}, true
}

// SyscallContext is the variable-length context laid down by a syscall-entry
// attachment: the syscall number followed by up to six argument registers.
type SyscallContext struct {
	Nr   uint64
	Args [6]uint64
}

const SyscallContextSize = 8 * 7

func (c SyscallContext) Encode() []byte {
	buf := make([]byte, SyscallContextSize)
	binary.LittleEndian.PutUint64(buf[0:8], c.Nr)
	for i, a := range c.Args {
		off := 8 + i*8
		binary.LittleEndian.PutUint64(buf[off:off+8], a)
	}
	return buf
}

func DecodeSyscallContext(buf []byte) (SyscallContext, bool) {
	if len(buf) < SyscallContextSize {
		return SyscallContext{}, false
	}
	c := SyscallContext{Nr: binary.LittleEndian.Uint64(buf[0:8])}
	for i := range c.Args {
		off := 8 + i*8
		c.Args[i] = binary.LittleEndian.Uint64(buf[off : off+8])
	}
	return c, true
}
