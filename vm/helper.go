package vm

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/bytecode"
)

// HelperFunc is the signature every helper exposes: five 64-bit arguments
// (r1..r5 at the call site), one 64-bit return value (written to r0).
type HelperFunc func(a1, a2, a3, a4, a5 uint64) uint64

// HelperTable is the process-wide identifier-to-function mapping. The
// verifier has already checked that a program only calls helpers on its
// program type's allowlist; the interpreter trusts that and just dispatches.
//
// Map and ring-buffer helpers (HelperMapLookupElem, HelperMapUpdateElem,
// HelperMapDeleteElem, HelperRingBufOutput, HelperTimeSeriesPush) are not
// entered here: their arguments are pointers into the program's stack or
// context region, which only the interpreter can translate into byte
// slices, so it dispatches those natively against the map registry rather
// than through this table.
type HelperTable map[bytecode.HelperID]HelperFunc

// GpioDevice is the minimal device surface the GPIO helpers bridge to.
type GpioDevice interface {
	ReadLine(chip, line uint32) (uint32, error)
	WriteLine(chip, line, value uint32) error
}

// PwmDevice is the minimal device surface the PWM helper bridges to.
type PwmDevice interface {
	Write(chip, channel, dutyNs uint32) error
}

// Devices bundles the external collaborators a helper table may bridge to.
// Any device field left nil leaves its helpers out of the table, so a
// program that calls one ends its dispatch with an InvalidHelper error.
type Devices struct {
	GPIO            GpioDevice
	PWM             PwmDevice
	EmergencyStop   func() error
	Log             *logrus.Logger
	clock           func() time.Time // overridable in tests
}

func negStatus(err error) uint64 {
	if err == nil {
		return 0
	}
	return uint64(0xFFFFFFFFFFFFFFFF) // -1 as unsigned 64-bit: negative encodes error
}

// NewHelperTable builds the default helper set, wiring the device-facing
// helpers to devs. reg is not consulted: the map and ring-buffer helpers are
// dispatched by the interpreter against its own registry. Helpers not
// meaningful for a given deployment may be omitted by passing a zero-value
// Devices; missing device backends degrade gracefully rather than panic.
func NewHelperTable(reg *bpfmap.Registry, devs Devices) HelperTable {
	if devs.Log == nil {
		devs.Log = logrus.StandardLogger()
	}
	now := devs.clock
	if now == nil {
		now = time.Now
	}

	t := make(HelperTable)

	t[bytecode.HelperKtimeGetNs] = func(a1, a2, a3, a4, a5 uint64) uint64 {
		return uint64(now().UnixNano())
	}

	t[bytecode.HelperTracePrintk] = func(a1, a2, a3, a4, a5 uint64) uint64 {
		devs.Log.WithFields(logrus.Fields{"a1": a1, "a2": a2, "a3": a3}).Debug("trace_printk")
		return 0
	}

	t[bytecode.HelperGetPrandomU32] = func(a1, a2, a3, a4, a5 uint64) uint64 {
		return uint64(now().UnixNano()) & 0xFFFFFFFF
	}

	t[bytecode.HelperGetSmpProcessorID] = func(a1, a2, a3, a4, a5 uint64) uint64 {
		return 0
	}

	if devs.GPIO != nil {
		t[bytecode.HelperGpioRead] = func(a1, a2, a3, a4, a5 uint64) uint64 {
			v, err := devs.GPIO.ReadLine(uint32(a1), uint32(a2))
			if err != nil {
				return negStatus(err)
			}
			return uint64(v)
		}
		t[bytecode.HelperGpioWrite] = func(a1, a2, a3, a4, a5 uint64) uint64 {
			err := devs.GPIO.WriteLine(uint32(a1), uint32(a2), uint32(a3))
			return negStatus(err)
		}
	}

	if devs.PWM != nil {
		t[bytecode.HelperPwmWrite] = func(a1, a2, a3, a4, a5 uint64) uint64 {
			err := devs.PWM.Write(uint32(a1), uint32(a2), uint32(a3))
			return negStatus(err)
		}
	}

	if devs.EmergencyStop != nil {
		t[bytecode.HelperEmergencyMotorStop] = func(a1, a2, a3, a4, a5 uint64) uint64 {
			err := devs.EmergencyStop()
			devs.Log.WithError(err).Warn("emergency motor stop invoked")
			return negStatus(err)
		}
	}

	return t
}
