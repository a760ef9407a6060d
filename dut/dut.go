// Package dut defines what a test bench needs from a device under test and
// the faults that the bundled device models can inject.
//
// A device is evaluated once per rising edge of the bench clock. Inputs are
// read as they were driven before the edge and outputs are updated for the
// bench to sample after it.
package dut

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/verikit/pin"
)

// PinReset is the active-high reset input every device has.
const PinReset = "rst"

// A Device is a pin-level model of the hardware under test.
type Device interface {
	Name() string
	Pins() *pin.Interface
	Eval()
}

// A Fault is a defect a device model can be built with.
type Fault int

// Supported faults.
const (
	FaultNone Fault = iota

	// FaultStuckBit forces bit 0 of every data output high.
	FaultStuckBit

	// FaultNoDone suppresses every completion pulse.
	FaultNoDone

	// FaultCorruptRead inverts every data output.
	FaultCorruptRead

	// FaultNack refuses every request with an acknowledge error. Only
	// devices with an acknowledge output honor it.
	FaultNack
)

var faultNames = map[Fault]string{
	FaultNone:        "none",
	FaultStuckBit:    "stuck-bit",
	FaultNoDone:      "no-done",
	FaultCorruptRead: "corrupt-read",
	FaultNack:        "nack",
}

// ErrUnknownFault is returned when parsing an unknown fault name.
var ErrUnknownFault = errors.New("dut: unknown fault")

func (f Fault) String() string {
	if name, ok := faultNames[f]; ok {
		return name
	}

	return fmt.Sprintf("fault(%d)", int(f))
}

// ParseFault converts a fault name into a Fault. The empty string means
// FaultNone.
func ParseFault(s string) (Fault, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FaultNone, nil
	}

	for f, name := range faultNames {
		if name == s {
			return f, nil
		}
	}

	return FaultNone, fmt.Errorf("%w: %q", ErrUnknownFault, s)
}

// FaultNames lists the names ParseFault accepts.
func FaultNames() []string {
	return []string{
		FaultNone.String(),
		FaultStuckBit.String(),
		FaultNoDone.String(),
		FaultCorruptRead.String(),
		FaultNack.String(),
	}
}

// Data applies the fault to a data output that is width bits wide.
func (f Fault) Data(v uint64, width int) uint64 {
	mask := uint64(1)<<width - 1

	switch f {
	case FaultStuckBit:
		return (v | 1) & mask
	case FaultCorruptRead:
		return ^v & mask
	default:
		return v & mask
	}
}

// Done tells if a completion pulse may be raised.
func (f Fault) Done() bool {
	return f != FaultNoDone
}

// Nack tells if requests are refused.
func (f Fault) Nack() bool {
	return f == FaultNack
}

// A ClockDivider derives a slower clock by toggling a signal every Half
// cycles of the bench clock.
type ClockDivider struct {
	Half  int
	count int
}

// Step advances the divider by one bench clock edge.
func (d *ClockDivider) Step(s *pin.Signal) {
	d.count++
	if d.count < d.Half {
		return
	}

	d.count = 0
	s.SetBit(!s.Bit())
}

// Reset puts the derived clock low.
func (d *ClockDivider) Reset(s *pin.Signal) {
	d.count = 0
	s.Set(0)
}
