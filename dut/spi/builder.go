package spi

import (
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
)

// A Builder can build serial loopback devices.
type Builder struct {
	sclkHalfPeriod int
	fault          dut.Fault
}

// MakeBuilder returns a Builder whose serial clock runs at one eighth of the
// bench clock.
func MakeBuilder() Builder {
	return Builder{
		sclkHalfPeriod: 4,
	}
}

// WithSclkHalfPeriod sets the number of bench clock cycles between two
// toggles of sclk.
func (b Builder) WithSclkHalfPeriod(cycles int) Builder {
	b.sclkHalfPeriod = cycles
	return b
}

// WithFault sets the fault the device is built with.
func (b Builder) WithFault(f dut.Fault) Builder {
	b.fault = f
	return b
}

// Build creates a new device.
func (b Builder) Build(name string) *Device {
	if b.sclkHalfPeriod <= 0 {
		panic("spi: sclk half period must be positive")
	}

	d := &Device{
		name:    name,
		pins:    pin.NewInterface(name),
		fault:   b.fault,
		divider: dut.ClockDivider{Half: b.sclkHalfPeriod},
	}

	d.rst = d.pins.Add(dut.PinReset, 1, pin.In)
	d.newd = d.pins.Add(PinNewData, 1, pin.In)
	d.din = d.pins.Add(PinDataIn, DataWidth, pin.In)
	d.dout = d.pins.Add(PinDataOut, DataWidth, pin.Out)
	d.done = d.pins.Add(PinDone, 1, pin.Out)
	d.sclk = d.pins.Add(PinSclk, 1, pin.Out)

	return d
}
