// Package spi models a serial loopback device. A transfer starts when newd is
// high at a rising edge of the serial clock sclk. The device shifts din out
// MSB first, loops every bit back to its receive register and pulses done
// with the received word on dout.
package spi

import (
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
)

// Pin names.
const (
	PinNewData = "newd"
	PinDataIn  = "din"
	PinDataOut = "dout"
	PinDone    = "done"
	PinSclk    = "sclk"
)

// DataWidth is the number of bits in a transfer.
const DataWidth = 12

type state int

const (
	stateIdle state = iota
	stateShift
	stateFinish
)

// Device is a serial loopback device with its own serial clock.
type Device struct {
	name  string
	pins  *pin.Interface
	fault dut.Fault

	rst, newd, din   *pin.Signal
	dout, done, sclk *pin.Signal

	divider dut.ClockDivider

	state state
	data  uint64
	rx    uint64
	count int
}

// Name returns the name of the device.
func (d *Device) Name() string {
	return d.name
}

// Pins returns the pin interface of the device.
func (d *Device) Pins() *pin.Interface {
	return d.pins
}

// Eval advances the device by one clock edge.
func (d *Device) Eval() {
	d.done.Set(0)

	if d.rst.Bit() {
		d.reset()
		return
	}

	d.divider.Step(d.sclk)
	if !d.sclk.Rose() {
		return
	}

	switch d.state {
	case stateIdle:
		if d.newd.Bit() {
			d.data = d.din.Get()
			d.rx = 0
			d.count = 0
			d.state = stateShift
		}
	case stateShift:
		bit := (d.data >> (DataWidth - 1 - d.count)) & 1
		d.rx = d.rx<<1 | bit
		d.count++

		if d.count == DataWidth {
			d.state = stateFinish
		}
	case stateFinish:
		d.dout.Set(d.fault.Data(d.rx, DataWidth))
		d.state = stateIdle

		if d.fault.Done() {
			d.done.Set(1)
		}
	}
}

func (d *Device) reset() {
	d.divider.Reset(d.sclk)
	d.state = stateIdle
	d.dout.Set(0)
}
