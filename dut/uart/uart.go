// Package uart models a duplex 8N1 serial framer with separate transmit and
// receive clocks derived from the bench clock.
//
// On the transmit side, newd high at a rising edge of uclk_tx loads dintx.
// The frame follows on tx one bit per uclk_tx edge: a start bit, eight data
// bits LSB first and a stop bit, together with a donetx pulse. On the
// receive side, rx low at a rising edge of uclk_rx starts a frame; the next
// eight edges shift in data bits LSB first and the edge after that puts the
// byte on doutrx with a donerx pulse.
package uart

import (
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
)

// Pin names.
const (
	PinNewData   = "newd"
	PinDataInTx  = "dintx"
	PinTx        = "tx"
	PinRx        = "rx"
	PinDataOutRx = "doutrx"
	PinDoneTx    = "donetx"
	PinDoneRx    = "donerx"
	PinClockTx   = "uclk_tx"
	PinClockRx   = "uclk_rx"
)

// FrameBits is the number of data bits in a frame.
const FrameBits = 8

type txState int

const (
	txIdle txState = iota
	txStart
	txData
	txStop
)

type rxState int

const (
	rxIdle rxState = iota
	rxData
	rxStop
)

// Device is a duplex serial framer.
type Device struct {
	name  string
	pins  *pin.Interface
	fault dut.Fault

	rst, newd, dintx, rx *pin.Signal
	tx, doutrx           *pin.Signal
	donetx, donerx       *pin.Signal
	uclkTx, uclkRx       *pin.Signal

	txDivider dut.ClockDivider
	rxDivider dut.ClockDivider

	txState txState
	txData  uint64
	txBit   int

	rxState rxState
	rxData  uint64
	rxBit   int
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
	d.donetx.Set(0)
	d.donerx.Set(0)

	if d.rst.Bit() {
		d.reset()
		return
	}

	d.txDivider.Step(d.uclkTx)
	d.rxDivider.Step(d.uclkRx)

	if d.uclkTx.Rose() {
		d.evalTx()
	}

	if d.uclkRx.Rose() {
		d.evalRx()
	}
}

func (d *Device) evalTx() {
	switch d.txState {
	case txIdle:
		d.tx.Set(1)

		if d.newd.Bit() {
			d.txData = d.fault.Data(d.dintx.Get(), FrameBits)
			d.txState = txStart
		}
	case txStart:
		d.tx.Set(0)
		d.txBit = 0
		d.txState = txData
	case txData:
		d.tx.Set(d.txData >> d.txBit & 1)
		d.txBit++

		if d.txBit == FrameBits {
			d.txState = txStop
		}
	case txStop:
		d.tx.Set(1)
		d.txState = txIdle

		if d.fault.Done() {
			d.donetx.Set(1)
		}
	}
}

func (d *Device) evalRx() {
	switch d.rxState {
	case rxIdle:
		if !d.rx.Bit() {
			d.rxData = 0
			d.rxBit = 0
			d.rxState = rxData
		}
	case rxData:
		d.rxData |= d.rx.Get() << d.rxBit
		d.rxBit++

		if d.rxBit == FrameBits {
			d.rxState = rxStop
		}
	case rxStop:
		d.doutrx.Set(d.fault.Data(d.rxData, FrameBits))
		d.rxState = rxIdle

		if d.fault.Done() {
			d.donerx.Set(1)
		}
	}
}

func (d *Device) reset() {
	d.txDivider.Reset(d.uclkTx)
	d.rxDivider.Reset(d.uclkRx)
	d.txState = txIdle
	d.rxState = rxIdle
	d.tx.Set(1)
	d.doutrx.Set(0)
}
