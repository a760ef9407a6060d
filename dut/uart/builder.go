package uart

import (
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
)

// A Builder can build serial framers.
type Builder struct {
	txHalfPeriod int
	rxHalfPeriod int
	fault        dut.Fault
}

// MakeBuilder returns a Builder whose transmit and receive clocks both run
// at one sixteenth of the bench clock, in phase.
func MakeBuilder() Builder {
	return Builder{
		txHalfPeriod: 8,
		rxHalfPeriod: 8,
	}
}

// WithTxHalfPeriod sets the number of bench clock cycles between two toggles
// of uclk_tx.
func (b Builder) WithTxHalfPeriod(cycles int) Builder {
	b.txHalfPeriod = cycles
	return b
}

// WithRxHalfPeriod sets the number of bench clock cycles between two toggles
// of uclk_rx.
func (b Builder) WithRxHalfPeriod(cycles int) Builder {
	b.rxHalfPeriod = cycles
	return b
}

// WithFault sets the fault the device is built with.
func (b Builder) WithFault(f dut.Fault) Builder {
	b.fault = f
	return b
}

// Build creates a new device.
func (b Builder) Build(name string) *Device {
	if b.txHalfPeriod <= 0 || b.rxHalfPeriod <= 0 {
		panic("uart: clock half periods must be positive")
	}

	d := &Device{
		name:      name,
		pins:      pin.NewInterface(name),
		fault:     b.fault,
		txDivider: dut.ClockDivider{Half: b.txHalfPeriod},
		rxDivider: dut.ClockDivider{Half: b.rxHalfPeriod},
	}

	d.rst = d.pins.Add(dut.PinReset, 1, pin.In)
	d.newd = d.pins.Add(PinNewData, 1, pin.In)
	d.dintx = d.pins.Add(PinDataInTx, FrameBits, pin.In)
	d.rx = d.pins.Add(PinRx, 1, pin.In)
	d.tx = d.pins.Add(PinTx, 1, pin.Out)
	d.doutrx = d.pins.Add(PinDataOutRx, FrameBits, pin.Out)
	d.donetx = d.pins.Add(PinDoneTx, 1, pin.Out)
	d.donerx = d.pins.Add(PinDoneRx, 1, pin.Out)
	d.uclkTx = d.pins.Add(PinClockTx, 1, pin.Out)
	d.uclkRx = d.pins.Add(PinClockRx, 1, pin.Out)

	d.rx.Set(1)
	d.tx.Set(1)

	return d
}
