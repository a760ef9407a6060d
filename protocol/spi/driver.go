// Package spi provides the driver, monitor and loopback model for the serial
// loopback device.
package spi

import (
	"log"

	"github.com/sarchlab/verikit/bench"
	device "github.com/sarchlab/verikit/dut/spi"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

type driverState int

const (
	driverIdle driverState = iota
	driverWaitSclk
	driverWaitDone
)

// Driver presents din with newd until the device samples it at a rising edge
// of sclk, then waits for the looped back word.
type Driver struct {
	newd, din  *pin.Signal
	dout, done pin.Probe
	sclk       pin.Probe

	waiter *pin.Waiter
	logger *log.Logger

	state   driverState
	current *txn.Transaction
}

// NewDriver binds a driver to the pins of a serial loopback device.
func NewDriver(pins *pin.Interface, cfg bench.AgentConfig) (*Driver, error) {
	cfg = cfg.Normalize()
	b := pin.NewBinder(pins)

	d := &Driver{
		newd:   b.Signal(device.PinNewData),
		din:    b.Signal(device.PinDataIn),
		dout:   b.Probe(device.PinDataOut),
		done:   b.Probe(device.PinDone),
		sclk:   b.Probe(device.PinSclk),
		waiter: pin.NewWaiter(cfg.MaxWaitCycles),
		logger: cfg.Logger,
	}

	if err := b.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

// Reset drives the idle values.
func (d *Driver) Reset() {
	d.newd.Set(0)
	d.din.Set(0)
	d.waiter.Disarm()
	d.state = driverIdle
	d.current = nil
}

// Start presents the word and waits for the next sclk rise.
func (d *Driver) Start(t *txn.Transaction) {
	d.current = t
	d.din.Set(t.DataIn)
	d.newd.Set(1)
	d.waiter.Arm(d.sclk, pin.Rising)
	d.state = driverWaitSclk
}

// Step advances the transfer by one cycle.
func (d *Driver) Step() (bool, error) {
	switch d.state {
	case driverWaitSclk:
		ok, err := d.waiter.Poll()
		if err != nil || !ok {
			return false, err
		}

		d.newd.Set(0)
		d.waiter.Arm(d.done, pin.Rising)
		d.state = driverWaitDone

		return false, nil
	case driverWaitDone:
		ok, err := d.waiter.Poll()
		if err != nil || !ok {
			return false, err
		}

		d.current.DataOut = d.dout.Get()
		d.logger.Printf("[DRV] : DATA SENT %d RCVD %d",
			d.current.DataIn, d.current.DataOut)
		d.state = driverIdle

		return true, nil
	default:
		return true, nil
	}
}

// Abort drops newd and the pending wait.
func (d *Driver) Abort() {
	d.newd.Set(0)
	d.waiter.Disarm()
	d.state = driverIdle
	d.current = nil
}
