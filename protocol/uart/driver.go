// Package uart provides the driver, monitor and stream model for the duplex
// serial framer.
//
// A transmit loads dintx and lets the device send the frame on tx. A receive
// drives a frame on rx bit by bit and lets the device decode it on doutrx.
// The driver publishes the word it put on the wire so the scoreboard can
// compare it with the word the monitor decodes from the other side.
package uart

import (
	"log"

	"github.com/sarchlab/verikit/bench"
	device "github.com/sarchlab/verikit/dut/uart"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

type driverState int

const (
	driverIdle driverState = iota
	txArm
	txLoad
	txDone
	rxArm
	rxStart
	rxBits
	rxDone
)

// Driver drives transmit and receive frames.
type Driver struct {
	newd, dintx, rx *pin.Signal
	uclkTx, uclkRx  pin.Probe
	donetx, donerx  pin.Probe

	waiter  *pin.Waiter
	logger  *log.Logger
	applied *bench.Channel

	state   driverState
	current *txn.Transaction
	bit     int
	acc     uint64
}

// NewDriver binds a driver to the pins of a duplex serial framer.
func NewDriver(pins *pin.Interface, cfg bench.AgentConfig) (*Driver, error) {
	cfg = cfg.Normalize()
	b := pin.NewBinder(pins)

	d := &Driver{
		newd:   b.Signal(device.PinNewData),
		dintx:  b.Signal(device.PinDataInTx),
		rx:     b.Signal(device.PinRx),
		uclkTx: b.Probe(device.PinClockTx),
		uclkRx: b.Probe(device.PinClockRx),
		donetx: b.Probe(device.PinDoneTx),
		donerx: b.Probe(device.PinDoneRx),
		waiter: pin.NewWaiter(cfg.MaxWaitCycles),
		logger: cfg.Logger,
	}

	if err := b.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

// PublishTo sets the channel that receives the applied words.
func (d *Driver) PublishTo(ch *bench.Channel) {
	d.applied = ch
}

// Reset drives the idle values. The rx line idles high.
func (d *Driver) Reset() {
	d.newd.Set(0)
	d.dintx.Set(0)
	d.rx.Set(1)
	d.waiter.Disarm()
	d.state = driverIdle
	d.current = nil
}

// Start waits for the clock of the direction the transaction uses.
func (d *Driver) Start(t *txn.Transaction) {
	d.current = t
	d.bit = 0
	d.acc = 0

	if t.Op == txn.OpReceive {
		d.waiter.Arm(d.uclkRx, pin.Rising)
		d.state = rxArm

		return
	}

	d.waiter.Arm(d.uclkTx, pin.Rising)
	d.state = txArm
}

// Step advances the frame by one cycle.
func (d *Driver) Step() (bool, error) {
	if d.state == driverIdle {
		return true, nil
	}

	ok, err := d.waiter.Poll()
	if err != nil || !ok {
		return false, err
	}

	switch d.state {
	case txArm:
		d.newd.Set(1)
		d.rx.Set(1)
		d.dintx.Set(d.current.DataIn)
		d.waiter.Arm(d.uclkTx, pin.Rising)
		d.state = txLoad
	case txLoad:
		d.newd.Set(0)
		d.publish(d.current.DataIn)
		d.logger.Printf("[DRV] : Data Transmitted %d", d.current.DataIn)
		d.waiter.Arm(d.donetx, pin.Rising)
		d.state = txDone
	case rxArm:
		d.newd.Set(0)
		d.rx.Set(0)
		d.waiter.Arm(d.uclkRx, pin.Rising)
		d.state = rxStart
	case rxStart, rxBits:
		d.presentBit()
	default:
		return d.finish(), nil
	}

	return false, nil
}

func (d *Driver) presentBit() {
	b := d.current.DataIn >> d.bit & 1
	d.rx.Set(b)
	d.acc = d.acc<<1 | b
	d.bit++
	d.state = rxBits

	if d.bit < device.FrameBits {
		d.waiter.Arm(d.uclkRx, pin.Rising)
		return
	}

	sent := reverseBits(d.acc, device.FrameBits)
	d.publish(sent)
	d.logger.Printf("[DRV] : Data RCVD %d", sent)
	d.waiter.Arm(d.donerx, pin.Rising)
	d.state = rxDone
}

func (d *Driver) finish() bool {
	if d.state == rxDone {
		d.rx.Set(1)
	}

	d.state = driverIdle
	d.current = nil

	return true
}

func (d *Driver) publish(word uint64) {
	if d.applied == nil {
		return
	}

	t := d.current.Clone()
	t.DataIn = word
	d.applied.Push(t)
}

// Abort returns the lines to idle and drops the pending wait.
func (d *Driver) Abort() {
	d.newd.Set(0)
	d.rx.Set(1)
	d.waiter.Disarm()
	d.state = driverIdle
	d.current = nil
}

// reverseBits returns the low n bits of v in reverse order.
func reverseBits(v uint64, n int) uint64 {
	var r uint64
	for i := 0; i < n; i++ {
		r = r<<1 | v>>i&1
	}

	return r
}
