// Package regbus provides the driver, monitor and reference model for the
// addressed register bus.
package regbus

import (
	"log"

	"github.com/sarchlab/verikit/bench"
	device "github.com/sarchlab/verikit/dut/regbus"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

// DefaultStrobeCycles is the number of cycles newd is held high.
const DefaultStrobeCycles = 5

type driverState int

const (
	driverIdle driverState = iota
	driverStrobe
	driverWaitDone
)

// Driver drives one request at a time. It holds newd together with op,
// addr and din for a fixed number of cycles, then waits for done. A read
// result is taken from dout after done rises.
type Driver struct {
	newd, op, addr, din *pin.Signal
	dout, done          pin.Probe

	strobeCycles int
	waiter       *pin.Waiter
	logger       *log.Logger

	state   driverState
	held    int
	current *txn.Transaction
}

// NewDriver binds a driver to the pins of a register bus device.
func NewDriver(
	pins *pin.Interface,
	cfg bench.AgentConfig,
	strobeCycles int,
) (*Driver, error) {
	cfg = cfg.Normalize()
	b := pin.NewBinder(pins)

	d := &Driver{
		newd:         b.Signal(device.PinNewData),
		op:           b.Signal(device.PinOp),
		addr:         b.Signal(device.PinAddr),
		din:          b.Signal(device.PinDataIn),
		dout:         b.Probe(device.PinDataOut),
		done:         b.Probe(device.PinDone),
		strobeCycles: strobeCycles,
		waiter:       pin.NewWaiter(cfg.MaxWaitCycles),
		logger:       cfg.Logger,
	}

	if err := b.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

// Reset drives the idle values.
func (d *Driver) Reset() {
	d.newd.Set(0)
	d.op.Set(0)
	d.addr.Set(0)
	d.din.Set(0)
	d.state = driverIdle
	d.current = nil
}

// Start raises the strobe with the request fields.
func (d *Driver) Start(t *txn.Transaction) {
	d.current = t
	d.held = 0
	d.state = driverStrobe

	d.addr.Set(t.Addr)
	d.newd.Set(1)

	if t.Op == txn.OpRead {
		d.op.Set(device.OpRead)
		d.din.Set(0)

		return
	}

	d.op.Set(device.OpWrite)
	d.din.Set(t.DataIn)
}

// Step advances the request by one cycle.
func (d *Driver) Step() (bool, error) {
	switch d.state {
	case driverStrobe:
		d.held++
		if d.held >= d.strobeCycles {
			d.newd.Set(0)
			d.waiter.Arm(d.done, pin.Rising)
			d.state = driverWaitDone
		}

		return false, nil
	case driverWaitDone:
		ok, err := d.waiter.Poll()
		if err != nil || !ok {
			return false, err
		}

		d.state = driverIdle

		if d.current.Op == txn.OpRead {
			d.current.DataOut = d.dout.Get()
			d.logger.Printf("[DRV] : %s", d.current)
		}

		return true, nil
	default:
		return true, nil
	}
}

// Abort drops the strobe and the pending wait.
func (d *Driver) Abort() {
	d.newd.Set(0)
	d.waiter.Disarm()
	d.state = driverIdle
	d.current = nil
}
