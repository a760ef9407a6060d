// Package regbus models an addressed register bus device. A write or a read
// is requested by raising newd with op, addr and din set. The device stays
// busy for a fixed number of cycles and then pulses done for one cycle. A
// read result is on dout when done rises. A refused request raises ack_err
// together with done and leaves the registers and dout untouched.
package regbus

import (
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
)

// Pin names.
const (
	PinNewData = "newd"
	PinOp      = "op"
	PinAddr    = "addr"
	PinDataIn  = "din"
	PinDataOut = "dout"
	PinDone    = "done"
	PinBusy    = "busy"
	PinAckErr  = "ack_err"
)

// Widths of the buses.
const (
	AddrWidth = 7
	DataWidth = 8
)

// Op values on the op pin.
const (
	OpWrite = 0
	OpRead  = 1
)

type state int

const (
	stateIdle state = iota
	stateBusy
)

// Device is a register file behind a handshake bus. Every register holds its
// own address after reset.
type Device struct {
	name  string
	pins  *pin.Interface
	fault dut.Fault

	rst, newd, op, addr, din *pin.Signal
	dout, done, busy, ackErr *pin.Signal

	latency int
	mem     []uint64

	state     state
	remaining int
	lastNewd  bool
	curOp     uint64
	curAddr   uint64
	curData   uint64
}

// Name returns the name of the device.
func (d *Device) Name() string {
	return d.name
}

// Pins returns the pin interface of the device.
func (d *Device) Pins() *pin.Interface {
	return d.pins
}

// Peek returns the content of a register without going through the bus.
func (d *Device) Peek(addr uint64) uint64 {
	return d.mem[addr]
}

// Busy tells if an operation is in progress.
func (d *Device) Busy() bool {
	return d.state == stateBusy
}

// Eval advances the device by one clock edge.
func (d *Device) Eval() {
	d.done.Set(0)

	if d.rst.Bit() {
		d.reset()
		return
	}

	newdRose := d.newd.Bit() && !d.lastNewd
	d.lastNewd = d.newd.Bit()

	switch d.state {
	case stateIdle:
		if newdRose {
			d.accept()
		}
	case stateBusy:
		d.remaining--
		if d.remaining <= 0 {
			d.complete()
		}
	}
}

func (d *Device) reset() {
	for i := range d.mem {
		d.mem[i] = uint64(i)
	}

	d.state = stateIdle
	d.lastNewd = false
	d.dout.Set(0)
	d.busy.Set(0)
	d.ackErr.Set(0)
}

func (d *Device) accept() {
	d.curOp = d.op.Get()
	d.curAddr = d.addr.Get()
	d.curData = d.din.Get()
	d.remaining = d.latency
	d.state = stateBusy
	d.busy.Set(1)
	d.ackErr.Set(0)
}

func (d *Device) complete() {
	switch {
	case d.fault.Nack():
		d.ackErr.Set(1)
	case d.curOp == OpWrite:
		d.mem[d.curAddr] = d.curData
	default:
		d.dout.Set(d.fault.Data(d.mem[d.curAddr], DataWidth))
	}

	d.state = stateIdle
	d.busy.Set(0)

	if d.fault.Done() {
		d.done.Set(1)
	}
}
