package regbus

import (
	device "github.com/sarchlab/verikit/dut/regbus"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

// Monitor rebuilds a transaction from the bus every time done rises.
type Monitor struct {
	op, addr, din, dout pin.Probe
	done, busy, ackErr  pin.Probe
}

// NewMonitor binds a monitor to the pins of a register bus device.
func NewMonitor(pins *pin.Interface) (*Monitor, error) {
	b := pin.NewBinder(pins)

	m := &Monitor{
		op:     b.Probe(device.PinOp),
		addr:   b.Probe(device.PinAddr),
		din:    b.Probe(device.PinDataIn),
		dout:   b.Probe(device.PinDataOut),
		done:   b.Probe(device.PinDone),
		busy:   b.Probe(device.PinBusy),
		ackErr: b.Probe(device.PinAckErr),
	}

	if err := b.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

// Reset does nothing as the monitor keeps no state.
func (m *Monitor) Reset() {}

// Sample returns the completed transaction in the cycle done rises.
func (m *Monitor) Sample() (*txn.Transaction, error) {
	if !m.done.Rose() {
		return nil, nil
	}

	t := txn.New()
	t.Op = txn.OpWrite

	if m.op.Get() == device.OpRead {
		t.Op = txn.OpRead
	}

	t.Addr = m.addr.Get()
	t.DataIn = m.din.Get()
	t.DataOut = m.dout.Get()
	t.Busy = m.busy.Bit()
	t.AckErr = m.ackErr.Bit()

	return t, nil
}
