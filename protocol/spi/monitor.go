package spi

import (
	"github.com/sarchlab/verikit/bench"
	device "github.com/sarchlab/verikit/dut/spi"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

// Monitor captures din when a transfer starts and dout when it completes.
type Monitor struct {
	newd, din  pin.Probe
	dout, done pin.Probe
	sclk       pin.Probe

	waiter *pin.Waiter

	busy bool
	sent uint64
}

// NewMonitor binds a monitor to the pins of a serial loopback device.
func NewMonitor(pins *pin.Interface, cfg bench.AgentConfig) (*Monitor, error) {
	cfg = cfg.Normalize()
	b := pin.NewBinder(pins)

	m := &Monitor{
		newd:   b.Probe(device.PinNewData),
		din:    b.Probe(device.PinDataIn),
		dout:   b.Probe(device.PinDataOut),
		done:   b.Probe(device.PinDone),
		sclk:   b.Probe(device.PinSclk),
		waiter: pin.NewWaiter(cfg.MaxWaitCycles),
	}

	if err := b.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

// Reset abandons a partial observation.
func (m *Monitor) Reset() {
	m.waiter.Disarm()
	m.busy = false
}

// Sample returns a transfer in the cycle done rises.
func (m *Monitor) Sample() (*txn.Transaction, error) {
	if !m.busy {
		if m.sclk.Rose() && m.newd.Bit() {
			m.sent = m.din.Get()
			m.busy = true
			m.waiter.Arm(m.done, pin.Rising)
		}

		return nil, nil
	}

	ok, err := m.waiter.Poll()
	if err != nil {
		m.busy = false
		return nil, err
	}

	if !ok {
		return nil, nil
	}

	m.busy = false

	t := txn.New()
	t.DataIn = m.sent
	t.DataOut = m.dout.Get()

	return t, nil
}
