package uart

import (
	"github.com/sarchlab/verikit/bench"
	device "github.com/sarchlab/verikit/dut/uart"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

type monitorState int

const (
	monIdle monitorState = iota
	monTxSkip
	monTxBits
	monTxDone
	monRxDone
)

// Monitor decodes the frames the device sends on tx and the words it
// decodes on doutrx.
type Monitor struct {
	newd, tx, rx, doutrx pin.Probe
	uclkTx, uclkRx       pin.Probe
	donetx, donerx       pin.Probe

	waiter *pin.Waiter

	state monitorState
	bit   int
	acc   uint64
}

// NewMonitor binds a monitor to the pins of a duplex serial framer.
func NewMonitor(pins *pin.Interface, cfg bench.AgentConfig) (*Monitor, error) {
	cfg = cfg.Normalize()
	b := pin.NewBinder(pins)

	m := &Monitor{
		newd:   b.Probe(device.PinNewData),
		tx:     b.Probe(device.PinTx),
		rx:     b.Probe(device.PinRx),
		doutrx: b.Probe(device.PinDataOutRx),
		uclkTx: b.Probe(device.PinClockTx),
		uclkRx: b.Probe(device.PinClockRx),
		donetx: b.Probe(device.PinDoneTx),
		donerx: b.Probe(device.PinDoneRx),
		waiter: pin.NewWaiter(cfg.MaxWaitCycles),
	}

	if err := b.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

// Reset abandons a partial frame.
func (m *Monitor) Reset() {
	m.waiter.Disarm()
	m.state = monIdle
}

// Sample returns a transaction when a frame completes in either direction.
func (m *Monitor) Sample() (*txn.Transaction, error) {
	if m.state == monIdle {
		m.detectStart()
		return nil, nil
	}

	ok, err := m.waiter.Poll()
	if err != nil {
		m.state = monIdle
		return nil, err
	}

	if !ok {
		return nil, nil
	}

	switch m.state {
	case monTxSkip:
		m.bit = 0
		m.acc = 0
		m.state = monTxBits
		m.waiter.Arm(m.uclkTx, pin.Rising)
	case monTxBits:
		m.acc = m.acc<<1 | m.tx.Get()
		m.bit++

		if m.bit < device.FrameBits {
			m.waiter.Arm(m.uclkTx, pin.Rising)
			break
		}

		m.state = monTxDone
		m.waiter.Arm(m.donetx, pin.Rising)
	case monTxDone:
		m.state = monIdle

		t := txn.New()
		t.Op = txn.OpTransmit
		t.DataOut = reverseBits(m.acc, device.FrameBits)
		t.DoneTx = true

		return t, nil
	case monRxDone:
		m.state = monIdle

		t := txn.New()
		t.Op = txn.OpReceive
		t.DataOut = m.doutrx.Get()
		t.DoneRx = true

		return t, nil
	}

	return nil, nil
}

func (m *Monitor) detectStart() {
	switch {
	case m.uclkTx.Rose() && m.newd.Bit() && m.rx.Bit():
		m.state = monTxSkip
		m.waiter.Arm(m.uclkTx, pin.Rising)
	case m.uclkRx.Rose() && !m.rx.Bit() && !m.newd.Bit():
		m.state = monRxDone
		m.waiter.Arm(m.donerx, pin.Rising)
	}
}
