package uart

import (
	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/dut"
	device "github.com/sarchlab/verikit/dut/uart"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

// NewDevice builds the duplex serial framer model.
func NewDevice(fault dut.Fault) dut.Device {
	return device.MakeBuilder().WithFault(fault).Build("UART")
}

// NewAgent binds a driver, a monitor and a stream model to the pins. The
// driver also publishes the applied words.
func NewAgent(pins *pin.Interface, cfg bench.AgentConfig) (bench.Agent, error) {
	drv, err := NewDriver(pins, cfg)
	if err != nil {
		return bench.Agent{}, err
	}

	mon, err := NewMonitor(pins, cfg)
	if err != nil {
		return bench.Agent{}, err
	}

	return bench.Agent{
		Driver:  drv,
		Monitor: mon,
		Model:   StreamModel{},
		Applied: drv,
	}, nil
}

// DefaultSpec randomizes the direction and the word.
func DefaultSpec() *crv.Spec {
	return crv.NewSpec().
		Rand(txn.FieldOp, crv.Values(uint64(txn.OpTransmit), uint64(txn.OpReceive))).
		Rand(txn.FieldDin, crv.Range(0, 1<<device.FrameBits-1))
}
