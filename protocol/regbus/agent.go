package regbus

import (
	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/dut"
	device "github.com/sarchlab/verikit/dut/regbus"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

// NewDevice builds the register bus device model.
func NewDevice(fault dut.Fault) dut.Device {
	return device.MakeBuilder().WithFault(fault).Build("RegBus")
}

// NewAgent binds a driver, a monitor and a memory model to the pins.
func NewAgent(pins *pin.Interface, cfg bench.AgentConfig) (bench.Agent, error) {
	drv, err := NewDriver(pins, cfg, DefaultStrobeCycles)
	if err != nil {
		return bench.Agent{}, err
	}

	mon, err := NewMonitor(pins)
	if err != nil {
		return bench.Agent{}, err
	}

	return bench.Agent{
		Driver:  drv,
		Monitor: mon,
		Model:   NewMemoryModel(1 << device.AddrWidth),
	}, nil
}

// DefaultSpec randomizes writes and reads of register 1 with data below 50.
func DefaultSpec() *crv.Spec {
	return crv.NewSpec().
		Rand(txn.FieldOp, crv.Values(uint64(txn.OpWrite), uint64(txn.OpRead))).
		Rand(txn.FieldAddr, crv.Range(0, 127)).
		Rand(txn.FieldDin, crv.Range(0, 255)).
		Constrain(
			crv.Equal(txn.FieldAddr, 1),
			crv.LessThan(txn.FieldDin, 50),
		)
}
