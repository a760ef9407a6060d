package spi

import (
	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/dut"
	device "github.com/sarchlab/verikit/dut/spi"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

// NewDevice builds the serial loopback device model.
func NewDevice(fault dut.Fault) dut.Device {
	return device.MakeBuilder().WithFault(fault).Build("SPI")
}

// NewAgent binds a driver, a monitor and a loopback model to the pins.
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
		Model:   LoopbackModel{},
	}, nil
}

// DefaultSpec randomizes a full width word.
func DefaultSpec() *crv.Spec {
	return crv.NewSpec().
		Rand(txn.FieldDin, crv.Range(0, 1<<device.DataWidth-1))
}
