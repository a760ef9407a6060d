package regbus

import (
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
)

// A Builder can build register bus devices.
type Builder struct {
	latency int
	fault   dut.Fault
}

// MakeBuilder returns a Builder with the default latency of 40 cycles.
func MakeBuilder() Builder {
	return Builder{
		latency: 40,
	}
}

// WithLatency sets the number of cycles an operation takes. It must be longer
// than the strobe the driver holds.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithFault sets the fault the device is built with.
func (b Builder) WithFault(f dut.Fault) Builder {
	b.fault = f
	return b
}

// Build creates a new device.
func (b Builder) Build(name string) *Device {
	if b.latency <= 0 {
		panic("regbus: latency must be positive")
	}

	d := &Device{
		name:    name,
		pins:    pin.NewInterface(name),
		fault:   b.fault,
		latency: b.latency,
		mem:     make([]uint64, 1<<AddrWidth),
	}

	d.rst = d.pins.Add(dut.PinReset, 1, pin.In)
	d.newd = d.pins.Add(PinNewData, 1, pin.In)
	d.op = d.pins.Add(PinOp, 1, pin.In)
	d.addr = d.pins.Add(PinAddr, AddrWidth, pin.In)
	d.din = d.pins.Add(PinDataIn, DataWidth, pin.In)
	d.dout = d.pins.Add(PinDataOut, DataWidth, pin.Out)
	d.done = d.pins.Add(PinDone, 1, pin.Out)
	d.busy = d.pins.Add(PinBusy, 1, pin.Out)
	d.ackErr = d.pins.Add(PinAckErr, 1, pin.Out)

	d.reset()

	return d
}
