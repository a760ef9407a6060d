// Package protocol registers the protocols a bench can verify. Each entry
// pairs a device model with the agent that drives and checks it.
package protocol

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/protocol/regbus"
	"github.com/sarchlab/verikit/protocol/spi"
	"github.com/sarchlab/verikit/protocol/uart"
	"github.com/sarchlab/verikit/sim/timing"
)

// ErrUnknownProtocol is returned when looking up a protocol that is not
// registered.
var ErrUnknownProtocol = errors.New("protocol: unknown protocol")

// A Kit is everything needed to verify one protocol.
type Kit struct {
	Name        string
	Description string
	NewDevice   func(fault dut.Fault) dut.Device
	NewAgent    func(pins *pin.Interface, cfg bench.AgentConfig) (bench.Agent, error)
	DefaultSpec func() *crv.Spec
}

var kits = map[string]Kit{
	"regbus": {
		Name:        "regbus",
		Description: "addressed register bus with a newd strobe and a done pulse",
		NewDevice:   regbus.NewDevice,
		NewAgent:    regbus.NewAgent,
		DefaultSpec: regbus.DefaultSpec,
	},
	"spi": {
		Name:        "spi",
		Description: "12-bit serial loopback clocked by sclk",
		NewDevice:   spi.NewDevice,
		NewAgent:    spi.NewAgent,
		DefaultSpec: spi.DefaultSpec,
	},
	"uart": {
		Name:        "uart",
		Description: "duplex 8N1 framer with separate transmit and receive clocks",
		NewDevice:   uart.NewDevice,
		NewAgent:    uart.NewAgent,
		DefaultSpec: uart.DefaultSpec,
	},
}

// Lookup returns the kit registered under name.
func Lookup(name string) (Kit, error) {
	k, found := kits[name]
	if !found {
		return Kit{}, fmt.Errorf("%w: %q", ErrUnknownProtocol, name)
	}

	return k, nil
}

// Names returns the sorted names of all the registered protocols.
func Names() []string {
	names := make([]string, 0, len(kits))
	for n := range kits {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Options configure a bench built from a kit. Zero values keep the bench
// defaults, so a zero Count runs the default number of transactions.
type Options struct {
	Seed             int64
	Count            uint64
	Fault            dut.Fault
	Spec             *crv.Spec
	MaxWaitCycles    int
	HandshakeTimeout uint64
	ResetCycles      uint64
	MaxCycles        uint64
	Duration         timing.VTimeInSec
	Logger           *log.Logger
	Engine           timing.Engine
}

// Build creates a bench that verifies the protocol with constrained-random
// transactions. A randomization spec that cannot be satisfied fails the
// build.
func (k Kit) Build(opts Options) (*bench.Bench, error) {
	spec := opts.Spec
	if spec == nil {
		spec = k.DefaultSpec()
	}

	if err := spec.CheckSatisfiable(); err != nil {
		return nil, err
	}

	device := k.NewDevice(opts.Fault)

	agent, err := k.NewAgent(device.Pins(), bench.AgentConfig{
		MaxWaitCycles: opts.MaxWaitCycles,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	builder := bench.MakeBuilder().
		WithDevice(device).
		WithAgent(agent).
		WithSource(bench.NewRandomSource(crv.NewRandomizer(opts.Seed), spec))

	builder = applyOptions(builder, opts)

	return builder.Build(k.Name)
}

func applyOptions(b bench.Builder, opts Options) bench.Builder {
	if opts.Logger != nil {
		b = b.WithLogger(opts.Logger)
	}

	if opts.Engine != nil {
		b = b.WithEngine(opts.Engine)
	}

	if opts.Count > 0 {
		b = b.WithCount(opts.Count)
	}

	if opts.HandshakeTimeout > 0 {
		b = b.WithHandshakeTimeout(opts.HandshakeTimeout)
	}

	if opts.ResetCycles > 0 {
		b = b.WithResetCycles(opts.ResetCycles)
	}

	if opts.MaxCycles > 0 {
		b = b.WithMaxCycles(opts.MaxCycles)
	}

	if opts.Duration > 0 {
		b = b.WithDuration(opts.Duration)
	}

	return b
}
