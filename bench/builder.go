package bench

import (
	"fmt"
	"log"
	"os"

	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/sim/timing"
)

// A Builder can build benches.
type Builder struct {
	engine           timing.Engine
	freq             timing.Freq
	logger           *log.Logger
	device           dut.Device
	agent            Agent
	source           Source
	count            uint64
	resetCycles      uint64
	handshakeTimeout uint64
	drainCycles      uint64
	maxCycles        uint64
	duration         timing.VTimeInSec
	logVerdicts      bool
}

// MakeBuilder returns a Builder with a 100 MHz clock, a 5-cycle reset and 5
// transactions.
func MakeBuilder() Builder {
	return Builder{
		freq:             100 * timing.MHz,
		count:            5,
		resetCycles:      5,
		handshakeTimeout: 5 * DefaultMaxWaitCycles,
		drainCycles:      10,
		logVerdicts:      true,
	}
}

// WithEngine sets the engine. A new serial engine is used if not set.
func (b Builder) WithEngine(engine timing.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the bench clock.
func (b Builder) WithFreq(freq timing.Freq) Builder {
	b.freq = freq
	return b
}

// WithLogger sets the logger of all the stages.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithDevice sets the device under test.
func (b Builder) WithDevice(device dut.Device) Builder {
	b.device = device
	return b
}

// WithAgent sets the protocol driver, monitor and reference model.
func (b Builder) WithAgent(agent Agent) Builder {
	b.agent = agent
	return b
}

// WithSource sets where the stimulus comes from.
func (b Builder) WithSource(source Source) Builder {
	b.source = source
	return b
}

// WithCount sets the number of transactions to generate.
func (b Builder) WithCount(count uint64) Builder {
	b.count = count
	return b
}

// WithResetCycles sets the number of cycles reset is held.
func (b Builder) WithResetCycles(cycles uint64) Builder {
	b.resetCycles = cycles
	return b
}

// WithHandshakeTimeout sets the number of cycles the generator waits for a
// transaction to be checked. It should be longer than the time the driver
// and the monitor may spend waiting on the device.
func (b Builder) WithHandshakeTimeout(cycles uint64) Builder {
	b.handshakeTimeout = cycles
	return b
}

// WithDrainCycles sets the number of cycles the bench keeps running after
// the last transaction is resolved.
func (b Builder) WithDrainCycles(cycles uint64) Builder {
	b.drainCycles = cycles
	return b
}

// WithMaxCycles stops the run after the given number of cycles. Zero means
// no limit.
func (b Builder) WithMaxCycles(cycles uint64) Builder {
	b.maxCycles = cycles
	return b
}

// WithDuration stops the run at the given simulated time. It overrides
// WithMaxCycles.
func (b Builder) WithDuration(duration timing.VTimeInSec) Builder {
	b.duration = duration
	return b
}

// WithoutVerdictLogging stops the bench from printing every verdict.
func (b Builder) WithoutVerdictLogging() Builder {
	b.logVerdicts = false
	return b
}

// Build creates a bench. It fails if a part is missing or if the device has
// no reset pin.
func (b Builder) Build(name string) (*Bench, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	rst, err := b.device.Pins().Lookup(dut.PinReset)
	if err != nil {
		return nil, err
	}

	bench := &Bench{
		name:        name,
		engine:      b.engine,
		freq:        b.freq,
		logger:      b.logger,
		device:      b.device,
		pins:        b.device.Pins(),
		rst:         rst,
		driver:      b.agent.Driver,
		resetCycles: b.resetCycles,
		drainCycles: b.drainCycles,
		maxCycles:   b.maxCycles,
	}

	if bench.engine == nil {
		bench.engine = timing.NewSerialEngine()
	}

	if bench.logger == nil {
		bench.logger = log.New(os.Stdout, "", 0)
	}

	if b.duration > 0 {
		bench.maxCycles = uint64(float64(b.duration) * float64(b.freq))
	}

	b.buildChannels(bench, name)
	b.buildStages(bench, name)

	bench.clock = timing.NewTickingComponent(
		name+".Clock", bench.engine, b.freq, tickerFunc(bench.tickClock))
	bench.runner = timing.NewSecondaryTickingComponent(
		name+".Stages", bench.engine, b.freq, tickerFunc(bench.tickStages))

	return bench, nil
}

func (b Builder) validate() error {
	switch {
	case b.freq <= 0:
		return timing.ErrZeroFrequency
	case b.device == nil:
		return fmt.Errorf("%w: no device", ErrIncomplete)
	case b.agent.Driver == nil:
		return fmt.Errorf("%w: no driver", ErrIncomplete)
	case b.agent.Monitor == nil:
		return fmt.Errorf("%w: no monitor", ErrIncomplete)
	case b.agent.Model == nil:
		return fmt.Errorf("%w: no reference model", ErrIncomplete)
	case b.source == nil:
		return fmt.Errorf("%w: no stimulus source", ErrIncomplete)
	case b.handshakeTimeout == 0:
		return fmt.Errorf("%w: handshake timeout must be positive", ErrIncomplete)
	}

	return nil
}

func (b Builder) buildChannels(bench *Bench, name string) {
	bench.stimulus = NewChannel(name + ".Stimulus")
	bench.observed = NewChannel(name + ".Observed")

	if b.agent.Applied != nil {
		bench.applied = NewChannel(name + ".Applied")
		b.agent.Applied.PublishTo(bench.applied)
	}

	bench.done = NewCompletionSignal()
}

func (b Builder) buildStages(bench *Bench, name string) {
	bench.scoreboard = &Scoreboard{
		HookableBase: hooking.NewHookableBase(),
		name:         name + ".Scoreboard",
		model:        b.agent.Model,
		observed:     bench.observed,
		applied:      bench.applied,
		done:         bench.done,
		clock:        bench.engine,
		logger:       bench.logger,
	}

	if b.logVerdicts {
		bench.scoreboard.AcceptHook(NewVerdictLogger(bench.logger))
	}

	bench.generator = &Generator{
		HookableBase: hooking.NewHookableBase(),
		name:         name + ".Generator",
		source:       b.source,
		out:          bench.stimulus,
		done:         bench.done,
		reporter:     bench.scoreboard,
		logger:       bench.logger,
		count:        b.count,
		timeout:      b.handshakeTimeout,
	}

	bench.driverTask = &DriverTask{
		name:     name + ".Driver",
		driver:   b.agent.Driver,
		in:       bench.stimulus,
		reporter: bench.scoreboard,
		logger:   bench.logger,
	}

	bench.monitor = &MonitorTask{
		name:    name + ".Monitor",
		monitor: b.agent.Monitor,
		out:     bench.observed,
		logger:  bench.logger,
	}
}
