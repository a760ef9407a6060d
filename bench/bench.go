// Package bench provides a self-checking, constrained-random test bench.
//
// A bench connects a generator, a driver, a monitor and a scoreboard through
// channels. The generator issues one transaction at a time and waits on a
// completion signal that the scoreboard raises after it checks the
// transaction. Protocol-specific pin wiggling lives behind the Driver and
// Monitor interfaces, so none of the stages here knows which bus is being
// tested.
//
// Everything runs on a discrete-event engine. In each clock cycle, the
// device is evaluated on a primary tick. The stages run on a secondary tick
// of the same cycle, monitor first and driver last, so that monitors sample
// what the device produced at the edge before drivers change its inputs for
// the next one.
package bench

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/sim/timing"
)

var (
	// ErrHandshakeTimeout is reported when a transaction is not checked
	// within the handshake timeout.
	ErrHandshakeTimeout = errors.New("bench: handshake timeout")

	// ErrOrderDesync is reported when the applied and the observed streams
	// are paired out of order.
	ErrOrderDesync = errors.New("bench: applied and observed streams out of order")

	// ErrProtocolTimeout is reported when a device does not respond.
	ErrProtocolTimeout = pin.ErrProtocolTimeout

	// ErrIncomplete is returned when a bench is built without one of its
	// parts.
	ErrIncomplete = errors.New("bench: incomplete configuration")
)

// A Bench runs one test.
type Bench struct {
	name   string
	engine timing.Engine
	freq   timing.Freq
	logger *log.Logger

	device dut.Device
	pins   *pin.Interface
	rst    *pin.Signal

	driver     Driver
	stimulus   *Channel
	observed   *Channel
	applied    *Channel
	done       *CompletionSignal
	generator  *Generator
	driverTask *DriverTask
	monitor    *MonitorTask
	scoreboard *Scoreboard

	clock  *timing.TickingComponent
	runner *timing.TickingComponent

	resetCycles uint64
	drainCycles uint64
	maxCycles   uint64

	cycle      uint64
	inReset    bool
	drainStart uint64
	draining   bool
	finished   bool
	stopReason string
}

type tickerFunc func() bool

func (f tickerFunc) Tick() bool {
	return f()
}

// Name returns the name of the bench.
func (b *Bench) Name() string {
	return b.name
}

// Engine returns the engine the bench runs on.
func (b *Bench) Engine() timing.Engine {
	return b.engine
}

// Device returns the device under test.
func (b *Bench) Device() dut.Device {
	return b.device
}

// Generator returns the stimulus generator.
func (b *Bench) Generator() *Generator {
	return b.generator
}

// DriverTask returns the task that runs the protocol driver.
func (b *Bench) DriverTask() *DriverTask {
	return b.driverTask
}

// MonitorTask returns the task that runs the protocol monitor.
func (b *Bench) MonitorTask() *MonitorTask {
	return b.monitor
}

// Scoreboard returns the scoreboard.
func (b *Bench) Scoreboard() *Scoreboard {
	return b.scoreboard
}

// Completion returns the completion signal between the scoreboard and the
// generator.
func (b *Bench) Completion() *CompletionSignal {
	return b.done
}

// Channels returns the channels that connect the stages.
func (b *Bench) Channels() []*Channel {
	channels := []*Channel{b.stimulus, b.observed}
	if b.applied != nil {
		channels = append(channels, b.applied)
	}

	return channels
}

// Cycle returns the number of clock edges so far.
func (b *Bench) Cycle() uint64 {
	return b.cycle
}

// Finished tells if the run is over.
func (b *Bench) Finished() bool {
	return b.finished
}

// StopReason tells why the run ended.
func (b *Bench) StopReason() string {
	return b.stopReason
}

// Run holds the device in reset, runs the stages until all transactions are
// checked or the cycle limit is reached and returns the summary of all the
// verdicts.
func (b *Bench) Run() (Summary, error) {
	b.applyReset()

	b.clock.TickNow()
	b.runner.TickNow()

	err := b.engine.Run()
	if err != nil {
		return b.scoreboard.Summary(), err
	}

	b.scoreboard.Flush()

	summary := b.scoreboard.Summary()
	b.logger.Printf("--------Run finished @ : %s after %d cycles (%s)--------",
		nsString(b.engine.Now()), b.cycle, b.stopReason)
	b.logger.Printf("Summary: %s", summary)

	return summary, nil
}

func (b *Bench) applyReset() {
	b.rst.Set(1)
	b.driver.Reset()
	b.monitor.Reset()
	b.scoreboard.Reset()
	b.inReset = true

	b.logger.Printf("--------Reset Applied @ : %s----------------",
		nsString(b.engine.Now()))
}

func (b *Bench) releaseReset() {
	b.rst.Set(0)
	b.inReset = false

	b.logger.Printf("--------Reset Removed @ : %s----------------",
		nsString(b.engine.Now()))
	b.logger.Print("-------------------------------------------------------------------------------")
}

func (b *Bench) tickClock() bool {
	if b.finished {
		return false
	}

	b.pins.Latch()
	b.device.Eval()
	b.cycle++

	return true
}

func (b *Bench) tickStages() bool {
	if b.finished {
		return false
	}

	if b.inReset {
		if b.cycle < b.resetCycles {
			return true
		}

		b.releaseReset()
	}

	b.monitor.Tick()
	b.scoreboard.Tick()
	b.generator.Tick()
	b.driverTask.Tick()

	b.updateFinished()

	return !b.finished
}

func (b *Bench) updateFinished() {
	if b.maxCycles > 0 && b.cycle >= b.maxCycles {
		b.stop("cycle limit reached")
		return
	}

	if !b.generator.Done() || b.driverTask.Busy() {
		b.draining = false
		return
	}

	if !b.draining {
		b.draining = true
		b.drainStart = b.cycle
	}

	if b.cycle-b.drainStart >= b.drainCycles {
		b.stop("all transactions completed")
	}
}

func (b *Bench) stop(reason string) {
	b.finished = true
	b.stopReason = reason
}

func nsString(t timing.VTimeInSec) string {
	return fmt.Sprintf("%.0f ns", float64(t)*1e9)
}
