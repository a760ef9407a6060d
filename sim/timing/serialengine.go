package timing

import (
	"fmt"
	"log"
	"reflect"
	"sync"

	"github.com/sarchlab/verikit/sim/hooking"
)

// A SerialEngine handles events one after another in a single goroutine.
// Monitoring tools may read the time, pause, continue and inspect from other
// goroutines.
type SerialEngine struct {
	hooking.HookableBase

	queue EventQueue

	lock    sync.Mutex
	resumed *sync.Cond
	time    VTimeInSec
	paused  bool
	handled uint64

	runLock   sync.Mutex
	eventLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine
func NewSerialEngine() *SerialEngine {
	e := &SerialEngine{queue: NewEventQueue()}
	e.resumed = sync.NewCond(&e.lock)

	return e
}

// Name returns the name of the engine.
func (e *SerialEngine) Name() string {
	return "SerialEngine"
}

// Schedule adds an event. Scheduling an event in the past is a programming
// error and panics.
func (e *SerialEngine) Schedule(evt Event) {
	if now := e.Now(); evt.Time() < now {
		log.Panicf("scheduling %s @ %.10f earlier than now %.10f",
			reflect.TypeOf(evt), evt.Time(), now)
	}

	e.queue.Push(evt)
}

// Run handles all the scheduled events. The first error returned by a
// handler stops the run and is returned with the time it happened.
func (e *SerialEngine) Run() error {
	e.runLock.Lock()
	defer e.runLock.Unlock()

	for e.queue.Len() > 0 {
		evt := e.advance()

		if err := e.handle(evt); err != nil {
			return fmt.Errorf("event @ %.10f: %w", evt.Time(), err)
		}
	}

	return nil
}

func (e *SerialEngine) handle(evt Event) error {
	e.eventLock.Lock()
	defer e.eventLock.Unlock()

	ctx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return err
}

// Inspect calls f between two events, so that f can read the state of the
// components the engine drives. It must not be called from a handler.
func (e *SerialEngine) Inspect(f func()) {
	e.eventLock.Lock()
	defer e.eventLock.Unlock()

	f()
}

// advance waits while the engine is paused, then pops the next event and
// moves the time to it.
func (e *SerialEngine) advance() Event {
	e.lock.Lock()
	defer e.lock.Unlock()

	for e.paused {
		e.resumed.Wait()
	}

	evt := e.queue.Pop()
	e.time = evt.Time()
	e.handled++

	return evt
}

// Pause holds the engine before the next event.
func (e *SerialEngine) Pause() {
	e.lock.Lock()
	e.paused = true
	e.lock.Unlock()
}

// Continue resumes a paused engine.
func (e *SerialEngine) Continue() {
	e.lock.Lock()
	e.paused = false
	e.lock.Unlock()

	e.resumed.Broadcast()
}

// Paused tells if the engine is paused.
func (e *SerialEngine) Paused() bool {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.paused
}

// Now returns the time of the event being handled.
func (e *SerialEngine) Now() VTimeInSec {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.time
}

// Handled returns the number of events handled so far.
func (e *SerialEngine) Handled() uint64 {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.handled
}
