package timing

import (
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/sim/id"
)

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec = float64

// An Event is something a Handler does at a point in simulated time.
//
// Secondary events run after all the primary events of the same time. A
// bench uses them to sample outputs only once every device has been
// evaluated for the edge.
type Event interface {
	Time() VTimeInSec
	Handler() Handler
	IsSecondary() bool
}

// A Handler owns the events scheduled for it. Handling an event may only
// change the state of the handler itself.
type Handler interface {
	Handle(e Event) error
}

// Hook positions of an engine. The hook item is the event.
var (
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &hooking.HookPos{Name: "AfterEvent"}
)

// EventBase implements the getters of Event.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a primary event base.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{
		ID:      id.Generate(),
		time:    t,
		handler: handler,
	}
}

// Time returns when the event happens.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary tells if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	Now() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// An Engine runs events in time order until none is left.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run handles events until no event is left or a handler fails.
	Run() error

	// Pause holds the engine before the next event until Continue is
	// called. It can be called from another goroutine while Run runs.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}
