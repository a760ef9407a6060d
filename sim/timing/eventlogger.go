package timing

import (
	"log"
	"reflect"

	"github.com/sarchlab/verikit/sim/hooking"
)

// EventLogger is an engine hook that prints every event before it is
// handled, tagged the same way the bench stages tag their lines.
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger creates an EventLogger that writes to logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

type named interface {
	Name() string
}

// Func prints the time in ns, the event type and the handler name.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	t := reflect.TypeOf(evt)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	line := t.Name()
	if handler, ok := evt.Handler().(named); ok {
		line += " -> " + handler.Name()
	}

	if evt.IsSecondary() {
		line += " (secondary)"
	}

	h.logger.Printf("[EVT] : %.0f ns %s", evt.Time()*1e9, line)
}
