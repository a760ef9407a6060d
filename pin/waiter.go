package pin

import (
	"errors"
	"fmt"
)

// ErrProtocolTimeout is returned when a device does not raise an awaited
// signal within the allowed number of cycles.
var ErrProtocolTimeout = errors.New("protocol timeout: device unresponsive")

// Edge selects the condition a Waiter waits for.
type Edge int

// Conditions a Waiter can wait for.
const (
	Rising Edge = iota
	Falling
	High
	Low
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising edge"
	case Falling:
		return "falling edge"
	case High:
		return "high level"
	default:
		return "low level"
	}
}

// A Waiter is a bounded wait on a signal condition. It is armed in one clock
// cycle and polled once in every following cycle; the cycle it is armed in
// never counts as a match.
type Waiter struct {
	limit  int
	probe  Probe
	edge   Edge
	waited int
	armed  bool
}

// NewWaiter creates a Waiter that gives up after limit cycles.
func NewWaiter(limit int) *Waiter {
	if limit <= 0 {
		panic("pin: waiter limit must be positive")
	}

	return &Waiter{limit: limit}
}

// Limit returns the number of cycles the waiter waits at most.
func (w *Waiter) Limit() int {
	return w.limit
}

// Arm starts waiting for the condition on p.
func (w *Waiter) Arm(p Probe, edge Edge) {
	w.probe = p
	w.edge = edge
	w.waited = 0
	w.armed = true
}

// Armed tells if the waiter has a pending wait.
func (w *Waiter) Armed() bool {
	return w.armed
}

// Disarm cancels the pending wait.
func (w *Waiter) Disarm() {
	w.armed = false
}

// Poll checks the condition for the current cycle. It returns true once the
// condition holds and an error wrapping ErrProtocolTimeout once the limit is
// exceeded. Both outcomes disarm the waiter.
func (w *Waiter) Poll() (bool, error) {
	if !w.armed {
		return false, nil
	}

	w.waited++

	if w.matches() {
		w.armed = false
		return true, nil
	}

	if w.waited >= w.limit {
		w.armed = false

		return false, fmt.Errorf("%w: no %s on %s in %d cycles",
			ErrProtocolTimeout, w.edge, w.probe.Name(), w.limit)
	}

	return false, nil
}

func (w *Waiter) matches() bool {
	switch w.edge {
	case Rising:
		return w.probe.Rose()
	case Falling:
		return w.probe.Fell()
	case High:
		return w.probe.Bit()
	default:
		return !w.probe.Bit()
	}
}
