// Package pin models the pin-level interface between a test bench and a
// device under test.
//
// A Signal holds the value of one wire or bus. Every signal remembers the
// value it had at the previous clock edge, so edge detection works on
// clock-aligned samples rather than on the order in which tasks run.
package pin

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSignal is returned when a signal is not part of an interface.
var ErrUnknownSignal = errors.New("pin: unknown signal")

// Dir tells who drives a signal.
type Dir int

// Signal directions, seen from the device under test.
const (
	In Dir = iota
	Out
)

func (d Dir) String() string {
	if d == In {
		return "in"
	}

	return "out"
}

// A Probe is a read-only view of a signal. Monitors only receive probes.
type Probe interface {
	Name() string
	Width() int
	Get() uint64
	Bit() bool
	Rose() bool
	Fell() bool
}

// A Signal is a named bit vector.
type Signal struct {
	name  string
	width int
	dir   Dir
	mask  uint64
	value uint64
	prev  uint64
}

// NewSignal creates a signal of the given width in bits.
func NewSignal(name string, width int, dir Dir) *Signal {
	if width <= 0 || width > 64 {
		panic(fmt.Sprintf("pin: invalid width %d for signal %s", width, name))
	}

	mask := ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << width) - 1
	}

	return &Signal{name: name, width: width, dir: dir, mask: mask}
}

// Name returns the name of the signal.
func (s *Signal) Name() string {
	return s.name
}

// Width returns the number of bits of the signal.
func (s *Signal) Width() int {
	return s.width
}

// Dir returns the direction of the signal.
func (s *Signal) Dir() Dir {
	return s.dir
}

// Get returns the current value.
func (s *Signal) Get() uint64 {
	return s.value
}

// Bit returns true if the least significant bit is set.
func (s *Signal) Bit() bool {
	return s.value&1 == 1
}

// Set drives a new value. Bits beyond the width are dropped.
func (s *Signal) Set(v uint64) {
	s.value = v & s.mask
}

// SetBit drives a single-bit value.
func (s *Signal) SetBit(b bool) {
	if b {
		s.Set(1)
		return
	}

	s.Set(0)
}

// Rose returns true if bit 0 went from low to high at the last clock edge.
func (s *Signal) Rose() bool {
	return s.prev&1 == 0 && s.value&1 == 1
}

// Fell returns true if bit 0 went from high to low at the last clock edge.
func (s *Signal) Fell() bool {
	return s.prev&1 == 1 && s.value&1 == 0
}

// Latch records the current value as the value at the previous edge.
func (s *Signal) Latch() {
	s.prev = s.value
}

// An Interface is the named set of signals a device exposes.
type Interface struct {
	name    string
	signals map[string]*Signal
}

// NewInterface creates an empty interface.
func NewInterface(name string) *Interface {
	return &Interface{
		name:    name,
		signals: make(map[string]*Signal),
	}
}

// Name returns the name of the interface.
func (i *Interface) Name() string {
	return i.name
}

// Add creates a signal and adds it to the interface.
func (i *Interface) Add(name string, width int, dir Dir) *Signal {
	if _, found := i.signals[name]; found {
		panic("pin: signal " + name + " already exists on " + i.name)
	}

	s := NewSignal(name, width, dir)
	i.signals[name] = s

	return s
}

// Lookup returns the signal with the given name.
func (i *Interface) Lookup(name string) (*Signal, error) {
	s, found := i.signals[name]
	if !found {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownSignal, name, i.name)
	}

	return s, nil
}

// Probe returns a read-only view of the signal with the given name.
func (i *Interface) Probe(name string) (Probe, error) {
	s, err := i.Lookup(name)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Names returns the sorted signal names.
func (i *Interface) Names() []string {
	names := make([]string, 0, len(i.signals))
	for n := range i.signals {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Latch records the value of every signal at a clock edge.
func (i *Interface) Latch() {
	for _, s := range i.signals {
		s.Latch()
	}
}

// Values returns a snapshot of all signal values.
func (i *Interface) Values() map[string]uint64 {
	values := make(map[string]uint64, len(i.signals))
	for n, s := range i.signals {
		values[n] = s.value
	}

	return values
}
