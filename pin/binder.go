package pin

// A Binder looks up the signals an agent needs and remembers the first
// lookup that failed, so that a whole set of signals can be bound before
// checking for an error.
type Binder struct {
	pins *Interface
	err  error
}

// NewBinder creates a Binder on the given interface.
func NewBinder(pins *Interface) *Binder {
	return &Binder{pins: pins}
}

// Signal returns the named signal for driving.
func (b *Binder) Signal(name string) *Signal {
	s, err := b.pins.Lookup(name)
	if err != nil && b.err == nil {
		b.err = err
	}

	return s
}

// Probe returns a read-only view of the named signal.
func (b *Binder) Probe(name string) Probe {
	s := b.Signal(name)
	if s == nil {
		return nil
	}

	return s
}

// Err returns the first lookup error.
func (b *Binder) Err() error {
	return b.err
}
