package bench

// A CompletionSignal is a one-shot flag. The scoreboard signals it once per
// checked transaction and the generator clears it right after it wakes up.
// The signal carries the sequence number of the transaction it completes,
// so a late completion cannot release a newer transaction.
type CompletionSignal struct {
	signaled bool
	seq      uint64
	count    uint64
}

// NewCompletionSignal creates a cleared signal.
func NewCompletionSignal() *CompletionSignal {
	return &CompletionSignal{}
}

// Signal sets the signal for the transaction numbered seq.
func (s *CompletionSignal) Signal(seq uint64) {
	s.signaled = true
	s.seq = seq
	s.count++
}

// Clear resets the signal.
func (s *CompletionSignal) Clear() {
	s.signaled = false
}

// IsSignaled tells if the signal is set.
func (s *CompletionSignal) IsSignaled() bool {
	return s.signaled
}

// Seq returns the sequence number given to the last Signal.
func (s *CompletionSignal) Seq() uint64 {
	return s.seq
}

// Count returns how many times the signal has been set.
func (s *CompletionSignal) Count() uint64 {
	return s.count
}
