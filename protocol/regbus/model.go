package regbus

import (
	"errors"
	"fmt"

	"github.com/sarchlab/verikit/txn"
)

// ErrAddressOutOfRange is reported for transactions outside the register
// file.
var ErrAddressOutOfRange = errors.New("regbus: address out of range")

// ErrNotAcknowledged is reported for transactions the device refused.
var ErrNotAcknowledged = errors.New("regbus: request not acknowledged")

// ErrSnapshotSize is returned when restoring a snapshot of another size.
var ErrSnapshotSize = errors.New("regbus: snapshot size mismatch")

// MemoryModel predicts the content of the register file. Every register
// holds its own address initially. Writes update the model and always pass;
// reads pass if the device returns what the model holds. A refused request
// is an error and does not change the model.
type MemoryModel struct {
	mem []uint64
}

// NewMemoryModel creates a model of size registers.
func NewMemoryModel(size int) *MemoryModel {
	m := &MemoryModel{mem: make([]uint64, size)}
	m.Reset()

	return m
}

// Reset restores the initial content.
func (m *MemoryModel) Reset() {
	for i := range m.mem {
		m.mem[i] = uint64(i)
	}
}

// Value returns the predicted content of a register.
func (m *MemoryModel) Value(addr uint64) uint64 {
	return m.mem[addr]
}

// Snapshot returns a copy of the predicted content.
func (m *MemoryModel) Snapshot() []uint64 {
	s := make([]uint64, len(m.mem))
	copy(s, m.mem)

	return s
}

// Restore replaces the predicted content with a snapshot.
func (m *MemoryModel) Restore(s []uint64) error {
	if len(s) != len(m.mem) {
		return fmt.Errorf("%w: %d registers, snapshot has %d",
			ErrSnapshotSize, len(m.mem), len(s))
	}

	copy(m.mem, s)

	return nil
}

// Check updates the model with a write or checks a read.
func (m *MemoryModel) Check(observed, _ *txn.Transaction) txn.Verdict {
	if observed.Addr >= uint64(len(m.mem)) {
		return txn.Verdict{
			Outcome: txn.Error,
			Err: fmt.Errorf("%w: %d",
				ErrAddressOutOfRange, observed.Addr),
			Note: "model",
		}
	}

	if observed.AckErr {
		return txn.Verdict{
			Outcome:  txn.Error,
			Expected: m.mem[observed.Addr],
			Err: fmt.Errorf("%w: %s at %d",
				ErrNotAcknowledged, observed.Op, observed.Addr),
			Note: "ack_err",
		}
	}

	if observed.Op == txn.OpWrite {
		m.mem[observed.Addr] = observed.DataIn

		return txn.Verdict{
			Outcome:  txn.Pass,
			Expected: observed.DataIn,
			Actual:   observed.DataIn,
			Note:     "Added new data in mem",
		}
	}

	expected := m.mem[observed.Addr]
	v := txn.Verdict{
		Outcome:  txn.Pass,
		Expected: expected,
		Actual:   observed.DataOut,
		Note:     "TEST PASS",
	}

	if observed.DataOut != expected {
		v.Outcome = txn.Fail
		v.Note = "Test FAIL"
	}

	return v
}
