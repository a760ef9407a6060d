package uart

import (
	"errors"

	"github.com/sarchlab/verikit/txn"
)

// ErrNothingApplied is reported when a word is observed without a matching
// applied word.
var ErrNothingApplied = errors.New("uart: no applied word to compare with")

// StreamModel compares the word decoded by the monitor with the word the
// driver put on the wire.
type StreamModel struct{}

// Reset does nothing as the model keeps no state.
func (StreamModel) Reset() {}

// Check compares an observed word with its applied counterpart.
func (StreamModel) Check(observed, applied *txn.Transaction) txn.Verdict {
	if applied == nil {
		return txn.Verdict{
			Outcome: txn.Error,
			Actual:  observed.DataOut,
			Err:     ErrNothingApplied,
			Note:    "model",
		}
	}

	v := txn.Verdict{
		Outcome:  txn.Pass,
		Expected: applied.DataIn,
		Actual:   observed.DataOut,
		Note:     "Data Matched",
	}

	if observed.Op != applied.Op || observed.DataOut != applied.DataIn {
		v.Outcome = txn.Fail
		v.Note = "Data Mismatched"
	}

	return v
}
