package spi

import "github.com/sarchlab/verikit/txn"

// LoopbackModel expects every word to come back unchanged.
type LoopbackModel struct{}

// Reset does nothing as the model keeps no state.
func (LoopbackModel) Reset() {}

// Check compares the received word with the sent one.
func (LoopbackModel) Check(observed, _ *txn.Transaction) txn.Verdict {
	v := txn.Verdict{
		Outcome:  txn.Pass,
		Expected: observed.DataIn,
		Actual:   observed.DataOut,
		Note:     "Test Passed",
	}

	if observed.DataOut != observed.DataIn {
		v.Outcome = txn.Fail
		v.Note = "Test Failed"
	}

	return v
}
