package txn

import "fmt"

// Outcome is the result of checking one transaction.
type Outcome int

// Possible outcomes. Desync means the two streams feeding a comparison were
// paired out of order, which is reported apart from a value mismatch.
const (
	Pass Outcome = iota
	Fail
	Desync
	Error
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Desync:
		return "desync"
	default:
		return "error"
	}
}

// A Verdict is the outcome of checking one transaction against a reference
// model. Verdicts are reported, never raised.
type Verdict struct {
	Outcome  Outcome
	Seq      uint64
	Txn      *Transaction
	Expected uint64
	Actual   uint64
	Time     float64
	Err      error
	Note     string
}

// Passed tells if the verdict is a pass.
func (v Verdict) Passed() bool {
	return v.Outcome == Pass
}

func (v Verdict) String() string {
	switch v.Outcome {
	case Pass:
		return fmt.Sprintf("seq %d pass expected: %d actual: %d",
			v.Seq, v.Expected, v.Actual)
	case Error:
		return fmt.Sprintf("seq %d error: %v", v.Seq, v.Err)
	default:
		return fmt.Sprintf("seq %d %s expected: %d actual: %d %s",
			v.Seq, v.Outcome, v.Expected, v.Actual, v.Note)
	}
}
