package bench

import (
	"fmt"
	"log"

	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/sim/timing"
	"github.com/sarchlab/verikit/txn"
)

// HookPosVerdict marks a verdict being reported. The item is a txn.Verdict.
var HookPosVerdict = &hooking.HookPos{Name: "Verdict"}

// A Summary counts verdicts by outcome.
type Summary struct {
	Pass   int `json:"pass"`
	Fail   int `json:"fail"`
	Desync int `json:"desync"`
	Error  int `json:"error"`
}

// Add counts one verdict.
func (s *Summary) Add(v txn.Verdict) {
	switch v.Outcome {
	case txn.Pass:
		s.Pass++
	case txn.Fail:
		s.Fail++
	case txn.Desync:
		s.Desync++
	default:
		s.Error++
	}
}

// Total returns the number of verdicts.
func (s Summary) Total() int {
	return s.Pass + s.Fail + s.Desync + s.Error
}

// Success tells if at least one transaction was checked and nothing but
// passes were reported.
func (s Summary) Success() bool {
	return s.Pass > 0 && s.Fail == 0 && s.Desync == 0 && s.Error == 0
}

func (s Summary) String() string {
	result := "FAILED"
	if s.Success() {
		result = "PASSED"
	}

	return fmt.Sprintf("%s pass: %d fail: %d desync: %d error: %d",
		result, s.Pass, s.Fail, s.Desync, s.Error)
}

// A Scoreboard checks observed transactions against a reference model and
// signals completion once per checked transaction.
//
// With an applied stream, the scoreboard pairs the two streams in order.
// Both streams number their transactions independently; a pair whose
// numbers differ is reported as a desync and the older side is dropped so
// that the following pairs line up again.
type Scoreboard struct {
	*hooking.HookableBase

	name     string
	model    ReferenceModel
	observed *Channel
	applied  *Channel
	done     *CompletionSignal
	clock    timing.TimeTeller
	logger   *log.Logger

	summary    Summary
	verdicts   []txn.Verdict
	checked    uint64
	resolved   map[uint64]bool
	duplicates uint64
}

// Name returns the name of the scoreboard.
func (s *Scoreboard) Name() string {
	return s.name
}

// Model returns the reference model.
func (s *Scoreboard) Model() ReferenceModel {
	return s.model
}

// Summary returns the counts of all the verdicts so far.
func (s *Scoreboard) Summary() Summary {
	return s.summary
}

// Verdicts returns all the verdicts so far.
func (s *Scoreboard) Verdicts() []txn.Verdict {
	return s.verdicts
}

// Checked returns the number of transactions checked by the model.
func (s *Scoreboard) Checked() uint64 {
	return s.checked
}

// Duplicates returns the number of verdicts dropped because their
// transaction already had one.
func (s *Scoreboard) Duplicates() uint64 {
	return s.duplicates
}

// Reset restores the model to its initial state.
func (s *Scoreboard) Reset() {
	s.model.Reset()
}

// Tick checks everything that is ready.
func (s *Scoreboard) Tick() {
	for {
		obs := s.observed.Peek()
		if obs == nil {
			return
		}

		if s.applied == nil {
			s.observed.Pop()
			s.check(obs, nil)

			continue
		}

		app := s.applied.Peek()
		if app == nil {
			return
		}

		switch {
		case app.Seq < obs.Seq:
			s.applied.Pop()
			s.Report(desync(app, obs.Seq, "applied transaction never observed"))
		case app.Seq > obs.Seq:
			s.observed.Pop()
			s.Report(desync(obs, app.Seq, "observed transaction never applied"))
		default:
			s.observed.Pop()
			s.applied.Pop()
			s.check(obs, app)
		}
	}
}

func desync(t *txn.Transaction, other uint64, note string) txn.Verdict {
	return txn.Verdict{
		Outcome:  txn.Desync,
		Seq:      t.Seq,
		Txn:      t,
		Expected: t.Seq,
		Actual:   other,
		Err: fmt.Errorf("%w: seq %d paired with seq %d",
			ErrOrderDesync, t.Seq, other),
		Note: note,
	}
}

func (s *Scoreboard) check(obs, app *txn.Transaction) {
	s.logger.Printf("[SCO] : %s", obs)

	v := s.model.Check(obs, app)
	v.Seq = obs.Seq

	if v.Txn == nil {
		v.Txn = obs
	}

	s.checked++
	s.Report(v)
	s.done.Signal(obs.Seq)
}

// Flush reports everything left unpaired in either stream.
func (s *Scoreboard) Flush() {
	if s.applied == nil {
		return
	}

	for s.applied.Size() > 0 {
		app := s.applied.Pop()
		s.Report(desync(app, 0, "applied transaction never observed"))
	}

	for s.observed.Size() > 0 {
		obs := s.observed.Pop()
		s.Report(desync(obs, 0, "observed transaction never applied"))
	}
}

// Report records a verdict and passes it to the hooks. A transaction gets
// one verdict. Later verdicts with the same sequence number are logged and
// dropped.
func (s *Scoreboard) Report(v txn.Verdict) {
	if v.Seq > 0 {
		if s.resolved[v.Seq] {
			s.duplicates++
			s.logger.Printf("[SCO] : seq %d already resolved, dropping %s (%s)",
				v.Seq, v.Outcome, v.Note)

			return
		}

		if s.resolved == nil {
			s.resolved = make(map[uint64]bool)
		}
		s.resolved[v.Seq] = true
	}

	v.Time = s.clock.Now()

	s.summary.Add(v)
	s.verdicts = append(s.verdicts, v)

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosVerdict,
		Item:   v,
	})
}
