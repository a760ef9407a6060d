package bench

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/txn"
)

// ErrSourceExhausted is returned by a ListSource that has no transaction
// left.
var ErrSourceExhausted = errors.New("bench: stimulus source exhausted")

// A Source provides stimulus transactions.
type Source interface {
	Next() (*txn.Transaction, error)
}

// RandomSource draws constrained-random transactions.
type RandomSource struct {
	randomizer *crv.Randomizer
	spec       *crv.Spec
}

// NewRandomSource creates a source that draws from spec.
func NewRandomSource(r *crv.Randomizer, spec *crv.Spec) *RandomSource {
	return &RandomSource{randomizer: r, spec: spec}
}

// Next draws a transaction.
func (s *RandomSource) Next() (*txn.Transaction, error) {
	return s.randomizer.Generate(s.spec)
}

// ListSource replays a fixed list of transactions, for directed tests.
type ListSource struct {
	txns []*txn.Transaction
	next int
}

// NewListSource creates a source that returns copies of txns in order.
func NewListSource(txns ...*txn.Transaction) *ListSource {
	return &ListSource{txns: txns}
}

// Next returns a copy of the next transaction in the list.
func (s *ListSource) Next() (*txn.Transaction, error) {
	if s.next >= len(s.txns) {
		return nil, ErrSourceExhausted
	}

	t := s.txns[s.next].Clone()
	s.next++

	return t, nil
}

// Len returns the number of transactions in the list.
func (s *ListSource) Len() int {
	return len(s.txns)
}

// A Generator issues stimulus transactions one at a time. After pushing a
// transaction it waits for the completion signal before issuing the next.
//
// If the signal does not arrive within the handshake timeout, the
// transaction is reported as an error and the generator moves on. The
// scoreboard keeps only the first verdict of a transaction, so the timeout
// report is dropped when the driver has already given up on it.
type Generator struct {
	*hooking.HookableBase

	name     string
	source   Source
	out      *Channel
	done     *CompletionSignal
	reporter Reporter
	logger   *log.Logger

	count   uint64
	timeout uint64

	issued  uint64
	waiting bool
	waited  uint64
	current *txn.Transaction
	failed  bool
}

// Name returns the name of the generator.
func (g *Generator) Name() string {
	return g.name
}

// Issued returns the number of transactions issued so far.
func (g *Generator) Issued() uint64 {
	return g.issued
}

// Count returns the number of transactions to issue.
func (g *Generator) Count() uint64 {
	return g.count
}

// InFlight returns the number of transactions issued but not yet checked,
// which is never more than one.
func (g *Generator) InFlight() int {
	if g.waiting {
		return 1
	}

	return 0
}

// Done tells if all transactions are issued and the last one is resolved.
func (g *Generator) Done() bool {
	return !g.waiting && (g.failed || g.issued >= g.count)
}

// Tick runs the generator for one cycle.
func (g *Generator) Tick() {
	if g.waiting && !g.resolve() {
		return
	}

	if g.failed || g.issued >= g.count {
		return
	}

	g.issue()
}

func (g *Generator) resolve() bool {
	if g.done.IsSignaled() {
		seq := g.done.Seq()
		g.done.Clear()

		if seq == g.current.Seq {
			g.finishCurrent()
			return true
		}

		g.logger.Printf("[GEN] : ignoring completion of seq %d while waiting for seq %d",
			seq, g.current.Seq)
	}

	g.waited++
	if g.waited < g.timeout {
		return false
	}

	g.reporter.Report(txn.Verdict{
		Outcome:  txn.Error,
		Seq:      g.current.Seq,
		Txn:      g.current,
		Expected: g.current.DataIn,
		Err: fmt.Errorf("%w: transaction %d not checked in %d cycles",
			ErrHandshakeTimeout, g.current.Seq, g.timeout),
		Note: "generator",
	})

	g.done.Clear()
	g.finishCurrent()

	return true
}

func (g *Generator) finishCurrent() {
	g.InvokeHook(hooking.HookCtx{
		Domain: g,
		Pos:    hooking.HookPosTaskEnd,
		Item:   hooking.TaskEnd{ID: g.current.ID},
		Detail: g.current,
	})

	g.waiting = false
	g.current = nil
}

func (g *Generator) issue() {
	t, err := g.source.Next()
	if err != nil {
		g.failed = true
		g.logger.Printf("[GEN] : stopped after %d transactions: %v",
			g.issued, err)
		g.reporter.Report(txn.Verdict{
			Outcome: txn.Error,
			Seq:     g.issued + 1,
			Err:     err,
			Note:    "generator",
		})

		return
	}

	g.issued++
	t.Seq = g.issued

	g.logger.Printf("[GEN] : %s", t)

	g.InvokeHook(hooking.HookCtx{
		Domain: g,
		Pos:    hooking.HookPosTaskStart,
		Item: hooking.TaskStart{
			ID:    t.ID,
			Kind:  "transaction",
			What:  t.Op.String(),
			Where: g.name,
		},
		Detail: t,
	})

	g.current = t
	g.waiting = true
	g.waited = 0
	g.out.Push(t)
}
