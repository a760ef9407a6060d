// Package report stores the verdicts of a run so that they can be analyzed
// after the simulation.
package report

import (
	"reflect"

	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/txn"
)

// A Record is one verdict as stored by the recorders.
type Record struct {
	Scoreboard string
	Seq        uint64
	Outcome    string
	Op         string
	Addr       uint64
	DataIn     uint64
	DataOut    uint64
	Expected   uint64
	Actual     uint64
	Time       float64
	Note       string
	Error      string
}

// NewRecord flattens a verdict.
func NewRecord(scoreboard string, v txn.Verdict) Record {
	r := Record{
		Scoreboard: scoreboard,
		Seq:        v.Seq,
		Outcome:    v.Outcome.String(),
		Expected:   v.Expected,
		Actual:     v.Actual,
		Time:       v.Time,
		Note:       v.Note,
	}

	if v.Txn != nil {
		r.Op = v.Txn.Op.String()
		r.Addr = v.Txn.Addr
		r.DataIn = v.Txn.DataIn
		r.DataOut = v.Txn.DataOut
	}

	if v.Err != nil {
		r.Error = v.Err.Error()
	}

	return r
}

func recordFieldNames() []string {
	t := reflect.TypeOf(Record{})

	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		names = append(names, t.Field(i).Name)
	}

	return names
}

func (r Record) values() []any {
	v := reflect.ValueOf(r)

	values := make([]any, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		values = append(values, v.Field(i).Interface())
	}

	return values
}

type named interface {
	Name() string
}

// recordFromHook turns a verdict hook into a record. It returns false for
// the other hook positions.
func recordFromHook(ctx hooking.HookCtx) (Record, bool) {
	if ctx.Pos != bench.HookPosVerdict {
		return Record{}, false
	}

	v, ok := ctx.Item.(txn.Verdict)
	if !ok {
		return Record{}, false
	}

	scoreboard := ""
	if n, ok := ctx.Domain.(named); ok {
		scoreboard = n.Name()
	}

	return NewRecord(scoreboard, v), true
}
