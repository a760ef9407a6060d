// Package txn defines the transaction that flows through a test bench and
// the verdict a scoreboard produces for it.
package txn

import (
	"fmt"
	"strings"

	"github.com/sarchlab/verikit/sim/id"
)

// Op is the kind of operation a transaction performs.
type Op uint64

// Operation kinds. Addressed buses use write and read, duplex framers use
// transmit and receive.
const (
	OpWrite Op = iota
	OpRead
	OpTransmit
	OpReceive
)

func (o Op) String() string {
	switch o {
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	case OpTransmit:
		return "transmit"
	case OpReceive:
		return "receive"
	default:
		return fmt.Sprintf("op(%d)", uint64(o))
	}
}

// Names of the fields that can be randomized or read by name.
const (
	FieldOp   = "op"
	FieldAddr = "addr"
	FieldDin  = "din"
	FieldDout = "dout"
)

// A Transaction describes one stimulus and response exchange with a device.
//
// A transaction is owned by the stage that last popped it from a channel.
// DataOut and the status flags are filled in as the exchange completes.
type Transaction struct {
	ID  string
	Seq uint64

	Op      Op
	Addr    uint64
	DataIn  uint64
	DataOut uint64

	Busy   bool
	AckErr bool
	DoneTx bool
	DoneRx bool
}

// New creates a transaction with a fresh ID.
func New() *Transaction {
	return &Transaction{ID: id.Generate()}
}

// Set writes a field by name.
func (t *Transaction) Set(field string, v uint64) error {
	switch field {
	case FieldOp:
		t.Op = Op(v)
	case FieldAddr:
		t.Addr = v
	case FieldDin:
		t.DataIn = v
	case FieldDout:
		t.DataOut = v
	default:
		return fmt.Errorf("txn: unknown field %q", field)
	}

	return nil
}

// Get reads a field by name.
func (t *Transaction) Get(field string) (uint64, error) {
	switch field {
	case FieldOp:
		return uint64(t.Op), nil
	case FieldAddr:
		return t.Addr, nil
	case FieldDin:
		return t.DataIn, nil
	case FieldDout:
		return t.DataOut, nil
	default:
		return 0, fmt.Errorf("txn: unknown field %q", field)
	}
}

// Clone returns a copy with a fresh ID.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.ID = id.Generate()

	return &c
}

// String formats the transaction the way stage logs print it.
func (t *Transaction) String() string {
	b := new(strings.Builder)

	fmt.Fprintf(b, "seq: %d op: %s addr: %d din: %d dout: %d",
		t.Seq, t.Op, t.Addr, t.DataIn, t.DataOut)

	if t.Busy {
		b.WriteString(" busy")
	}

	if t.AckErr {
		b.WriteString(" ack_err")
	}

	return b.String()
}
