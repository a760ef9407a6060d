package bench

import (
	"log"

	"github.com/sarchlab/verikit/txn"
)

// A DriverTask feeds stimulus transactions to a protocol driver, in the
// order they were generated.
type DriverTask struct {
	name     string
	driver   Driver
	in       *Channel
	reporter Reporter
	logger   *log.Logger

	current *txn.Transaction
	applied uint64
	errors  uint64
}

// Name returns the name of the task.
func (d *DriverTask) Name() string {
	return d.name
}

// Busy tells if a transaction is being driven.
func (d *DriverTask) Busy() bool {
	return d.current != nil
}

// Applied returns the number of transactions driven to completion.
func (d *DriverTask) Applied() uint64 {
	return d.applied
}

// Errors returns the number of transactions given up.
func (d *DriverTask) Errors() uint64 {
	return d.errors
}

// Tick runs the driver for one cycle.
func (d *DriverTask) Tick() {
	if d.current != nil && !d.step() {
		return
	}

	t := d.in.Pop()
	if t == nil {
		return
	}

	d.logger.Printf("[DRV] : %s", t)

	d.current = t
	d.driver.Start(t)
}

func (d *DriverTask) step() bool {
	done, err := d.driver.Step()
	if err != nil {
		d.errors++
		d.logger.Printf("[DRV] : seq %d aborted: %v", d.current.Seq, err)
		d.reporter.Report(txn.Verdict{
			Outcome:  txn.Error,
			Seq:      d.current.Seq,
			Txn:      d.current,
			Expected: d.current.DataIn,
			Err:      err,
			Note:     "driver",
		})
		d.driver.Abort()
		d.current = nil

		return true
	}

	if !done {
		return false
	}

	d.applied++
	d.current = nil

	return true
}
