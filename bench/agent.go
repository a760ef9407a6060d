package bench

import (
	"io"
	"log"

	"github.com/sarchlab/verikit/txn"
)

// DefaultMaxWaitCycles bounds every wait on a device signal.
const DefaultMaxWaitCycles = 1000

// A Driver turns transactions into pin activity. Start is called in the cycle
// a transaction is picked up and Step once in every following cycle until
// it reports completion or an error.
type Driver interface {
	// Reset drives all inputs to their idle values.
	Reset()
	Start(t *txn.Transaction)
	Step() (done bool, err error)

	// Abort gives up the current transaction and returns the inputs to
	// idle.
	Abort()
}

// A Monitor watches the pins and rebuilds the transactions that happened.
// Sample is called once per cycle. It returns a transaction when one
// completes and an error when a partial observation is given up.
type Monitor interface {
	Reset()
	Sample() (*txn.Transaction, error)
}

// A ReferenceModel predicts the correct behavior of a device. Applied is the
// transaction the driver reported it applied, or nil for protocols that
// check the observed transaction alone.
type ReferenceModel interface {
	Reset()
	Check(observed, applied *txn.Transaction) txn.Verdict
}

// An AppliedPublisher is a driver that reports what it applied to a
// separate stream.
type AppliedPublisher interface {
	PublishTo(ch *Channel)
}

// A Reporter accepts verdicts that are not produced by a check.
type Reporter interface {
	Report(v txn.Verdict)
}

// An Agent bundles the protocol-specific parts of a bench.
type Agent struct {
	Driver  Driver
	Monitor Monitor
	Model   ReferenceModel

	// Applied is set for protocols that check the applied stream against
	// the observed stream.
	Applied AppliedPublisher
}

// AgentConfig carries the settings shared by the protocol agents.
type AgentConfig struct {
	MaxWaitCycles int
	Logger        *log.Logger
}

// DefaultAgentConfig returns a config with the default wait bound and a
// discarding logger.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		MaxWaitCycles: DefaultMaxWaitCycles,
		Logger:        log.New(io.Discard, "", 0),
	}
}

// Normalize fills in the unset fields with defaults.
func (c AgentConfig) Normalize() AgentConfig {
	if c.MaxWaitCycles <= 0 {
		c.MaxWaitCycles = DefaultMaxWaitCycles
	}

	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}

	return c
}
