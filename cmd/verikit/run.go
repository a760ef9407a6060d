package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/monitoring"
	"github.com/sarchlab/verikit/protocol"
	"github.com/sarchlab/verikit/report"
	"github.com/sarchlab/verikit/sim/timing"
	"github.com/spf13/cobra"
)

var (
	errRunFailed    = errors.New("run failed")
	errInvalidValue = errors.New("invalid flag value")
)

type runOptions struct {
	protocol         string
	count            uint64
	seed             int64
	fault            string
	maxWaitCycles    int
	handshakeTimeout uint64
	resetCycles      uint64
	maxCycles        uint64
	duration         time.Duration
	quiet            bool
	traceEvents      bool
	sqlite           bool
	csv              bool
	output           string
	monitor          bool
	monitorPort      int
	openBrowser      bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a bench against a simulated device.",
		Long: `Run drives constrained-random transactions into the device of ` +
			`a protocol and prints a verdict for every transaction. The ` +
			`command fails unless every verdict is a pass.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.protocol, "protocol", "p", "regbus",
		"Protocol to verify")
	f.Uint64VarP(&opts.count, "count", "n", 5,
		"Number of transactions")
	f.Int64Var(&opts.seed, "seed", 1,
		"Seed of the randomizer")
	f.StringVar(&opts.fault, "fault", "none",
		"Fault to inject in the device")
	f.IntVar(&opts.maxWaitCycles, "max-wait", bench.DefaultMaxWaitCycles,
		"Cycles a driver or monitor waits for a signal before giving up")
	f.Uint64Var(&opts.handshakeTimeout, "handshake-timeout",
		5*bench.DefaultMaxWaitCycles,
		"Cycles the generator waits for a transaction to be checked")
	f.Uint64Var(&opts.resetCycles, "reset-cycles", 5,
		"Cycles the device is held in reset")
	f.Uint64Var(&opts.maxCycles, "max-cycles", 0,
		"Stop after this many cycles, 0 for no limit")
	f.DurationVar(&opts.duration, "duration", 0,
		"Stop after this much simulated time, 0 for no limit")
	f.BoolVarP(&opts.quiet, "quiet", "q", false,
		"Only print the summary")
	f.BoolVar(&opts.traceEvents, "trace-events", false,
		"Log every simulation event")
	f.BoolVar(&opts.sqlite, "sqlite", false,
		"Record the verdicts in a SQLite database")
	f.BoolVar(&opts.csv, "csv", false,
		"Record the verdicts in a CSV file")
	f.StringVarP(&opts.output, "output", "o", "",
		"Path of the recording files without extension, "+
			"a unique name is used if empty")
	f.BoolVar(&opts.monitor, "monitor", false,
		"Serve the monitoring API while the bench runs")
	f.IntVar(&opts.monitorPort, "monitor-port", 0,
		"Port of the monitoring server, random if 0")
	f.BoolVar(&opts.openBrowser, "open-browser", false,
		"Open the monitoring server in a browser")

	return cmd
}

func (o *runOptions) validate() error {
	switch {
	case o.count == 0:
		return fmt.Errorf("%w: --count must be at least 1", errInvalidValue)
	case o.handshakeTimeout == 0:
		return fmt.Errorf("%w: --handshake-timeout must be at least 1",
			errInvalidValue)
	case o.maxWaitCycles <= 0:
		return fmt.Errorf("%w: --max-wait must be at least 1", errInvalidValue)
	}

	return nil
}

func runBench(out io.Writer, opts *runOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	k, err := protocol.Lookup(opts.protocol)
	if err != nil {
		return err
	}

	fault, err := dut.ParseFault(opts.fault)
	if err != nil {
		return err
	}

	logger := log.New(out, "", 0)
	if opts.quiet {
		logger = log.New(io.Discard, "", 0)
	}

	b, err := k.Build(protocol.Options{
		Seed:             opts.seed,
		Count:            opts.count,
		Fault:            fault,
		MaxWaitCycles:    opts.maxWaitCycles,
		HandshakeTimeout: opts.handshakeTimeout,
		ResetCycles:      opts.resetCycles,
		MaxCycles:        opts.maxCycles,
		Duration:         timing.VTimeInSec(opts.duration.Seconds()),
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	if opts.traceEvents {
		b.Engine().AcceptHook(timing.NewEventLogger(logger))
	}

	closers, err := attachRecorders(b, opts)
	if err != nil {
		return err
	}

	if opts.monitor {
		startMonitor(b, opts)
	}

	summary, err := b.Run()

	for _, c := range closers {
		if closeErr := c.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %s after %d cycles (%s)\n",
		k.Name, summary, b.Cycle(), b.StopReason())

	if !summary.Success() {
		return fmt.Errorf("%w: %s", errRunFailed, summary)
	}

	return nil
}

func attachRecorders(b *bench.Bench, opts *runOptions) ([]io.Closer, error) {
	var closers []io.Closer

	if opts.sqlite {
		r, err := report.NewSQLiteRecorder(opts.output)
		if err != nil {
			return nil, err
		}

		b.Scoreboard().AcceptHook(r)
		closers = append(closers, r)
		log.Printf("Recording verdicts to %s", filepath.Clean(r.Path()))
	}

	if opts.csv {
		r, err := report.NewCSVRecorder(opts.output)
		if err != nil {
			closeAll(closers)
			return nil, err
		}

		b.Scoreboard().AcceptHook(r)
		closers = append(closers, r)
		log.Printf("Recording verdicts to %s", filepath.Clean(r.Path()))
	}

	return closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

func startMonitor(b *bench.Bench, opts *runOptions) {
	m := monitoring.NewMonitor()

	if opts.monitorPort != 0 {
		m = m.WithPortNumber(opts.monitorPort)
	}

	if opts.openBrowser {
		m = m.WithBrowser()
	}

	m.RegisterBench(b)
	m.StartServer()
}
