package bench

import (
	"bytes"
	"log"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/txn"
)

// echoDevice returns data on out three cycles after req is seen high, with
// a one-cycle ack pulse.
type echoDevice struct {
	pins              *pin.Interface
	rst, req, data    *pin.Signal
	ack, out          *pin.Signal
	latched, countdwn uint64
	mute              bool
}

func newEchoDevice(withReset bool) *echoDevice {
	d := &echoDevice{pins: pin.NewInterface("Echo")}

	if withReset {
		d.rst = d.pins.Add(dut.PinReset, 1, pin.In)
	}

	d.req = d.pins.Add("req", 1, pin.In)
	d.data = d.pins.Add("data", 8, pin.In)
	d.ack = d.pins.Add("ack", 1, pin.Out)
	d.out = d.pins.Add("out", 8, pin.Out)

	return d
}

func (d *echoDevice) Name() string         { return "Echo" }
func (d *echoDevice) Pins() *pin.Interface { return d.pins }

func (d *echoDevice) Eval() {
	d.ack.Set(0)

	if d.rst.Bit() {
		d.countdwn = 0
		return
	}

	if d.countdwn == 0 {
		if d.req.Bit() {
			d.latched = d.data.Get()
			d.countdwn = 3
		}

		return
	}

	d.countdwn--
	if d.countdwn == 0 && !d.mute {
		d.out.Set(d.latched)
		d.ack.Set(1)
	}
}

type echoDriver struct {
	d       *echoDevice
	waiter  *pin.Waiter
	current *txn.Transaction
}

func (e *echoDriver) Reset() {
	e.d.req.Set(0)
	e.d.data.Set(0)
}

func (e *echoDriver) Start(t *txn.Transaction) {
	e.current = t
	e.d.data.Set(t.DataIn)
	e.d.req.Set(1)
	e.waiter.Arm(e.d.ack, pin.Rising)
}

func (e *echoDriver) Step() (bool, error) {
	ok, err := e.waiter.Poll()
	if err != nil || !ok {
		return false, err
	}

	e.d.req.Set(0)
	e.current.DataOut = e.d.out.Get()

	return true, nil
}

func (e *echoDriver) Abort() {
	e.waiter.Disarm()
	e.d.req.Set(0)
}

type echoMonitor struct {
	d *echoDevice
}

func (m *echoMonitor) Reset() {}

func (m *echoMonitor) Sample() (*txn.Transaction, error) {
	if !m.d.ack.Rose() {
		return nil, nil
	}

	t := txn.New()
	t.DataIn = m.d.data.Get()
	t.DataOut = m.d.out.Get()

	return t, nil
}

type echoModel struct{}

func (echoModel) Reset() {}

func (echoModel) Check(observed, _ *txn.Transaction) txn.Verdict {
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

func echoAgent(d *echoDevice, maxWait int) Agent {
	return Agent{
		Driver:  &echoDriver{d: d, waiter: pin.NewWaiter(maxWait)},
		Monitor: &echoMonitor{d: d},
		Model:   echoModel{},
	}
}

func echoSpec() *crv.Spec {
	return crv.NewSpec().Rand(txn.FieldDin, crv.Range(0, 255))
}

var _ = ginkgo.Describe("Bench", func() {
	var (
		device *echoDevice
		logBuf *bytes.Buffer
		b      Builder
	)

	ginkgo.BeforeEach(func() {
		device = newEchoDevice(true)
		logBuf = new(bytes.Buffer)

		b = MakeBuilder().
			WithLogger(log.New(logBuf, "", 0)).
			WithDevice(device).
			WithAgent(echoAgent(device, 20)).
			WithSource(NewRandomSource(crv.NewRandomizer(1), echoSpec()))
	})

	ginkgo.It("should check every transaction", func() {
		bench, err := b.Build("Bench")
		Expect(err).NotTo(HaveOccurred())

		summary, err := bench.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(Summary{Pass: 5}))
		Expect(summary.Success()).To(BeTrue())
		Expect(bench.Finished()).To(BeTrue())
		Expect(bench.StopReason()).To(Equal("all transactions completed"))
		Expect(bench.Completion().Count()).To(Equal(uint64(5)))
	})

	ginkgo.It("should hold reset for five cycles", func() {
		bench, err := b.WithCount(1).Build("Bench")
		Expect(err).NotTo(HaveOccurred())

		_, err = bench.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(logBuf.String()).To(ContainSubstring("Reset Applied @ : 0 ns"))
		Expect(logBuf.String()).To(ContainSubstring("Reset Removed @ : 40 ns"))
		Expect(logBuf.String()).To(ContainSubstring("[GEN]"))
		Expect(logBuf.String()).To(ContainSubstring("[SCO] : Test Passed"))
	})

	ginkgo.It("should keep one transaction in flight", func() {
		bench, err := b.WithCount(20).Build("Bench")
		Expect(err).NotTo(HaveOccurred())

		tracer := hooking.NewInFlightTracer(bench.Engine(), nil)
		bench.Generator().AcceptHook(tracer)

		_, err = bench.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(tracer.TotalCount()).To(Equal(uint64(20)))
		Expect(tracer.MaxInFlight()).To(Equal(1))
	})

	ginkgo.It("should produce the same stimulus for the same seed", func() {
		collect := func() []uint64 {
			d := newEchoDevice(true)
			bench, err := MakeBuilder().
				WithLogger(log.New(ginkgo.GinkgoWriter, "", 0)).
				WithDevice(d).
				WithAgent(echoAgent(d, 20)).
				WithSource(NewRandomSource(crv.NewRandomizer(7), echoSpec())).
				WithCount(10).
				Build("Bench")
			Expect(err).NotTo(HaveOccurred())

			_, err = bench.Run()
			Expect(err).NotTo(HaveOccurred())

			values := []uint64{}
			for _, v := range bench.Scoreboard().Verdicts() {
				values = append(values, v.Txn.DataIn)
			}

			return values
		}

		Expect(collect()).To(Equal(collect()))
	})

	ginkgo.It("should turn an unresponsive device into errors", func() {
		device.mute = true

		bench, err := b.
			WithCount(2).
			WithHandshakeTimeout(50).
			Build("Bench")
		Expect(err).NotTo(HaveOccurred())

		summary, err := bench.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(Summary{Error: 2}))
		Expect(bench.Scoreboard().Duplicates()).To(Equal(uint64(2)))

		for i, v := range bench.Scoreboard().Verdicts() {
			Expect(v.Seq).To(Equal(uint64(i + 1)))
			Expect(v.Err).To(MatchError(ErrProtocolTimeout))
		}
	})

	ginkgo.It("should stop at the cycle limit", func() {
		device.mute = true

		bench, err := b.WithMaxCycles(30).Build("Bench")
		Expect(err).NotTo(HaveOccurred())

		_, err = bench.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(bench.Cycle()).To(BeNumerically("<=", 31))
		Expect(bench.StopReason()).To(Equal("cycle limit reached"))
	})

	ginkgo.It("should stop at the duration", func() {
		bench, err := b.WithCount(100).WithDuration(1e-6).Build("Bench")
		Expect(err).NotTo(HaveOccurred())

		_, err = bench.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(bench.Cycle()).To(BeNumerically("<=", 101))
	})

	ginkgo.It("should reject a device without reset", func() {
		d := newEchoDevice(false)

		_, err := b.WithDevice(d).WithAgent(echoAgent(d, 20)).Build("Bench")

		Expect(err).To(MatchError(pin.ErrUnknownSignal))
	})

	ginkgo.It("should reject missing parts", func() {
		_, err := MakeBuilder().WithDevice(device).Build("Bench")

		Expect(err).To(MatchError(ErrIncomplete))
	})
})
