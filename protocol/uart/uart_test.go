package uart

import (
	"fmt"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/dut"
	device "github.com/sarchlab/verikit/dut/uart"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

func buildBench(fault dut.Fault, source bench.Source, count uint64) *bench.Bench {
	return buildBenchOn(NewDevice(fault), source, count)
}

func buildBenchOn(d dut.Device, source bench.Source, count uint64) *bench.Bench {
	logger := log.New(GinkgoWriter, "", 0)

	agent, err := NewAgent(d.Pins(), bench.AgentConfig{
		MaxWaitCycles: 300,
		Logger:        logger,
	})
	Expect(err).NotTo(HaveOccurred())

	b, err := bench.MakeBuilder().
		WithLogger(logger).
		WithDevice(d).
		WithAgent(agent).
		WithSource(source).
		WithCount(count).
		WithHandshakeTimeout(600).
		Build("UARTBench")
	Expect(err).NotTo(HaveOccurred())

	return b
}

func transmit(v uint64) *txn.Transaction {
	return &txn.Transaction{Op: txn.OpTransmit, DataIn: v}
}

func receive(v uint64) *txn.Transaction {
	return &txn.Transaction{Op: txn.OpReceive, DataIn: v}
}

var _ = Describe("reverseBits", func() {
	It("should mirror the low bits", func() {
		Expect(reverseBits(0x01, 8)).To(Equal(uint64(0x80)))
		Expect(reverseBits(0xA5, 8)).To(Equal(uint64(0xA5)))
		Expect(reverseBits(0x3C, 8)).To(Equal(uint64(0x3C)))
		Expect(reverseBits(0x0B, 8)).To(Equal(uint64(0xD0)))
		Expect(reverseBits(0x1FF, 8)).To(Equal(uint64(0xFF)))
	})
})

var _ = Describe("StreamModel", func() {
	It("should match equal words", func() {
		v := StreamModel{}.Check(
			&txn.Transaction{Op: txn.OpTransmit, DataOut: 7},
			&txn.Transaction{Op: txn.OpTransmit, DataIn: 7})

		Expect(v.Outcome).To(Equal(txn.Pass))
		Expect(v.Note).To(Equal("Data Matched"))
	})

	It("should fail different words", func() {
		v := StreamModel{}.Check(
			&txn.Transaction{Op: txn.OpReceive, DataOut: 6},
			&txn.Transaction{Op: txn.OpReceive, DataIn: 7})

		Expect(v.Outcome).To(Equal(txn.Fail))
		Expect(v.Note).To(Equal("Data Mismatched"))
		Expect(v.Expected).To(Equal(uint64(7)))
		Expect(v.Actual).To(Equal(uint64(6)))
	})

	It("should fail words seen in the other direction", func() {
		v := StreamModel{}.Check(
			&txn.Transaction{Op: txn.OpReceive, DataOut: 7},
			&txn.Transaction{Op: txn.OpTransmit, DataIn: 7})

		Expect(v.Outcome).To(Equal(txn.Fail))
	})

	It("should report a missing applied word", func() {
		v := StreamModel{}.Check(&txn.Transaction{DataOut: 7}, nil)

		Expect(v.Outcome).To(Equal(txn.Error))
		Expect(v.Err).To(MatchError(ErrNothingApplied))
	})
})

var _ = Describe("UART bench", func() {
	It("should transmit a frame", func() {
		b := buildBench(dut.FaultNone, bench.NewListSource(transmit(0xA5)), 1)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Pass: 1}))

		v := b.Scoreboard().Verdicts()[0]
		Expect(v.Note).To(Equal("Data Matched"))
		Expect(v.Actual).To(Equal(uint64(0xA5)))
		Expect(v.Txn.DoneTx).To(BeTrue())
	})

	It("should receive a frame", func() {
		b := buildBench(dut.FaultNone, bench.NewListSource(receive(0x3C)), 1)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Pass: 1}))

		v := b.Scoreboard().Verdicts()[0]
		Expect(v.Actual).To(Equal(uint64(0x3C)))
		Expect(v.Txn.DoneRx).To(BeTrue())
	})

	It("should pass mixed constrained-random traffic", func() {
		spec := DefaultSpec()
		Expect(spec.CheckSatisfiable()).To(Succeed())

		b := buildBench(dut.FaultNone,
			bench.NewRandomSource(crv.NewRandomizer(3), spec), 12)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Pass: 12}))
	})

	Context("with transmit and receive clocks of different rates", func() {
		for _, halves := range [][2]int{{8, 5}, {5, 8}, {3, 7}, {8, 9}} {
			tx, rx := halves[0], halves[1]

			It(fmt.Sprintf("should pass with half periods %d and %d", tx, rx), func() {
				d := device.MakeBuilder().
					WithTxHalfPeriod(tx).
					WithRxHalfPeriod(rx).
					Build("UART")
				b := buildBenchOn(d, bench.NewRandomSource(
					crv.NewRandomizer(int64(tx*10+rx)), DefaultSpec()), 20)

				summary, err := b.Run()

				Expect(err).NotTo(HaveOccurred())
				Expect(summary).To(Equal(bench.Summary{Pass: 20}))
				Expect(b.MonitorTask().Dropped()).To(BeZero())
			})
		}
	})

	It("should catch a stuck bit in both directions", func() {
		b := buildBench(dut.FaultStuckBit, bench.NewListSource(
			transmit(0xA4), receive(0x11), receive(0x10)), 3)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Pass: 1, Fail: 2}))
		Expect(b.Scoreboard().Verdicts()[0].Actual).To(Equal(uint64(0xA5)))
	})

	It("should give one verdict per word when done never rises", func() {
		b := buildBench(dut.FaultNoDone, bench.NewListSource(
			transmit(1), receive(2)), 2)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Error: 2}))
		Expect(b.MonitorTask().Dropped()).To(Equal(uint64(2)))

		verdicts := b.Scoreboard().Verdicts()
		Expect(verdicts).To(HaveLen(2))
		for i, v := range verdicts {
			Expect(v.Seq).To(Equal(uint64(i + 1)))
			Expect(v.Err).To(MatchError(pin.ErrProtocolTimeout))
		}
		Expect(b.Scoreboard().Duplicates()).To(BeNumerically(">=", 2))
	})
})
