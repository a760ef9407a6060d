package spi

import (
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/verikit/bench"
	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
	"github.com/sarchlab/verikit/txn"
)

func words(values ...uint64) bench.Source {
	list := make([]*txn.Transaction, 0, len(values))
	for _, v := range values {
		list = append(list, &txn.Transaction{DataIn: v})
	}

	return bench.NewListSource(list...)
}

func buildBench(fault dut.Fault, source bench.Source, count uint64) *bench.Bench {
	logger := log.New(GinkgoWriter, "", 0)
	d := NewDevice(fault)

	agent, err := NewAgent(d.Pins(), bench.AgentConfig{
		MaxWaitCycles: 200,
		Logger:        logger,
	})
	Expect(err).NotTo(HaveOccurred())

	b, err := bench.MakeBuilder().
		WithLogger(logger).
		WithDevice(d).
		WithAgent(agent).
		WithSource(source).
		WithCount(count).
		WithHandshakeTimeout(500).
		Build("SPIBench")
	Expect(err).NotTo(HaveOccurred())

	return b
}

var _ = Describe("LoopbackModel", func() {
	It("should pass matching words", func() {
		v := LoopbackModel{}.Check(&txn.Transaction{DataIn: 9, DataOut: 9}, nil)

		Expect(v.Outcome).To(Equal(txn.Pass))
		Expect(v.Note).To(Equal("Test Passed"))
	})

	It("should fail different words", func() {
		v := LoopbackModel{}.Check(&txn.Transaction{DataIn: 9, DataOut: 8}, nil)

		Expect(v.Outcome).To(Equal(txn.Fail))
		Expect(v.Note).To(Equal("Test Failed"))
		Expect(v.Expected).To(Equal(uint64(9)))
		Expect(v.Actual).To(Equal(uint64(8)))
	})
})

var _ = Describe("SPI bench", func() {
	It("should loop back full width words", func() {
		b := buildBench(dut.FaultNone, words(4095, 0, 0xA5A), 3)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Pass: 3}))

		v := b.Scoreboard().Verdicts()[0]
		Expect(v.Txn.DataIn).To(Equal(uint64(4095)))
		Expect(v.Actual).To(Equal(uint64(4095)))
	})

	It("should pass constrained-random words", func() {
		spec := DefaultSpec()
		Expect(spec.CheckSatisfiable()).To(Succeed())

		b := buildBench(dut.FaultNone,
			bench.NewRandomSource(crv.NewRandomizer(7), spec), 10)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Pass: 10}))
	})

	It("should fail on corrupted words", func() {
		b := buildBench(dut.FaultCorruptRead, words(0, 4094), 2)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Fail: 2}))
		Expect(b.Scoreboard().Verdicts()[0].Actual).To(Equal(uint64(4095)))
	})

	It("should flag only the words with bit zero clear on a stuck bit", func() {
		b := buildBench(dut.FaultStuckBit, words(1, 2), 2)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Pass: 1, Fail: 1}))
	})

	It("should drop the observation when done never rises", func() {
		b := buildBench(dut.FaultNoDone, words(5), 1)

		summary, err := b.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(Equal(bench.Summary{Error: 1}))
		Expect(b.MonitorTask().Dropped()).To(Equal(uint64(1)))
		Expect(b.Scoreboard().Verdicts()[0].Err).
			To(MatchError(pin.ErrProtocolTimeout))
	})
})
