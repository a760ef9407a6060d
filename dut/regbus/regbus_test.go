package regbus

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/pin"
)

func signal(d *Device, name string) *pin.Signal {
	s, err := d.Pins().Lookup(name)
	Expect(err).NotTo(HaveOccurred())

	return s
}

func edge(d *Device) {
	d.Pins().Latch()
	d.Eval()
}

// request holds newd for strobe cycles and returns the number of edges until
// done rose, or -1 if it never did within limit edges.
func request(d *Device, op, addr, din uint64, strobe, limit int) int {
	signal(d, PinOp).Set(op)
	signal(d, PinAddr).Set(addr)
	signal(d, PinDataIn).Set(din)
	signal(d, PinNewData).Set(1)

	done := signal(d, PinDone)

	for i := 1; i <= limit; i++ {
		edge(d)

		if i == strobe {
			signal(d, PinNewData).Set(0)
		}

		if done.Rose() {
			return i
		}
	}

	return -1
}

var _ = Describe("Device", func() {
	var d *Device

	BeforeEach(func() {
		d = MakeBuilder().WithLatency(10).Build("RegBus")
	})

	It("should expose the bus pins", func() {
		Expect(d.Pins().Names()).To(ConsistOf(
			dut.PinReset, PinNewData, PinOp, PinAddr, PinDataIn,
			PinDataOut, PinDone, PinBusy, PinAckErr))
	})

	It("should be identity seeded", func() {
		for i := uint64(0); i < 128; i++ {
			Expect(d.Peek(i)).To(Equal(i))
		}
	})

	It("should write and read back", func() {
		Expect(request(d, OpWrite, 1, 37, 5, 100)).To(Equal(11))
		Expect(d.Peek(1)).To(Equal(uint64(37)))

		Expect(request(d, OpRead, 1, 0, 5, 100)).To(Equal(11))
		Expect(signal(d, PinDataOut).Get()).To(Equal(uint64(37)))
	})

	It("should be busy until done", func() {
		signal(d, PinNewData).Set(1)
		edge(d)

		Expect(d.Busy()).To(BeTrue())
		Expect(signal(d, PinBusy).Get()).To(Equal(uint64(1)))
	})

	It("should pulse done for one cycle", func() {
		request(d, OpRead, 2, 0, 5, 100)
		edge(d)

		Expect(signal(d, PinDone).Get()).To(Equal(uint64(0)))
	})

	It("should accept a held strobe only once", func() {
		Expect(request(d, OpWrite, 3, 9, 100, 100)).To(Equal(11))

		for i := 0; i < 20; i++ {
			edge(d)
			Expect(d.Busy()).To(BeFalse())
		}
	})

	It("should restore the registers on reset", func() {
		request(d, OpWrite, 4, 99, 5, 100)

		signal(d, dut.PinReset).Set(1)
		edge(d)

		Expect(d.Peek(4)).To(Equal(uint64(4)))
	})

	Context("with faults", func() {
		It("should never raise done", func() {
			d = MakeBuilder().WithLatency(10).WithFault(dut.FaultNoDone).Build("RegBus")

			Expect(request(d, OpRead, 2, 0, 5, 100)).To(Equal(-1))
		})

		It("should refuse requests with an acknowledge error", func() {
			d = MakeBuilder().WithLatency(10).WithFault(dut.FaultNack).Build("RegBus")

			Expect(request(d, OpWrite, 5, 77, 5, 100)).To(Equal(11))
			Expect(signal(d, PinAckErr).Get()).To(Equal(uint64(1)))
			Expect(d.Peek(5)).To(Equal(uint64(5)))

			signal(d, PinNewData).Set(1)
			edge(d)
			Expect(signal(d, PinAckErr).Get()).To(Equal(uint64(0)))
		})

		It("should corrupt reads", func() {
			d = MakeBuilder().WithLatency(10).WithFault(dut.FaultStuckBit).Build("RegBus")

			request(d, OpRead, 2, 0, 5, 100)

			Expect(signal(d, PinDataOut).Get()).To(Equal(uint64(3)))
		})
	})
})
