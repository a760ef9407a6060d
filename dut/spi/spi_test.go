package spi

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

// transfer drives newd until the first sclk rise and returns dout when done
// rises, or false if it never does within limit edges.
func transfer(d *Device, din uint64, limit int) (uint64, bool) {
	signal(d, PinDataIn).Set(din)
	signal(d, PinNewData).Set(1)

	sclk := signal(d, PinSclk)
	done := signal(d, PinDone)

	for i := 0; i < limit; i++ {
		edge(d)

		if sclk.Rose() {
			signal(d, PinNewData).Set(0)
		}

		if done.Rose() {
			return signal(d, PinDataOut).Get(), true
		}
	}

	return 0, false
}

var _ = Describe("Device", func() {
	It("should derive sclk from the bench clock", func() {
		d := MakeBuilder().Build("SPI")
		sclk := signal(d, PinSclk)

		rises := 0
		for i := 0; i < 80; i++ {
			edge(d)
			if sclk.Rose() {
				rises++
			}
		}

		Expect(rises).To(Equal(10))
	})

	It("should loop the data back", func() {
		d := MakeBuilder().Build("SPI")

		for _, v := range []uint64{0, 1, 0xA5A, 4095} {
			dout, ok := transfer(d, v, 500)

			Expect(ok).To(BeTrue())
			Expect(dout).To(Equal(v))
		}
	})

	It("should hold sclk low in reset", func() {
		d := MakeBuilder().Build("SPI")
		signal(d, dut.PinReset).Set(1)

		for i := 0; i < 20; i++ {
			edge(d)
			Expect(signal(d, PinSclk).Get()).To(Equal(uint64(0)))
		}
	})

	It("should flip the data with a corrupt read fault", func() {
		d := MakeBuilder().WithFault(dut.FaultCorruptRead).Build("SPI")

		dout, ok := transfer(d, 4095, 500)

		Expect(ok).To(BeTrue())
		Expect(dout).To(Equal(uint64(0)))
	})

	It("should not finish with a no done fault", func() {
		d := MakeBuilder().WithFault(dut.FaultNoDone).Build("SPI")

		_, ok := transfer(d, 7, 500)

		Expect(ok).To(BeFalse())
	})
})
