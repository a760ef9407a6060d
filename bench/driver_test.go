package bench

import (
	"fmt"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/verikit/txn"
)

var _ = ginkgo.Describe("DriverTask", func() {
	var (
		mockCtrl *gomock.Controller
		driver   *MockDriver
		reporter *MockReporter
		in       *Channel
		d        *DriverTask
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		driver = NewMockDriver(mockCtrl)
		reporter = NewMockReporter(mockCtrl)
		in = NewChannel("Stimulus")

		d = &DriverTask{
			name:     "Driver",
			driver:   driver,
			in:       in,
			reporter: reporter,
			logger:   testLogger(),
		}
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should do nothing without stimulus", func() {
		d.Tick()

		Expect(d.Busy()).To(BeFalse())
	})

	ginkgo.It("should start a transaction and step it until done", func() {
		t := txn.New()
		in.Push(t)

		driver.EXPECT().Start(t)
		d.Tick()
		Expect(d.Busy()).To(BeTrue())

		driver.EXPECT().Step().Return(false, nil)
		d.Tick()
		Expect(d.Busy()).To(BeTrue())

		driver.EXPECT().Step().Return(true, nil)
		d.Tick()
		Expect(d.Busy()).To(BeFalse())
		Expect(d.Applied()).To(Equal(uint64(1)))
	})

	ginkgo.It("should pick up the next transaction in the cycle the last one ends", func() {
		t1 := txn.New()
		t2 := txn.New()
		in.Push(t1)

		driver.EXPECT().Start(t1)
		d.Tick()

		in.Push(t2)
		gomock.InOrder(
			driver.EXPECT().Step().Return(true, nil),
			driver.EXPECT().Start(t2),
		)
		d.Tick()

		Expect(d.Busy()).To(BeTrue())
	})

	ginkgo.It("should report a protocol timeout and abort", func() {
		t := txn.New()
		t.Seq = 4
		in.Push(t)

		driver.EXPECT().Start(t)
		d.Tick()

		driver.EXPECT().Step().
			Return(false, fmt.Errorf("%w: done", ErrProtocolTimeout))
		driver.EXPECT().Abort()
		reporter.EXPECT().Report(gomock.Any()).Do(func(v txn.Verdict) {
			Expect(v.Outcome).To(Equal(txn.Error))
			Expect(v.Seq).To(Equal(uint64(4)))
			Expect(v.Err).To(MatchError(ErrProtocolTimeout))
		})
		d.Tick()

		Expect(d.Busy()).To(BeFalse())
		Expect(d.Errors()).To(Equal(uint64(1)))
	})
})
