package bench

import (
	"errors"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/verikit/crv"
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/txn"
)

type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 {
	return c.now
}

var _ = ginkgo.Describe("Generator", func() {
	var (
		mockCtrl *gomock.Controller
		source   *MockSource
		reporter *MockReporter
		out      *Channel
		done     *CompletionSignal
		g        *Generator
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		source = NewMockSource(mockCtrl)
		reporter = NewMockReporter(mockCtrl)
		out = NewChannel("Stimulus")
		done = NewCompletionSignal()

		g = &Generator{
			HookableBase: hooking.NewHookableBase(),
			name:         "Gen",
			source:       source,
			out:          out,
			done:         done,
			reporter:     reporter,
			logger:       testLogger(),
			count:        3,
			timeout:      10,
		}
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should issue one transaction and wait", func() {
		source.EXPECT().Next().Return(txn.New(), nil)

		g.Tick()
		g.Tick()
		g.Tick()

		Expect(out.Size()).To(Equal(1))
		Expect(out.Peek().Seq).To(Equal(uint64(1)))
		Expect(g.InFlight()).To(Equal(1))
		Expect(g.Done()).To(BeFalse())
	})

	ginkgo.It("should issue the next transaction once signaled", func() {
		source.EXPECT().Next().Return(txn.New(), nil).Times(2)

		g.Tick()
		done.Signal(1)
		g.Tick()

		Expect(out.Size()).To(Equal(2))
		Expect(done.IsSignaled()).To(BeFalse())
		out.Pop()
		Expect(out.Pop().Seq).To(Equal(uint64(2)))
	})

	ginkgo.It("should be done after the last transaction is checked", func() {
		source.EXPECT().Next().Return(txn.New(), nil).Times(3)

		for i := 0; i < 3; i++ {
			g.Tick()
			done.Signal(uint64(i + 1))
		}

		Expect(g.Done()).To(BeFalse())

		g.Tick()

		Expect(g.Done()).To(BeTrue())
		Expect(g.Issued()).To(Equal(uint64(3)))
	})

	ginkgo.It("should report a handshake timeout and move on", func() {
		source.EXPECT().Next().Return(txn.New(), nil).Times(2)
		reporter.EXPECT().Report(gomock.Any()).Do(func(v txn.Verdict) {
			Expect(v.Outcome).To(Equal(txn.Error))
			Expect(v.Seq).To(Equal(uint64(1)))
			Expect(v.Err).To(MatchError(ErrHandshakeTimeout))
		})

		for i := 0; i < 11; i++ {
			g.Tick()
		}

		Expect(out.Size()).To(Equal(2))
		Expect(g.InFlight()).To(Equal(1))
	})

	ginkgo.It("should ignore the completion of an older transaction", func() {
		g.count = 2
		source.EXPECT().Next().Return(txn.New(), nil).Times(2)
		reporter.EXPECT().Report(gomock.Any())

		for i := 0; i < 11; i++ {
			g.Tick()
		}
		Expect(g.Issued()).To(Equal(uint64(2)))

		done.Signal(1)
		g.Tick()

		Expect(done.IsSignaled()).To(BeFalse())
		Expect(g.InFlight()).To(Equal(1))
		Expect(out.Size()).To(Equal(2))

		done.Signal(2)
		g.Tick()

		Expect(g.InFlight()).To(Equal(0))
	})

	ginkgo.It("should stop when the source fails", func() {
		source.EXPECT().Next().Return(nil, crv.ErrUnsatisfiable)
		reporter.EXPECT().Report(gomock.Any()).Do(func(v txn.Verdict) {
			Expect(errors.Is(v.Err, crv.ErrUnsatisfiable)).To(BeTrue())
		})

		g.Tick()
		g.Tick()

		Expect(out.Size()).To(Equal(0))
		Expect(g.Done()).To(BeTrue())
	})

	ginkgo.It("should never have two transactions in flight", func() {
		clock := &fakeClock{}
		tracer := hooking.NewInFlightTracer(clock, nil)
		g.AcceptHook(tracer)
		g.count = 20

		source.EXPECT().Next().DoAndReturn(func() (*txn.Transaction, error) {
			return txn.New(), nil
		}).Times(20)

		for i := 0; i < 200; i++ {
			clock.now = float64(i)
			g.Tick()

			if i%7 == 6 {
				done.Signal(g.Issued())
			}
		}

		Expect(tracer.TotalCount()).To(Equal(uint64(20)))
		Expect(tracer.MaxInFlight()).To(Equal(1))
	})
})

var _ = ginkgo.Describe("ListSource", func() {
	ginkgo.It("should replay copies in order", func() {
		t1 := &txn.Transaction{Op: txn.OpWrite, Addr: 1, DataIn: 37}
		t2 := &txn.Transaction{Op: txn.OpRead, Addr: 1}
		s := NewListSource(t1, t2)

		a, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(a).NotTo(BeIdenticalTo(t1))
		Expect(a.DataIn).To(Equal(uint64(37)))

		b, _ := s.Next()
		Expect(b.Op).To(Equal(txn.OpRead))

		_, err = s.Next()
		Expect(err).To(MatchError(ErrSourceExhausted))
	})
})

var _ = ginkgo.Describe("RandomSource", func() {
	ginkgo.It("should draw from the spec", func() {
		spec := crv.NewSpec().
			Rand(txn.FieldDin, crv.Range(0, 4095)).
			Constrain(crv.Equal(txn.FieldDin, 4095))
		s := NewRandomSource(crv.NewRandomizer(1), spec)

		t, err := s.Next()

		Expect(err).NotTo(HaveOccurred())
		Expect(t.DataIn).To(Equal(uint64(4095)))
	})
})
