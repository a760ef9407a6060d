package txn_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/verikit/txn"
)

var _ = Describe("Transaction", func() {
	It("should set and get fields by name", func() {
		t := txn.New()

		Expect(t.Set(txn.FieldOp, uint64(txn.OpRead))).To(Succeed())
		Expect(t.Set(txn.FieldAddr, 1)).To(Succeed())
		Expect(t.Set(txn.FieldDin, 37)).To(Succeed())

		Expect(t.Op).To(Equal(txn.OpRead))
		Expect(t.Get(txn.FieldAddr)).To(Equal(uint64(1)))
		Expect(t.Get(txn.FieldDin)).To(Equal(uint64(37)))
	})

	It("should reject unknown fields", func() {
		t := txn.New()

		Expect(t.Set("bogus", 1)).NotTo(Succeed())

		_, err := t.Get("bogus")
		Expect(err).To(HaveOccurred())
	})

	It("should clone with a fresh id", func() {
		t := txn.New()
		t.DataIn = 5

		c := t.Clone()

		Expect(c.ID).NotTo(Equal(t.ID))
		Expect(c.DataIn).To(Equal(uint64(5)))
	})

	It("should print its fields", func() {
		t := &txn.Transaction{Seq: 2, Op: txn.OpWrite, Addr: 1, DataIn: 37, AckErr: true}

		Expect(t.String()).To(Equal(
			"seq: 2 op: write addr: 1 din: 37 dout: 0 ack_err"))
	})
})

var _ = Describe("Verdict", func() {
	It("should describe outcomes", func() {
		Expect(txn.Verdict{Outcome: txn.Pass, Seq: 1, Expected: 3, Actual: 3}.String()).
			To(Equal("seq 1 pass expected: 3 actual: 3"))
		Expect(txn.Verdict{Outcome: txn.Error, Seq: 2, Err: errors.New("boom")}.String()).
			To(Equal("seq 2 error: boom"))
		Expect(txn.Verdict{Outcome: txn.Fail}.Passed()).To(BeFalse())
		Expect(txn.Desync.String()).To(Equal("desync"))
	})
})
