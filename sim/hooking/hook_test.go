package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingHook struct {
	count int
}

func (h *countingHook) Func(HookCtx) {
	h.count++
}

var _ = Describe("HookableBase", func() {
	var h *HookableBase

	BeforeEach(func() {
		h = NewHookableBase()
	})

	It("should invoke all hooks", func() {
		hook1 := &countingHook{}
		hook2 := &countingHook{}
		h.AcceptHook(hook1)
		h.AcceptHook(hook2)

		h.InvokeHook(HookCtx{Domain: h})

		Expect(h.NumHooks()).To(Equal(2))
		Expect(hook1.count).To(Equal(1))
		Expect(hook2.count).To(Equal(1))
	})

	It("should panic on duplicated hooks", func() {
		hook := &countingHook{}
		h.AcceptHook(hook)

		Expect(func() { h.AcceptHook(hook) }).To(Panic())
	})

	It("should accept hook functions", func() {
		called := 0
		h.AcceptHook(HookFunc(func(HookCtx) { called++ }))
		h.AcceptHook(HookFunc(func(HookCtx) { called++ }))

		h.InvokeHook(HookCtx{})

		Expect(called).To(Equal(2))
	})
})
