package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		base     *HookableBase
		pos      *HookPos
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		base = NewHookableBase()
		pos = &HookPos{Name: "Somewhere"}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke hooks in registration order", func() {
		hook1 := NewMockHook(mockCtrl)
		hook2 := NewMockHook(mockCtrl)
		ctx := HookCtx{Domain: base, Pos: pos, Item: 42}

		first := hook1.EXPECT().Func(ctx)
		hook2.EXPECT().Func(ctx).After(first)

		base.AcceptHook(hook1)
		base.AcceptHook(hook2)
		base.InvokeHook(ctx)

		Expect(base.NumHooks()).To(Equal(2))
	})

	It("should refuse the same hook twice", func() {
		hook := NewMockHook(mockCtrl)
		base.AcceptHook(hook)

		Expect(func() { base.AcceptHook(hook) }).To(Panic())
	})

	It("should count positions", func() {
		other := &HookPos{Name: "Elsewhere"}
		counter := NewPosCounter()
		base.AcceptHook(counter)

		base.InvokeHook(HookCtx{Domain: base, Pos: pos})
		base.InvokeHook(HookCtx{Domain: base, Pos: pos})
		base.InvokeHook(HookCtx{Domain: base, Pos: other})

		Expect(counter.Count(pos)).To(Equal(2))
		Expect(counter.Count(other)).To(Equal(1))
		Expect(pos.String()).To(Equal("Somewhere"))
	})
})
