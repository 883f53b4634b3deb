package env_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/procflow/procflow/desim/component"
	"github.com/procflow/procflow/desim/env"
)

var _ = Describe("Environment", func() {
	It("advances now by exactly the held duration", func() {
		e := env.New()

		var observed float64
		c := e.NewComponent("Holder", func(p *component.Process) {
			Expect(p.Hold(7, 0)).To(Succeed())
			observed = e.Now()
		})
		Expect(e.Activate(c, 0)).To(Succeed())

		Expect(e.Run(nil)).To(Succeed())
		Expect(observed).To(Equal(7.0))
	})

	It("auto-indexes components sharing a trailing-dash name", func() {
		e := env.New()

		a := e.NewComponent("Car-", func(*component.Process) {})
		b := e.NewComponent("Car-", func(*component.Process) {})

		Expect(a.Name()).NotTo(Equal(b.Name()))
	})

	It("stops RunUntil at the requested time even with more events pending", func() {
		e := env.New()

		var progressed []float64
		c := e.NewComponent("Looper", func(p *component.Process) {
			for i := 0; i < 100; i++ {
				Expect(p.Hold(1, 0)).To(Succeed())
				progressed = append(progressed, e.Now())
			}
		})
		Expect(e.Activate(c, 0)).To(Succeed())

		Expect(e.RunUntil(5)).To(Succeed())
		Expect(e.Now()).To(Equal(5.0))
		Expect(len(progressed)).To(Equal(5))
	})

	Describe("Registry", func() {
		It("retrieves a bound value by type and qualifier", func() {
			e := env.New()
			env.Bind[int](e.Registry(), "answer", 42)

			v, ok := env.Get[int](e.Registry(), "answer")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(42))

			_, ok = env.Get[int](e.Registry(), "other")
			Expect(ok).To(BeFalse())
		})

		It("panics on a duplicate binding", func() {
			e := env.New()
			env.Bind[string](e.Registry(), "", "first")

			Expect(func() {
				env.Bind[string](e.Registry(), "", "second")
			}).To(Panic())
		})

		It("panics when binding after the environment has started running", func() {
			e := env.New()
			Expect(e.Run(nil)).To(Succeed())

			Expect(func() {
				env.Bind[int](e.Registry(), "", 1)
			}).To(Panic())
		})

		It("Inject panics when nothing is bound", func() {
			e := env.New()
			Expect(func() {
				env.Inject[int](e.Registry(), "missing")
			}).To(Panic())
		})
	})
})
