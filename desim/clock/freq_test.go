package clock_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/procflow/procflow/desim/clock"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		f := 1 * clock.GHz
		Expect(f.Period()).To(BeNumerically("==", 1e-9))
	})

	It("should get this tick", func() {
		f := 1 * clock.Hz
		Expect(f.ThisTick(1)).To(BeNumerically("~", 1, 1e-12))
	})

	It("should get the next tick", func() {
		f := 1 * clock.GHz
		Expect(f.NextTick(102.000000001)).To(BeNumerically("~", 102.000000002, 1e-12))
	})

	It("should panic on NaN input", func() {
		f := 1 * clock.GHz
		nan := 0.0
		nan = nan / nan

		Expect(func() { f.ThisTick(nan) }).To(Panic())
	})
})
