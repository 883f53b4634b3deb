package monitor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/procflow/procflow/desim/monitor"
)

var _ = Describe("CategoryTimeline", func() {
	It("weights the initial category from creation to the first change", func() {
		clk := &manualClock{t: 0}
		tl := monitor.NewCategoryTimeline(clk, "audi")

		clk.advance(2) // [0,2) held at "audi"
		tl.AddValue("vw")
		clk.advance(6) // [2,8) held at "vw"

		audi, err := tl.Proportion("audi")
		Expect(err).NotTo(HaveOccurred())
		Expect(audi).To(BeNumerically("~", 0.25, 1e-9))
	})

	It("computes the time-weighted proportion of a category", func() {
		clk := &manualClock{t: 0}
		tl := monitor.NewCategoryTimeline(clk, "")

		clk.advance(3) // [0,3) held at ""
		tl.AddValue("busy")
		clk.advance(7) // [3,10) held at "busy"
		tl.AddValue("idle")
		clk.advance(10) // [10,20) held at "idle"

		busy, err := tl.Proportion("busy")
		Expect(err).NotTo(HaveOccurred())
		Expect(busy).To(BeNumerically("~", 0.35, 1e-9))

		idle, err := tl.Proportion("idle")
		Expect(err).NotTo(HaveOccurred())
		Expect(idle).To(BeNumerically("~", 0.5, 1e-9))
	})
})

var _ = Describe("CategoryMonitor", func() {
	It("tracks unweighted frequency counts per category", func() {
		m := monitor.NewCategoryMonitor[string]()
		m.AddValue("a")
		m.AddValue("b")
		m.AddValue("a")

		countA, err := m.Count("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(countA).To(Equal(uint64(2)))

		proportion, err := m.Proportion("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(proportion).To(BeNumerically("~", 2.0/3.0, 1e-9))
	})

	It("merges monitors so the merged total equals the sum of inputs", func() {
		m1 := monitor.NewCategoryMonitor[string]()
		m1.AddValue("a")
		m1.AddValue("a")

		m2 := monitor.NewCategoryMonitor[string]()
		m2.AddValue("a")
		m2.AddValue("b")

		merged, err := monitor.Merge(m1, m2)
		Expect(err).NotTo(HaveOccurred())

		total, err := merged.Total()
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(uint64(4)))

		countA, err := merged.Count("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(countA).To(Equal(uint64(3)))
	})
})
