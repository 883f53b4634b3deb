package monitor_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/procflow/procflow/desim/monitor"
)

var _ = Describe("CSVRenderer", func() {
	It("writes a header and one row per breakpoint", func() {
		clk := &manualClock{t: 0}
		tl := monitor.NewIntTimeline(clk)
		clk.advance(2)
		tl.AddValue(5)

		series, err := tl.Series()
		Expect(err).NotTo(HaveOccurred())

		var buf strings.Builder
		Expect(monitor.CSVRenderer{W: &buf}.Render("level", series)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(Equal([]string{"time,level", "0,0", "2,5"}))
	})
})
