package clock_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/procflow/procflow/desim/clock"
)

type recordingEvent struct {
	clock.Base
}

func newRecordingEvent(t clock.VTime, h clock.Handler, prio int) *recordingEvent {
	e := &recordingEvent{Base: clock.NewBase(t, h, prio)}
	return e
}

type recorderHandler struct {
	order *[]string
	label string
}

func (h *recorderHandler) Handle(_ clock.Event) error {
	*h.order = append(*h.order, h.label)
	return nil
}

var _ = Describe("SerialEngine", func() {
	var (
		engine *clock.SerialEngine
		order  []string
	)

	BeforeEach(func() {
		engine = clock.NewSerialEngine()
		order = nil
	})

	It("advances Now() to the time of the event being processed", func() {
		h := &recorderHandler{order: &order, label: "a"}
		engine.Schedule(newRecordingEvent(3, h, 0))

		Expect(engine.Run(nil)).NotTo(HaveOccurred())
		Expect(engine.Now()).To(Equal(clock.VTime(3)))
	})

	It("honors priority before insertion order at equal times", func() {
		ha := &recorderHandler{order: &order, label: "low-prio-first"}
		hb := &recorderHandler{order: &order, label: "high-prio"}
		hc := &recorderHandler{order: &order, label: "low-prio-second"}

		engine.Schedule(newRecordingEvent(0, ha, 0))
		engine.Schedule(newRecordingEvent(0, hb, 1))
		engine.Schedule(newRecordingEvent(0, hc, 0))

		Expect(engine.Run(nil)).NotTo(HaveOccurred())
		Expect(order).To(Equal([]string{"high-prio", "low-prio-first", "low-prio-second"}))
	})

	It("runs pending secondary polls before the event popped at each instant", func() {
		primary := &recorderHandler{order: &order, label: "primary"}
		secondary := &recorderHandler{order: &order, label: "secondary"}

		secEvt := newRecordingEvent(0, secondary, 0)
		secEvt.MarkSecondary()

		engine.Schedule(secEvt)
		engine.Schedule(newRecordingEvent(0, primary, 0))

		Expect(engine.Run(nil)).NotTo(HaveOccurred())
		Expect(order).To(Equal([]string{"secondary", "primary"}))
	})

	It("carries a secondary poll forward to the next popped event's time", func() {
		primary := &recorderHandler{order: &order, label: "primary"}
		secondary := &recorderHandler{order: &order, label: "secondary"}

		secEvt := newRecordingEvent(0, secondary, 0)
		secEvt.MarkSecondary()
		engine.Schedule(secEvt)

		engine.Schedule(newRecordingEvent(7, primary, 0))

		Expect(engine.Run(nil)).NotTo(HaveOccurred())
		Expect(order).To(Equal([]string{"secondary", "primary"}))
		Expect(engine.Now()).To(Equal(clock.VTime(7)))
	})

	It("terminates when only secondary polls remain", func() {
		secondary := &recorderHandler{order: &order, label: "secondary"}

		secEvt := newRecordingEvent(0, secondary, 0)
		secEvt.MarkSecondary()
		engine.Schedule(secEvt)

		Expect(engine.Run(nil)).NotTo(HaveOccurred())
		Expect(order).To(BeEmpty())
	})

	It("panics when scheduling into the past", func() {
		h := &recorderHandler{order: &order, label: "a"}
		engine.Schedule(newRecordingEvent(5, h, 0))
		Expect(engine.Run(nil)).NotTo(HaveOccurred())

		Expect(func() {
			engine.Schedule(newRecordingEvent(1, h, 0))
		}).To(Panic())
	})

	It("stops early when the stop predicate holds", func() {
		h := &recorderHandler{order: &order, label: "a"}
		engine.Schedule(newRecordingEvent(1, h, 0))
		engine.Schedule(newRecordingEvent(2, h, 0))

		stopAtTwo := func(now, next clock.VTime) bool {
			return next >= 2
		}

		Expect(engine.Run(stopAtTwo)).NotTo(HaveOccurred())
		Expect(order).To(HaveLen(1))
	})

	It("invokes registered simulation-end handlers with the final time", func() {
		h := &recorderHandler{order: &order, label: "a"}
		engine.Schedule(newRecordingEvent(4, h, 0))
		Expect(engine.Run(nil)).NotTo(HaveOccurred())

		var finalTime clock.VTime
		engine.RegisterSimulationEndHandler(endFunc(func(now clock.VTime) {
			finalTime = now
		}))
		engine.Finished()

		Expect(finalTime).To(Equal(clock.VTime(4)))
	})
})

type endFunc func(now clock.VTime)

func (f endFunc) Handle(now clock.VTime) { f(now) }
