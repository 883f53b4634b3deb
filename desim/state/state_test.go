package state_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/procflow/procflow/desim/state"
)

type recordingScheduler struct {
	resumed []interface{}
	prios   []int
}

func (s *recordingScheduler) ScheduleNow(owner interface{}, priority int) {
	s.resumed = append(s.resumed, owner)
	s.prios = append(s.prios, priority)
}

var _ = Describe("State", func() {
	It("resumes immediately when the predicate already holds", func() {
		sched := &recordingScheduler{}
		s := state.New[int](sched, 5)

		resumed := s.Wait("waiter", func(v int) bool { return v >= 5 }, 0)
		Expect(resumed).To(BeTrue())
		Expect(sched.resumed).To(BeEmpty())
	})

	It("unblocks a waiter once the value satisfies its predicate", func() {
		sched := &recordingScheduler{}
		s := state.New[int](sched, 0)

		resumed := s.Wait("waiter", func(v int) bool { return v >= 5 }, 3)
		Expect(resumed).To(BeFalse())

		s.Set(3)
		Expect(sched.resumed).To(BeEmpty())

		s.Set(5)
		Expect(sched.resumed).To(Equal([]interface{}{"waiter"}))
		Expect(sched.prios).To(Equal([]int{3}))
	})

	It("reverts to the prior value after a trigger, honoring up to max waiters", func() {
		sched := &recordingScheduler{}
		s := state.New[int](sched, 0)

		s.Wait("a", func(v int) bool { return v == 1 }, 0)
		s.Wait("b", func(v int) bool { return v == 1 }, 0)

		s.Trigger(1, 1)

		Expect(sched.resumed).To(Equal([]interface{}{"a"}))
		Expect(s.Value()).To(Equal(0))
	})

	It("satisfies an All clause only once every member holds", func() {
		sched := &recordingScheduler{}
		a := state.New[int](sched, 0)
		b := state.New[int](sched, 0)

		fired := state.RegisterClause(
			"waiter", 0, state.All,
			state.Clause[int]{State: a, Pred: func(v int) bool { return v > 0 }},
			state.Clause[int]{State: b, Pred: func(v int) bool { return v > 0 }},
		)
		Expect(fired).To(BeFalse())

		a.Set(1)
		Expect(sched.resumed).To(BeEmpty())

		b.Set(1)
		Expect(sched.resumed).To(Equal([]interface{}{"waiter"}))
	})

	It("does not let repeated sets on one member fire an All clause alone", func() {
		sched := &recordingScheduler{}
		a := state.New[int](sched, 0)
		b := state.New[int](sched, 0)

		fired := state.RegisterClause(
			"waiter", 0, state.All,
			state.Clause[int]{State: a, Pred: func(v int) bool { return v > 0 }},
			state.Clause[int]{State: b, Pred: func(v int) bool { return v > 0 }},
		)
		Expect(fired).To(BeFalse())

		a.Set(1)
		a.Set(2)
		Expect(sched.resumed).To(BeEmpty())

		b.Set(1)
		Expect(sched.resumed).To(Equal([]interface{}{"waiter"}))
	})

	It("satisfies an Any clause as soon as one member holds", func() {
		sched := &recordingScheduler{}
		a := state.New[int](sched, 0)
		b := state.New[int](sched, 0)

		fired := state.RegisterClause(
			"waiter", 0, state.Any,
			state.Clause[int]{State: a, Pred: func(v int) bool { return v > 0 }},
			state.Clause[int]{State: b, Pred: func(v int) bool { return v > 0 }},
		)
		Expect(fired).To(BeFalse())

		a.Set(1)
		Expect(sched.resumed).To(Equal([]interface{}{"waiter"}))

		b.Set(1)
		Expect(sched.resumed).To(HaveLen(1))
	})
})
