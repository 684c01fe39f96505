package itinerary

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DetectDateConflict", func() {
	It("ignores dates that were never set", func() {
		_, ok := DetectDateConflict(DateRange{}, DateRange{StartDate: "2025-03-02"})
		Expect(ok).To(BeFalse())
	})

	It("ignores dates that only differ in separators", func() {
		_, ok := DetectDateConflict(DateRange{StartDate: "2025.03.01"}, DateRange{StartDate: "2025-03-01"})
		Expect(ok).To(BeFalse())
	})

	It("reports which fields disagree", func() {
		c, ok := DetectDateConflict(
			DateRange{StartDate: "2025-03-01", EndDate: "2025-03-05"},
			DateRange{StartDate: "2025-03-02", EndDate: "2025-03-05"},
		)
		Expect(ok).To(BeTrue())
		Expect(c.Start).To(BeTrue())
		Expect(c.End).To(BeFalse())
	})
})

var _ = Describe("resolveDates", func() {
	var (
		base, working Itinerary
		asked         int
	)

	BeforeEach(func() {
		asked = 0
		base = Itinerary{StartDate: "2025-03-01"}
		working = Itinerary{StartDate: "2025-03-02", EndDate: "2025-03-06", Airline: "Jeju Air"}
	})

	counting := func(answer bool) ConflictResolver {
		return ResolverFunc(func(old, new DateRange) bool {
			asked++
			Expect(old.StartDate).To(Equal("2025-03-01"))
			Expect(new.StartDate).To(Equal("2025-03-02"))
			return answer
		})
	}

	It("keeps the confirmed start date when declined", func() {
		it, c, accepted := resolveDates(base, working, counting(false))
		Expect(asked).To(Equal(1))
		Expect(c).NotTo(BeNil())
		Expect(accepted).To(BeFalse())
		Expect(it.StartDate).To(Equal("2025-03-01"))
		Expect(it.EndDate).To(Equal("2025-03-06"))
		Expect(it.Airline).To(Equal("Jeju Air"))
	})

	It("applies the new start date when accepted", func() {
		it, _, accepted := resolveDates(base, working, counting(true))
		Expect(accepted).To(BeTrue())
		Expect(it.StartDate).To(Equal("2025-03-02"))
	})

	It("keeps the confirmed date without a resolver", func() {
		it, _, _ := resolveDates(base, working, nil)
		Expect(it.StartDate).To(Equal("2025-03-01"))
	})

	It("does not ask when nothing conflicts", func() {
		working.StartDate = base.StartDate
		_, c, _ := resolveDates(base, working, counting(true))
		Expect(c).To(BeNil())
		Expect(asked).To(BeZero())
	})
})
