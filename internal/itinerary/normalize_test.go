package itinerary

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeTime", func() {
	DescribeTable("canonical forms",
		func(raw, expected string) {
			Expect(NormalizeTime(raw, "")).To(Equal(expected))
		},
		Entry("12-hour afternoon", "2:30 PM", "14:30"),
		Entry("compact", "0900", "09:00"),
		Entry("midnight hour", "12:15 AM", "00:15"),
		Entry("noon stays noon", "12:05 PM", "12:05"),
		Entry("marker first", "PM 3:00", "15:00"),
		Entry("korean marker", "오후 7:40", "19:40"),
		Entry("hour only with marker", "9am", "09:00"),
		Entry("dotted", "9.05", "09:05"),
		Entry("single digit hour", "7:45", "07:45"),
		Entry("with seconds", "18:20:00", "18:20"),
		Entry("marker in a short sentence", "Boarding 11:10 pm", "23:10"),
	)

	It("returns the fallback for unreadable input", func() {
		Expect(NormalizeTime("soon", "10:00")).To(Equal("10:00"))
		Expect(NormalizeTime("", "")).To(Equal(""))
		Expect(NormalizeTime("25:00", "")).To(Equal(""))
		Expect(NormalizeTime("14:30 departs", "")).To(Equal(""))
	})

	It("leaves every canonical HH:mm unchanged", func() {
		for h := 0; h < 24; h++ {
			for m := 0; m < 60; m++ {
				t := fmt.Sprintf("%02d:%02d", h, m)
				Expect(NormalizeTime(t, "")).To(Equal(t))
			}
		}
	})
})

var _ = Describe("NormalizeDate", func() {
	DescribeTable("separators",
		func(raw, expected string) {
			Expect(NormalizeDate(raw)).To(Equal(expected))
		},
		Entry("dots", "2025.04.10", "2025-04-10"),
		Entry("slashes", "2025/4/1", "2025-04-01"),
		Entry("trailing dot", " 2025.04.10. ", "2025-04-10"),
		Entry("already canonical", "2025-04-10", "2025-04-10"),
		Entry("empty", "", ""),
		Entry("not a date", "next week", ""),
		Entry("day first is not reordered", "10.04.2025", ""),
	)
})
