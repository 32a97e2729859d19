package listview_test

import (
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/viakashmir/admin-console/internal/listview"
)

func render(p listview.Pager) string {
	parts := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		switch {
		case item.Ellipsis:
			parts = append(parts, "...")
		case item.Current:
			parts = append(parts, "["+strconv.Itoa(item.Number)+"]")
		default:
			parts = append(parts, strconv.Itoa(item.Number))
		}
	}
	return strings.Join(parts, " ")
}

var _ = Describe("Pager", func() {
	DescribeTable("window",
		func(current, total int, expected string) {
			Expect(render(listview.NewPager(current, total))).To(Equal(expected))
		},
		Entry("single page", 1, 1, "[1]"),
		Entry("no pages at all", 1, 0, "[1]"),
		Entry("fits without ellipsis", 3, 5, "1 2 [3] 4 5"),
		Entry("near the start", 2, 10, "1 [2] 3 4 ... 10"),
		Entry("third page still anchors the start", 3, 10, "1 2 [3] 4 ... 10"),
		Entry("middle", 5, 10, "1 ... 4 [5] 6 ... 10"),
		Entry("near the end", 8, 10, "1 ... 7 [8] 9 10"),
		Entry("last page", 10, 10, "1 ... 7 8 9 [10]"),
		Entry("six pages middle", 4, 6, "1 ... 3 [4] 5 6"),
		Entry("current out of range is clamped", 40, 10, "1 ... 7 8 9 [10]"),
	)

	It("should never show more than five numbers", func() {
		for total := 1; total <= 30; total++ {
			for current := 1; current <= total; current++ {
				numbers := 0
				for _, item := range listview.NewPager(current, total).Items {
					if !item.Ellipsis {
						numbers++
					}
				}
				Expect(numbers).To(BeNumerically("<=", listview.MaxPageButtons))
			}
		}
	})

	It("should disable both arrows on a single page", func() {
		p := listview.NewPager(1, 1)
		Expect(p.PrevDisabled).To(BeTrue())
		Expect(p.NextDisabled).To(BeTrue())
	})
})
