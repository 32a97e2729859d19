package listview_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/listview"
)

type perEntityFetcher map[string][]catalog.Record

func (f perEntityFetcher) List(_ context.Context, e catalog.Entity) ([]catalog.Record, error) {
	records, ok := f[e.Name]
	if !ok {
		return nil, errors.New("upstream down")
	}
	return records, nil
}

var _ = Describe("Summarize", func() {
	It("should count every entity and keep the input order", func() {
		fetcher := perEntityFetcher{
			catalog.Categories: categories(3),
			catalog.Packages: {
				{"id": "p1", "status": "active"},
				{"id": "p2", "status": "active"},
				{"id": "p3", "status": "draft"},
			},
		}
		entities := []catalog.Entity{entity(catalog.Packages), entity(catalog.Categories)}

		out := listview.Summarize(context.Background(), entities, fetcher, 2)
		Expect(out).To(HaveLen(2))
		Expect(out[0].Entity).To(Equal(catalog.Packages))
		Expect(out[0].Total).To(Equal(3))
		Expect(out[0].ByStatus).To(Equal(map[string]int{"active": 2, "draft": 1}))
		Expect(out[1].Entity).To(Equal(catalog.Categories))
		Expect(out[1].Total).To(Equal(3))
		Expect(out[1].ByStatus).To(BeNil())
	})

	It("should report a failing entity without dropping the rest", func() {
		fetcher := perEntityFetcher{catalog.Categories: categories(2)}
		entities := []catalog.Entity{entity(catalog.Users), entity(catalog.Categories)}

		out := listview.Summarize(context.Background(), entities, fetcher, 0)
		Expect(out[0].Err).To(MatchError("upstream down"))
		Expect(out[0].Error).To(Equal("upstream down"))
		Expect(out[1].Err).NotTo(HaveOccurred())
		Expect(out[1].Total).To(Equal(2))
	})
})
