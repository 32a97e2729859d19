package listview

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/viakashmir/admin-console/internal/catalog"
)

// Summary is the dashboard count for one entity.
type Summary struct {
	Entity   string         `json:"entity"`
	Label    string         `json:"label"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status,omitempty"`
	Err      error          `json:"-"`
	Error    string         `json:"error,omitempty"`
}

// Summarize loads every entity concurrently, at most limit at a time. One
// entity failing does not cancel the others; its Summary carries the error.
// Results follow the order of entities.
func Summarize(ctx context.Context, entities []catalog.Entity, fetcher Fetcher, limit int) []Summary {
	out := make([]Summary, len(entities))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, e := range entities {
		i, e := i, e
		g.Go(func() error {
			out[i] = summarize(ctx, e, fetcher)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func summarize(ctx context.Context, e catalog.Entity, fetcher Fetcher) Summary {
	s := Summary{Entity: e.Name, Label: e.Label}
	records, err := fetcher.List(ctx, e)
	if err != nil {
		s.Err = err
		s.Error = err.Error()
		return s
	}
	s.Total = len(records)
	for _, r := range records {
		status := r.String("status")
		if status == "" {
			continue
		}
		if s.ByStatus == nil {
			s.ByStatus = make(map[string]int)
		}
		s.ByStatus[status]++
	}
	return s
}
