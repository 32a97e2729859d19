package listview

import (
	"sort"
	"time"

	"github.com/viakashmir/admin-console/internal/catalog"
)

// SortRecent returns a copy ordered most recent first by updatedAt, then
// createdAt. Records with neither sort as the epoch; ties keep their order.
func SortRecent(records []catalog.Record) []catalog.Record {
	type keyed struct {
		rec catalog.Record
		at  time.Time
	}
	tmp := make([]keyed, len(records))
	for i, r := range records {
		tmp[i] = keyed{rec: r, at: recency(r)}
	}
	sort.SliceStable(tmp, func(a, b int) bool {
		return tmp[a].at.After(tmp[b].at)
	})
	out := make([]catalog.Record, len(tmp))
	for i, k := range tmp {
		out[i] = k.rec
	}
	return out
}

func recency(r catalog.Record) time.Time {
	if t, ok := r.Time("updatedAt"); ok {
		return t
	}
	if t, ok := r.Time("createdAt"); ok {
		return t
	}
	return time.Unix(0, 0)
}
