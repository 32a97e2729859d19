package listview

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/viakashmir/admin-console/internal/catalog"
)

// matchSearch is a case-insensitive substring match over fields. An empty
// term matches everything.
func matchSearch(r catalog.Record, fields []string, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(r.String(field)), term) {
			return true
		}
	}
	return false
}

// matchFilter tests one structured filter. Malformed filter values and rows
// whose field is missing or unparseable are excluded.
func matchFilter(r catalog.Record, f catalog.Filter, value string) bool {
	switch f.Kind {
	case catalog.FilterEquals:
		return r.String(f.Field) == value
	case catalog.FilterContains:
		return strings.Contains(strings.ToLower(r.String(f.Field)), strings.ToLower(value))
	case catalog.FilterRange:
		return matchRange(r, f.Field, value)
	case catalog.FilterDateOn, catalog.FilterDateFrom, catalog.FilterDateTo:
		return matchDate(r, f.Field, f.Kind, value)
	}
	return false
}

// ParseRange parses "min-max" with either side optional ("-500", "100-").
// A nil bound is open.
func ParseRange(s string) (lo, hi *decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	left, right, found := strings.Cut(s, "-")
	if !found {
		return nil, nil, false
	}
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if left == "" && right == "" {
		return nil, nil, false
	}
	if left != "" {
		d, err := decimal.NewFromString(left)
		if err != nil {
			return nil, nil, false
		}
		lo = &d
	}
	if right != "" {
		d, err := decimal.NewFromString(right)
		if err != nil {
			return nil, nil, false
		}
		hi = &d
	}
	return lo, hi, true
}

func matchRange(r catalog.Record, field, value string) bool {
	lo, hi, ok := ParseRange(value)
	if !ok {
		return false
	}
	v, ok := recordDecimal(r, field)
	if !ok {
		return false
	}
	if lo != nil && v.LessThan(*lo) {
		return false
	}
	if hi != nil && v.GreaterThan(*hi) {
		return false
	}
	return true
}

func recordDecimal(r catalog.Record, field string) (decimal.Decimal, bool) {
	raw := strings.TrimSpace(r.String(field))
	if raw == "" {
		return decimal.Decimal{}, false
	}
	raw = strings.ReplaceAll(raw, ",", "")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func matchDate(r catalog.Record, field string, kind catalog.FilterKind, value string) bool {
	want, ok := catalog.ParseTime(strings.TrimSpace(value))
	if !ok {
		return false
	}
	got, ok := r.Time(field)
	if !ok {
		return false
	}
	wantDay, gotDay := day(want), day(got)
	switch kind {
	case catalog.FilterDateOn:
		return gotDay.Equal(wantDay)
	case catalog.FilterDateFrom:
		return !gotDay.Before(wantDay)
	case catalog.FilterDateTo:
		return !gotDay.After(wantDay)
	}
	return false
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
