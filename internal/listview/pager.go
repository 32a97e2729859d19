package listview

// MaxPageButtons caps the numeric buttons a pager shows.
const MaxPageButtons = 5

type PageItem struct {
	Number   int  `json:"number,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

type Pager struct {
	Items        []PageItem `json:"items"`
	PrevDisabled bool       `json:"prev_disabled"`
	NextDisabled bool       `json:"next_disabled"`
}

// NewPager windows page buttons around current: first and last page are
// always shown, gaps collapse to an ellipsis.
func NewPager(current, total int) Pager {
	if total < 1 {
		total = 1
	}
	current = clamp(current, 1, total)

	var numbers []int
	switch {
	case total <= MaxPageButtons:
		numbers = span(1, total)
	case current <= 3:
		numbers = append(span(1, 4), total)
	case current >= total-2:
		numbers = append([]int{1}, span(total-3, total)...)
	default:
		numbers = []int{1, current - 1, current, current + 1, total}
	}

	items := make([]PageItem, 0, len(numbers)+2)
	prev := 0
	for _, n := range numbers {
		if prev != 0 && n-prev > 1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Number: n, Current: n == current})
		prev = n
	}

	return Pager{
		Items:        items,
		PrevDisabled: current == 1,
		NextDisabled: current == total,
	}
}

func span(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
