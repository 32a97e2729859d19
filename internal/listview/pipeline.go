package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/core/events"
	"github.com/viakashmir/admin-console/internal/metrics"
	"github.com/viakashmir/admin-console/pkg/logger"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrClosed = errors.New("list view closed")
	// ErrStale is returned by a load whose response was superseded by a
	// later one; its result was discarded.
	ErrStale = errors.New("stale list response discarded")
)

// Fetcher loads the full collection of an entity.
type Fetcher interface {
	List(ctx context.Context, e catalog.Entity) ([]catalog.Record, error)
}

// View is a snapshot of the derived, paginated collection.
type View struct {
	Entity        string            `json:"entity"`
	State         State             `json:"state"`
	Items         []catalog.Record  `json:"items"`
	Page          int               `json:"page"`
	PageSize      int               `json:"page_size"`
	TotalPages    int               `json:"total_pages"`
	FilteredCount int               `json:"filtered_count"`
	TotalCount    int               `json:"total_count"`
	RangeStart    int               `json:"range_start"`
	RangeEnd      int               `json:"range_end"`
	Search        string            `json:"search"`
	Filters       map[string]string `json:"filters"`
	Pager         Pager             `json:"pager"`
	Err           error             `json:"-"`
}

// Pipeline owns one list screen's state: the fetched collection, the search
// and filter inputs, and the current page. Safe for concurrent use.
type Pipeline struct {
	entity  catalog.Entity
	fetcher Fetcher
	metrics *metrics.Collector
	logger  *slog.Logger

	mu          sync.Mutex
	state       State
	generation  uint64
	closed      bool
	all         []catalog.Record
	filtered    []catalog.Record
	search      string
	filters     map[string]string
	page        int
	err         error
	unsubscribe func()
}

// NewPipeline builds a pipeline in the Loading state. When bus is non-nil the
// pipeline refetches on mutation events for its entity until closed.
func NewPipeline(e catalog.Entity, fetcher Fetcher, bus *events.EventBus, collector *metrics.Collector, lg *slog.Logger) *Pipeline {
	if e.PageSize <= 0 {
		e.PageSize = 12
	}
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	p := &Pipeline{
		entity:  e,
		fetcher: fetcher,
		metrics: collector,
		logger:  lg.With("entity", e.Name),
		state:   StateLoading,
		filters: make(map[string]string),
		page:    1,
	}
	if bus != nil {
		p.unsubscribe = bus.Subscribe(events.EventTypeEntityMutated, p.onMutated)
	}
	return p
}

func (p *Pipeline) Entity() catalog.Entity {
	return p.entity
}

// Load fetches the collection and recomputes the view. Overlapping loads are
// allowed; only the most recently started one is applied.
func (p *Pipeline) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.generation++
	gen := p.generation
	p.state = StateLoading
	p.mu.Unlock()

	records, err := p.fetcher.List(ctx, p.entity)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Debug("dropping list response after close", "generation", gen)
		return ErrClosed
	}
	if gen != p.generation {
		p.logger.Debug("dropping stale list response", "generation", gen, "latest", p.generation)
		return ErrStale
	}
	if err != nil {
		p.state = StateFailed
		p.err = err
		p.all = nil
		p.filtered = nil
		p.page = 1
		p.logger.Error("failed to load list", "error", err)
		return err
	}

	p.state = StateReady
	p.err = nil
	p.all = SortRecent(records)
	// a reload keeps the operator's page; only narrowing goes back to 1
	p.refilter()
	p.page = clamp(p.page, 1, p.totalPages())
	p.logger.Debug("list loaded", "total", len(p.all), "filtered", len(p.filtered))
	return nil
}

// Refetch is the "try again" path; it is also run after mutations.
func (p *Pipeline) Refetch(ctx context.Context) error {
	return p.Load(ctx)
}

func (p *Pipeline) onMutated(ctx context.Context, event events.Event) error {
	mutated, ok := event.(*events.EntityMutatedEvent)
	if !ok || mutated.Entity != p.entity.Name {
		return nil
	}
	err := p.Refetch(ctx)
	if errors.Is(err, ErrClosed) || errors.Is(err, ErrStale) {
		return nil
	}
	return err
}

func (p *Pipeline) SetSearch(term string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.search = term
	p.recompute()
}

// SetFilter sets one structured filter; an empty value removes it.
func (p *Pipeline) SetFilter(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.setFilter(name, value); err != nil {
		return err
	}
	p.recompute()
	return nil
}

// SetFilters replaces search and all filters at once, as when applying a
// saved preset.
func (p *Pipeline) SetFilters(search string, filters map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name := range filters {
		if _, ok := p.entity.Filter(name); !ok {
			return unknownFilter(p.entity, name)
		}
	}
	p.search = search
	p.filters = make(map[string]string, len(filters))
	for name, value := range filters {
		if value != "" {
			p.filters[name] = value
		}
	}
	p.recompute()
	return nil
}

func (p *Pipeline) ClearFilters() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.search = ""
	p.filters = make(map[string]string)
	p.recompute()
}

func (p *Pipeline) setFilter(name, value string) error {
	if _, ok := p.entity.Filter(name); !ok {
		return unknownFilter(p.entity, name)
	}
	if value == "" {
		delete(p.filters, name)
	} else {
		p.filters[name] = value
	}
	return nil
}

func unknownFilter(e catalog.Entity, name string) error {
	return internal.NewValidationFieldError(name,
		fmt.Sprintf("unknown filter %q for %s; available: %v", name, e.Name, e.FilterNames()),
		internal.ErrCodeUnknownFilter)
}

func (p *Pipeline) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page < p.totalPages() {
		p.page++
	}
}

func (p *Pipeline) Prev() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.page > 1 {
		p.page--
	}
}

// GoTo moves to page n, clamped to the available pages.
func (p *Pipeline) GoTo(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = clamp(n, 1, p.totalPages())
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close stops event-driven refetches and turns pending loads into no-ops.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
}

// recompute re-applies search and filters and resets to the first page.
// Caller holds mu.
func (p *Pipeline) recompute() {
	p.refilter()
	p.page = 1
}

// refilter derives the filtered collection from the full one, which is never
// modified. Caller holds mu.
func (p *Pipeline) refilter() {
	out := make([]catalog.Record, 0, len(p.all))
	for _, r := range p.all {
		if !matchSearch(r, p.entity.SearchFields, p.search) {
			continue
		}
		if !p.matchFilters(r) {
			continue
		}
		out = append(out, r)
	}
	p.filtered = out
	p.metrics.ObserveView(p.entity.Name)
}

func (p *Pipeline) matchFilters(r catalog.Record) bool {
	for name, value := range p.filters {
		f, ok := p.entity.Filter(name)
		if !ok || !matchFilter(r, f, value) {
			return false
		}
	}
	return true
}

func (p *Pipeline) totalPages() int {
	n := len(p.filtered)
	if n == 0 {
		return 1
	}
	return (n + p.entity.PageSize - 1) / p.entity.PageSize
}

// View returns a copy of the current derived view.
func (p *Pipeline) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	size := p.entity.PageSize
	total := len(p.filtered)
	totalPages := 0
	if total > 0 {
		totalPages = (total + size - 1) / size
	}
	page := clamp(p.page, 1, p.totalPages())

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	items := make([]catalog.Record, 0, end-start)
	if start < end {
		items = append(items, p.filtered[start:end]...)
	}

	rangeStart := 0
	if total > 0 {
		rangeStart = start + 1
	}

	filters := make(map[string]string, len(p.filters))
	for k, v := range p.filters {
		filters[k] = v
	}

	return View{
		Entity:        p.entity.Name,
		State:         p.state,
		Items:         items,
		Page:          page,
		PageSize:      size,
		TotalPages:    totalPages,
		FilteredCount: total,
		TotalCount:    len(p.all),
		RangeStart:    rangeStart,
		RangeEnd:      end,
		Search:        p.search,
		Filters:       filters,
		Pager:         NewPager(page, p.totalPages()),
		Err:           p.err,
	}
}
