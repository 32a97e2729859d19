package catalog

import (
	"fmt"
	"sort"

	"github.com/viakashmir/admin-console/internal"
)

type FilterKind string

const (
	FilterEquals   FilterKind = "equals"
	FilterContains FilterKind = "contains"
	FilterRange    FilterKind = "range"
	FilterDateOn   FilterKind = "date_on"
	FilterDateFrom FilterKind = "date_from"
	FilterDateTo   FilterKind = "date_to"
)

// Filter binds a filter input name to the record field it constrains.
type Filter struct {
	Name  string     `json:"name"`
	Field string     `json:"field"`
	Kind  FilterKind `json:"kind"`
}

type RuleKind string

const (
	RuleRequired     RuleKind = "required"
	RuleEmail        RuleKind = "email"
	RuleMinLength    RuleKind = "min_length"
	RuleMinNumber    RuleKind = "min_number"
	RuleMatches      RuleKind = "matches"
	RuleRequiredWhen RuleKind = "required_when"
	RuleNonEmptyList RuleKind = "non_empty_list"
)

// Rule is one form validation constraint.
type Rule struct {
	Field string
	Kind  RuleKind
	Min   int
	// Other names the field a RuleMatches rule compares against, or the
	// field a RuleRequiredWhen rule depends on.
	Other     string
	WhenValue string
	// CreateOnly rules are skipped when editing an existing record.
	CreateOnly bool
	Message    string
}

// Entity describes one administrable resource.
type Entity struct {
	Name  string
	Label string
	Path  string

	// WrapperKeys are probed in order when a list response is an object.
	WrapperKeys []string
	// SingleKeys are probed in order for single-record responses; the
	// object itself is used when none match.
	SingleKeys []string

	SearchFields []string
	Filters      []Filter
	PageSize     int

	Fields          []string
	NumberFields    []string
	ListFields      []string
	TransientFields []string
	FileFields      []string
	Rules           []Rule
	// MultipartCreate sends creates as multipart/form-data.
	MultipartCreate bool
	ReadOnly        bool

	Columns []string
}

func (e Entity) Filter(name string) (Filter, bool) {
	for _, f := range e.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

func (e Entity) FilterNames() []string {
	names := make([]string, 0, len(e.Filters))
	for _, f := range e.Filters {
		names = append(names, f.Name)
	}
	return names
}

func (e Entity) IsNumber(field string) bool    { return contains(e.NumberFields, field) }
func (e Entity) IsList(field string) bool      { return contains(e.ListFields, field) }
func (e Entity) IsTransient(field string) bool { return contains(e.TransientFields, field) }
func (e Entity) IsFile(field string) bool      { return contains(e.FileFields, field) }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Registry resolves entity names to their definitions.
type Registry struct {
	entities map[string]Entity
}

// NewRegistry returns the built-in entities with page sizes overridden by
// pageSizes where a positive value is given.
func NewRegistry(pageSizes map[string]int) *Registry {
	r := &Registry{entities: make(map[string]Entity, len(builtin))}
	for _, e := range builtin {
		if n, ok := pageSizes[e.Name]; ok && n > 0 {
			e.PageSize = n
		}
		r.entities[e.Name] = e
	}
	return r
}

func (r *Registry) Get(name string) (Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return Entity{}, internal.NewNotFoundError(fmt.Sprintf("unknown entity %q", name), internal.ErrCodeUnknownEntity)
	}
	return e, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) All() []Entity {
	out := make([]Entity, 0, len(r.entities))
	for _, name := range r.Names() {
		out = append(out, r.entities[name])
	}
	return out
}
