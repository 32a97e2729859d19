package preset

import (
	"time"

	json "github.com/goccy/go-json"

	presetDatamodel "github.com/viakashmir/admin-console/internal/core/datamodel/preset"
)

// Preset is a named search and filter set saved for one entity's list view.
type Preset struct {
	ID        int64
	Entity    string
	Name      string
	Search    string
	Filters   map[string]string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPreset(entity, name, search string, filters map[string]string, createdBy string) *Preset {
	now := time.Now()
	clean := make(map[string]string, len(filters))
	for k, v := range filters {
		if v != "" {
			clean[k] = v
		}
	}
	return &Preset{
		Entity:    entity,
		Name:      name,
		Search:    search,
		Filters:   clean,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Preset) ToResponse() PresetResponse {
	filters := p.Filters
	if filters == nil {
		filters = map[string]string{}
	}
	return PresetResponse{
		Entity:    p.Entity,
		Name:      p.Name,
		Search:    p.Search,
		Filters:   filters,
		CreatedBy: p.CreatedBy,
		UpdatedAt: p.UpdatedAt,
	}
}

func ToDataModel(p *Preset) (*presetDatamodel.ViewPreset, error) {
	filters, err := json.Marshal(p.Filters)
	if err != nil {
		return nil, err
	}
	return &presetDatamodel.ViewPreset{
		ID:        p.ID,
		Entity:    p.Entity,
		Name:      p.Name,
		Search:    p.Search,
		Filters:   string(filters),
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func FromDataModel(m *presetDatamodel.ViewPreset) (*Preset, error) {
	filters := map[string]string{}
	if m.Filters != "" {
		if err := json.Unmarshal([]byte(m.Filters), &filters); err != nil {
			return nil, err
		}
	}
	return &Preset{
		ID:        m.ID,
		Entity:    m.Entity,
		Name:      m.Name,
		Search:    m.Search,
		Filters:   filters,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}
