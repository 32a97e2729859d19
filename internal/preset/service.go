package preset

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	presetDatamodel "github.com/viakashmir/admin-console/internal/core/datamodel/preset"
)

type RepositoryAPI interface {
	ListByEntity(entity string) ([]*presetDatamodel.ViewPreset, error)
	GetByName(entity, name string) (*presetDatamodel.ViewPreset, error)
	Save(p *presetDatamodel.ViewPreset) error
	Delete(entity, name string) (bool, error)
}

// Target is a list view a preset can be applied to.
type Target interface {
	SetFilters(search string, filters map[string]string) error
}

type Service struct {
	repo     RepositoryAPI
	registry *catalog.Registry
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, registry *catalog.Registry, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		logger:   logger,
	}
}

// Save creates the preset or replaces an existing one with the same name.
func (s *Service) Save(entity string, req SavePresetRequest, createdBy string) (*PresetResponse, error) {
	e, err := s.registry.Get(entity)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	for field := range req.Filters {
		if _, ok := e.Filter(field); !ok {
			return nil, internal.NewValidationFieldError(field,
				fmt.Sprintf("%s has no filter %q (available: %s)", e.Name, field, strings.Join(e.FilterNames(), ", ")),
				internal.ErrCodeUnknownFilter)
		}
	}

	p := NewPreset(e.Name, name, strings.TrimSpace(req.Search), req.Filters, createdBy)
	existing, err := s.repo.GetByName(e.Name, name)
	if err != nil {
		s.logger.Error("failed to look up preset", "entity", e.Name, "name", name, "error", err)
		return nil, internal.NewInternalError("failed to save preset", err)
	}
	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		if p.CreatedBy == "" {
			p.CreatedBy = existing.CreatedBy
		}
	}

	model, err := ToDataModel(p)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode preset filters", err)
	}
	if err := s.repo.Save(model); err != nil {
		s.logger.Error("failed to save preset", "entity", e.Name, "name", name, "error", err)
		return nil, internal.NewInternalError("failed to save preset", err)
	}
	p.ID = model.ID

	s.logger.Info("preset saved", "entity", e.Name, "name", name, "replaced", existing != nil)
	resp := p.ToResponse()
	return &resp, nil
}

func (s *Service) Get(entity, name string) (*Preset, error) {
	if _, err := s.registry.Get(entity); err != nil {
		return nil, err
	}
	model, err := s.repo.GetByName(entity, name)
	if err != nil {
		s.logger.Error("failed to get preset", "entity", entity, "name", name, "error", err)
		return nil, internal.NewInternalError("failed to get preset", err)
	}
	if model == nil {
		return nil, notFound(entity, name)
	}
	p, err := FromDataModel(model)
	if err != nil {
		return nil, internal.NewInternalError("stored preset filters are corrupt", err)
	}
	return p, nil
}

func (s *Service) List(entity string) ([]PresetResponse, error) {
	if _, err := s.registry.Get(entity); err != nil {
		return nil, err
	}
	models, err := s.repo.ListByEntity(entity)
	if err != nil {
		s.logger.Error("failed to list presets", "entity", entity, "error", err)
		return nil, internal.NewInternalError("failed to list presets", err)
	}

	responses := make([]PresetResponse, 0, len(models))
	for _, m := range models {
		p, err := FromDataModel(m)
		if err != nil {
			s.logger.Warn("skipping preset with corrupt filters", "entity", entity, "name", m.Name, "error", err)
			continue
		}
		responses = append(responses, p.ToResponse())
	}
	sort.SliceStable(responses, func(i, j int) bool { return responses[i].Name < responses[j].Name })
	return responses, nil
}

func (s *Service) Delete(entity, name string) error {
	if _, err := s.registry.Get(entity); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(entity, name)
	if err != nil {
		s.logger.Error("failed to delete preset", "entity", entity, "name", name, "error", err)
		return internal.NewInternalError("failed to delete preset", err)
	}
	if !deleted {
		return notFound(entity, name)
	}
	s.logger.Info("preset deleted", "entity", entity, "name", name)
	return nil
}

// Apply loads a preset and replaces the target's search and filters with it.
func (s *Service) Apply(entity, name string, target Target) (*Preset, error) {
	p, err := s.Get(entity, name)
	if err != nil {
		return nil, err
	}
	if err := target.SetFilters(p.Search, p.Filters); err != nil {
		return nil, err
	}
	return p, nil
}

func notFound(entity, name string) error {
	return internal.NewNotFoundError(fmt.Sprintf("no preset %q for %s", name, entity), internal.ErrCodePresetNotFound)
}
