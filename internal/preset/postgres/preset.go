package postgres

import (
	"errors"

	"gorm.io/gorm"

	presetDatamodel "github.com/viakashmir/admin-console/internal/core/datamodel/preset"
	"github.com/viakashmir/admin-console/internal/preset"
)

type PresetRepository struct {
	db *gorm.DB
}

func NewPresetRepository(db *gorm.DB) preset.RepositoryAPI {
	return &PresetRepository{db: db}
}

func (r *PresetRepository) ListByEntity(entity string) ([]*presetDatamodel.ViewPreset, error) {
	var presets []*presetDatamodel.ViewPreset
	err := r.db.Where("entity = ?", entity).Order("name ASC").Find(&presets).Error
	return presets, err
}

func (r *PresetRepository) GetByName(entity, name string) (*presetDatamodel.ViewPreset, error) {
	var p presetDatamodel.ViewPreset
	err := r.db.Where("entity = ? AND name = ?", entity, name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Save inserts a new preset or updates the row with the same id.
func (r *PresetRepository) Save(p *presetDatamodel.ViewPreset) error {
	if p.ID == 0 {
		return r.db.Create(p).Error
	}
	return r.db.Save(p).Error
}

func (r *PresetRepository) Delete(entity, name string) (bool, error) {
	res := r.db.Where("entity = ? AND name = ?", entity, name).Delete(&presetDatamodel.ViewPreset{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
