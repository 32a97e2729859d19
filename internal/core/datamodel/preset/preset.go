package preset

import "time"

type ViewPreset struct {
	ID        int64     `gorm:"primaryKey"`
	Entity    string    `gorm:"column:entity;not null;uniqueIndex:view_presets_entity_name_key"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:view_presets_entity_name_key"`
	Search    string    `gorm:"column:search"`
	Filters   string    `gorm:"column:filters"`
	CreatedBy string    `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ViewPreset) TableName() string {
	return "view_presets"
}
