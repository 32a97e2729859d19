package preset

import "time"

type SavePresetRequest struct {
	Name    string            `json:"name" validate:"required,max=128"`
	Search  string            `json:"search" validate:"max=256"`
	Filters map[string]string `json:"filters"`
}

type PresetResponse struct {
	Entity    string            `json:"entity"`
	Name      string            `json:"name"`
	Search    string            `json:"search"`
	Filters   map[string]string `json:"filters"`
	CreatedBy string            `json:"created_by,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type PresetsResponse struct {
	Presets []PresetResponse `json:"presets"`
}
