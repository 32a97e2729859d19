package gateway

import (
	"github.com/viakashmir/admin-console/internal/catalog"
)

type UploadRequest struct {
	Field    string `json:"field" validate:"required"`
	Name     string `json:"name" validate:"required"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"content" validate:"required"`
}

// RecordWriteRequest carries form values as the operator typed them. List
// fields are comma separated.
type RecordWriteRequest struct {
	Values map[string]string `json:"values" validate:"required"`
	Files  []UploadRequest   `json:"files" validate:"dive"`
}

type RecordResponse struct {
	Message string         `json:"message"`
	Record  catalog.Record `json:"record,omitempty"`
}

type EntityResponse struct {
	Name     string           `json:"name"`
	Label    string           `json:"label"`
	Path     string           `json:"path"`
	PageSize int              `json:"page_size"`
	ReadOnly bool             `json:"read_only"`
	Filters  []catalog.Filter `json:"filters"`
	Columns  []string         `json:"columns"`
}

type EntitiesResponse struct {
	Entities []EntityResponse `json:"entities"`
}

func toEntityResponse(e catalog.Entity) EntityResponse {
	filters := e.Filters
	if filters == nil {
		filters = []catalog.Filter{}
	}
	return EntityResponse{
		Name:     e.Name,
		Label:    e.Label,
		Path:     e.Path,
		PageSize: e.PageSize,
		ReadOnly: e.ReadOnly,
		Filters:  filters,
		Columns:  e.Columns,
	}
}
