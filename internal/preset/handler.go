package preset

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/transport"
)

type ServiceAPI interface {
	Save(entity string, req SavePresetRequest, createdBy string) (*PresetResponse, error)
	Get(entity, name string) (*Preset, error)
	List(entity string) ([]PresetResponse, error)
	Delete(entity, name string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.Service.List(chi.URLParam(r, "entity"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PresetsResponse{Presets: presets})
}

func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(chi.URLParam(r, "entity"), chi.URLParam(r, "name"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p.ToResponse())
}

func (h *Handler) SavePreset(w http.ResponseWriter, r *http.Request) {
	var req SavePresetRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}

	resp, err := h.Service.Save(chi.URLParam(r, "entity"), req, internal.OperatorFromContext(r.Context()))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(chi.URLParam(r, "entity"), chi.URLParam(r, "name")); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
