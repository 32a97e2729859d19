package gateway

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/form"
	"github.com/viakashmir/admin-console/internal/listview"
	"github.com/viakashmir/admin-console/internal/metrics"
	"github.com/viakashmir/admin-console/internal/preset"
	"github.com/viakashmir/admin-console/internal/transport"
	"github.com/viakashmir/admin-console/pkg/logger"
)

// Backend is the resource client as seen by the gateway.
type Backend interface {
	listview.Fetcher
	form.Submitter
}

// PresetApplier resolves a saved preset onto a list view.
type PresetApplier interface {
	Apply(entity, name string, target preset.Target) (*preset.Preset, error)
}

// query parameters of the view endpoint that are not filters
var reservedParams = map[string]bool{"search": true, "page": true, "preset": true}

type Handler struct {
	*transport.BaseHandler
	registry  *catalog.Registry
	backend   Backend
	presets   PresetApplier
	publisher form.Publisher
	collector *metrics.Collector
}

type Options struct {
	Registry  *catalog.Registry
	Backend   Backend
	Presets   PresetApplier
	Publisher form.Publisher
	Collector *metrics.Collector
}

func NewHandler(baseHandler *transport.BaseHandler, opts Options) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		registry:    opts.Registry,
		backend:     opts.Backend,
		presets:     opts.Presets,
		publisher:   opts.Publisher,
		collector:   opts.Collector,
	}
}

func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	all := h.registry.All()
	resp := EntitiesResponse{Entities: make([]EntityResponse, 0, len(all))}
	for _, e := range all {
		resp.Entities = append(resp.Entities, toEntityResponse(e))
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetView loads the entity's collection and returns one derived page. A
// preset is applied first; explicit search and filter parameters override it.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	e, err := h.registry.Get(chi.URLParam(r, "entity"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	q := r.URL.Query()
	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.WriteAppError(w, internal.NewValidationFieldError("page", "page must be a positive integer", internal.ErrCodeInvalidPage))
			return
		}
		page = n
	}

	view, err := h.buildView(r.Context(), e, q.Get("preset"), q, page)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) buildView(ctx context.Context, e catalog.Entity, presetName string, q map[string][]string, page int) (listview.View, error) {
	p := listview.NewPipeline(e, h.backend, nil, h.collector, logger.From(ctx))
	defer p.Close()

	if err := p.Load(ctx); err != nil {
		return listview.View{}, err
	}

	if presetName != "" {
		if h.presets == nil {
			return listview.View{}, internal.NewValidationFieldError("preset", "presets are not available", internal.ErrCodePresetNotFound)
		}
		if _, err := h.presets.Apply(e.Name, presetName, p); err != nil {
			return listview.View{}, err
		}
	}

	if values, ok := q["search"]; ok && len(values) > 0 {
		p.SetSearch(values[0])
	}
	names := make([]string, 0, len(q))
	for name := range q {
		if !reservedParams[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.SetFilter(name, q[name][0]); err != nil {
			return listview.View{}, err
		}
	}

	p.GoTo(page)
	return p.View(), nil
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, id string, status int) {
	e, err := h.registry.Get(chi.URLParam(r, "entity"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var req RecordWriteRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}

	c := h.controller(r.Context(), e)
	if id == "" {
		c.OpenNew()
	} else {
		c.Open(catalog.Record{"id": id})
	}
	for field, value := range req.Values {
		if err := c.SetField(field, value); err != nil {
			h.WriteAppError(w, err)
			return
		}
	}
	for _, f := range req.Files {
		if err := c.AttachFile(f.Field, f.Name, f.Content, f.MimeType); err != nil {
			h.WriteAppError(w, err)
			return
		}
	}

	rec, err := c.Submit(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, status, RecordResponse{Message: c.Snapshot().Message, Record: rec})
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	e, err := h.registry.Get(chi.URLParam(r, "entity"))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	c := h.controller(r.Context(), e)
	if err := c.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RecordResponse{Message: c.Snapshot().Message})
}

func (h *Handler) controller(ctx context.Context, e catalog.Entity) *form.Controller {
	return form.NewController(e, h.backend, h.publisher, logger.From(ctx))
}
