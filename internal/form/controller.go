package form

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/core/common/validation"
	"github.com/viakashmir/admin-console/internal/core/events"
	"github.com/viakashmir/admin-console/internal/resource"
	"github.com/viakashmir/admin-console/pkg/logger"
)

// Submitter is the part of the resource client a form writes through.
type Submitter interface {
	Create(ctx context.Context, e catalog.Entity, payload map[string]any) (catalog.Record, error)
	Update(ctx context.Context, e catalog.Entity, id string, payload map[string]any) (catalog.Record, error)
	CreateMultipart(ctx context.Context, e catalog.Entity, fields map[string]string, files []resource.File) (catalog.Record, error)
	Delete(ctx context.Context, e catalog.Entity, id string) error
}

// Publisher announces successful writes so list views refetch.
type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

var pastTense = map[string]string{
	events.OpCreate: "created",
	events.OpUpdate: "updated",
	events.OpDelete: "deleted",
}

type upload struct {
	name     string
	content  []byte
	mimeType string
}

// Snapshot is a copy of the form state.
type Snapshot struct {
	Open       bool              `json:"open"`
	Submitting bool              `json:"submitting"`
	EditingID  string            `json:"editing_id,omitempty"`
	Values     map[string]string `json:"values"`
	Files      []string          `json:"files,omitempty"`
	Message    string            `json:"message,omitempty"`
	Err        error             `json:"-"`
}

// Controller holds one create/edit modal for an entity.
type Controller struct {
	entity    catalog.Entity
	client    Submitter
	publisher Publisher
	logger    *slog.Logger

	mu         sync.Mutex
	open       bool
	submitting bool
	editingID  string
	values     map[string]string
	files      map[string]upload
	message    string
	err        error
}

func NewController(e catalog.Entity, client Submitter, publisher Publisher, lg *slog.Logger) *Controller {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Controller{
		entity:    e,
		client:    client,
		publisher: publisher,
		logger:    lg.With("entity", e.Name),
		values:    make(map[string]string),
		files:     make(map[string]upload),
	}
}

// Open starts editing initial, or a new record when initial has no id.
func (c *Controller) Open(initial catalog.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = true
	c.submitting = false
	c.err = nil
	c.message = ""
	c.editingID = initial.ID()
	c.values = make(map[string]string, len(c.entity.Fields))
	c.files = make(map[string]upload)
	for _, field := range c.entity.Fields {
		if c.entity.IsTransient(field) || c.entity.IsFile(field) {
			continue
		}
		if v := initial.String(field); v != "" {
			c.values[field] = v
		}
	}
}

func (c *Controller) OpenNew() {
	c.Open(nil)
}

func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.knows(name) || c.entity.IsFile(name) {
		return internal.NewValidationFieldError(name,
			fmt.Sprintf("%s has no field %q", c.entity.Name, name), internal.ErrCodeValidationFailed)
	}
	c.values[name] = value
	return nil
}

// AttachFile sets an upload for a file field. Forms with files are sent as
// multipart.
func (c *Controller) AttachFile(field, name string, content []byte, mimeType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.entity.IsFile(field) {
		return internal.NewValidationFieldError(field,
			fmt.Sprintf("%s does not accept a file for %q", c.entity.Name, field), internal.ErrCodeValidationFailed)
	}
	c.files[field] = upload{name: name, content: content, mimeType: mimeType}
	return nil
}

func (c *Controller) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.validate(); err != nil {
		return err
	}
	return nil
}

func (c *Controller) validate() *internal.AppError {
	v := validation.NewValidator()
	byField := make(map[string]*validation.FieldValidator)
	field := func(name string) *validation.FieldValidator {
		if fv, ok := byField[name]; ok {
			return fv
		}
		fv := v.Field(name, c.values[name])
		byField[name] = fv
		return fv
	}

	editing := c.editingID != ""
	for _, rule := range c.entity.Rules {
		if rule.CreateOnly && editing {
			continue
		}
		fv := field(rule.Field)
		switch rule.Kind {
		case catalog.RuleRequired:
			fv.Required()
		case catalog.RuleEmail:
			fv.Email()
		case catalog.RuleMinLength:
			fv.MinLength(rule.Min)
		case catalog.RuleMinNumber:
			fv.MinNumber(int64(rule.Min))
		case catalog.RuleMatches:
			fv.Matches(c.values[rule.Other])
		case catalog.RuleRequiredWhen:
			fv.RequiredWhen(c.values[rule.Other] == rule.WhenValue)
		case catalog.RuleNonEmptyList:
			fv.NonEmptyList()
		}
		if rule.Message != "" {
			fv.Message(rule.Message)
		}
	}
	return v.Validate()
}

// Submit validates and writes the form. On success the form closes and a
// mutation event is published; on failure it stays open with its values.
func (c *Controller) Submit(ctx context.Context) (catalog.Record, error) {
	c.mu.Lock()
	if err := c.checkOpen(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, internal.NewConflictError("submission already in progress", internal.ErrCodeValidationFailed)
	}
	if c.entity.ReadOnly {
		c.mu.Unlock()
		return nil, internal.NewForbiddenError(fmt.Sprintf("%s are read-only", c.entity.Label), internal.ErrCodeInsufficientScope)
	}
	if err := c.validate(); err != nil {
		c.err = err
		c.mu.Unlock()
		return nil, err
	}

	editingID := c.editingID
	payload := c.payload()
	files := c.uploads()
	multipart := editingID == "" && (c.entity.MultipartCreate || len(files) > 0)
	var fields map[string]string
	if multipart {
		var err error
		if fields, err = c.multipartFields(payload); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}
	c.submitting = true
	c.err = nil
	c.mu.Unlock()

	var (
		rec catalog.Record
		err error
		op  string
	)
	switch {
	case editingID != "":
		op = events.OpUpdate
		rec, err = c.client.Update(ctx, c.entity, editingID, payload)
	case multipart:
		op = events.OpCreate
		rec, err = c.client.CreateMultipart(ctx, c.entity, fields, files)
	default:
		op = events.OpCreate
		rec, err = c.client.Create(ctx, c.entity, payload)
	}

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		c.logger.Warn("form submission failed", "op", op, "error", err)
		return nil, err
	}
	c.open = false
	c.values = make(map[string]string)
	c.files = make(map[string]upload)
	c.editingID = ""
	c.message = fmt.Sprintf("%s: record %s successfully", c.entity.Label, pastTense[op])
	c.mu.Unlock()

	id := rec.ID()
	if id == "" {
		id = editingID
	}
	c.announce(ctx, op, id)
	return rec, nil
}

// Delete removes a record and announces it like a submission.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if c.entity.ReadOnly {
		return internal.NewForbiddenError(fmt.Sprintf("%s are read-only", c.entity.Label), internal.ErrCodeInsufficientScope)
	}
	if err := c.client.Delete(ctx, c.entity, id); err != nil {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.err = nil
	c.message = fmt.Sprintf("%s: record %s successfully", c.entity.Label, pastTense[events.OpDelete])
	c.mu.Unlock()
	c.announce(ctx, events.OpDelete, id)
	return nil
}

func (c *Controller) announce(ctx context.Context, op, id string) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishSync(ctx, events.NewEntityMutatedEvent(c.entity.Name, op, id)); err != nil {
		// the write itself succeeded; the list view reports its own failure
		c.logger.Warn("refetch after mutation failed", "op", op, "id", id, "error", err)
	}
}

func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.submitting = false
	c.editingID = ""
	c.values = make(map[string]string)
	c.files = make(map[string]upload)
	c.err = nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	values := make(map[string]string, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	var files []string
	for field := range c.files {
		files = append(files, field)
	}
	return Snapshot{
		Open:       c.open,
		Submitting: c.submitting,
		EditingID:  c.editingID,
		Values:     values,
		Files:      files,
		Message:    c.message,
		Err:        c.err,
	}
}

func (c *Controller) checkOpen() error {
	if !c.open {
		return internal.NewValidationError("form is not open", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (c *Controller) knows(field string) bool {
	for _, f := range c.entity.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// payload converts form values to the request body: values are trimmed,
// blanks and confirmation fields dropped, numbers and lists typed.
func (c *Controller) payload() map[string]any {
	out := make(map[string]any, len(c.values))
	for field, raw := range c.values {
		if c.entity.IsTransient(field) || c.entity.IsFile(field) {
			continue
		}
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		switch {
		case c.entity.IsList(field):
			out[field] = splitList(value)
		case c.entity.IsNumber(field):
			if d, err := decimal.NewFromString(value); err == nil {
				out[field] = d.InexactFloat64()
			} else {
				out[field] = value
			}
		default:
			out[field] = value
		}
	}
	return out
}

func (c *Controller) multipartFields(payload map[string]any) (map[string]string, error) {
	fields := make(map[string]string, len(payload))
	for field, value := range payload {
		switch v := value.(type) {
		case string:
			fields[field] = v
		case float64:
			fields[field] = strconv.FormatFloat(v, 'f', -1, 64)
		case []string:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, internal.NewInternalError("failed to encode list field", err)
			}
			fields[field] = string(raw)
		default:
			fields[field] = fmt.Sprint(v)
		}
	}
	return fields, nil
}

func (c *Controller) uploads() []resource.File {
	files := make([]resource.File, 0, len(c.files))
	for field, u := range c.files {
		files = append(files, resource.File{
			Field:    field,
			Name:     u.name,
			Content:  bytes.NewReader(u.content),
			MimeType: u.mimeType,
		})
	}
	return files
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
