package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/metrics"
	"github.com/viakashmir/admin-console/pkg/logger"
)

// TokenSource supplies bearer tokens. Invalidate is called after the API
// rejects one.
type TokenSource interface {
	Acquire(ctx context.Context) (string, error)
	Invalidate(ctx context.Context) error
}

// File is one upload part of a multipart create.
type File struct {
	Field    string
	Name     string
	Content  io.Reader
	MimeType string
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the admin API on behalf of every entity.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	metrics    *metrics.Collector
	logger     *slog.Logger
}

func NewClient(cfg Config, tokens TokenSource, httpClient *http.Client, collector *metrics.Collector, lg *slog.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     tokens,
		httpClient: httpClient,
		metrics:    collector,
		logger:     lg,
	}
}

func (c *Client) List(ctx context.Context, e catalog.Entity) ([]catalog.Record, error) {
	body, err := c.do(ctx, e, "list", http.MethodGet, "", nil, "")
	if err != nil {
		return nil, err
	}
	records, err := NormalizeList(body, e.WrapperKeys)
	if err != nil {
		c.logger.Error("unexpected list response", "entity", e.Name, "error", err)
		return nil, err
	}
	return records, nil
}

func (c *Client) Get(ctx context.Context, e catalog.Entity, id string) (catalog.Record, error) {
	body, err := c.do(ctx, e, "get", http.MethodGet, id, nil, "")
	if err != nil {
		return nil, err
	}
	rec, err := NormalizeSingle(body, e.SingleKeys)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, internal.NewParseError("empty record response", internal.ErrCodeMalformedBody, nil)
	}
	return rec, nil
}

func (c *Client) Create(ctx context.Context, e catalog.Entity, payload map[string]any) (catalog.Record, error) {
	return c.sendJSON(ctx, e, "create", http.MethodPost, "", payload)
}

func (c *Client) Update(ctx context.Context, e catalog.Entity, id string, payload map[string]any) (catalog.Record, error) {
	return c.sendJSON(ctx, e, "update", http.MethodPut, id, payload)
}

// CreateMultipart posts form fields and files as multipart/form-data.
func (c *Client) CreateMultipart(ctx context.Context, e catalog.Entity, fields map[string]string, files []File) (catalog.Record, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, internal.NewInternalError("failed to encode form field", err)
		}
	}
	for _, f := range files {
		part, err := createFilePart(w, f)
		if err != nil {
			return nil, internal.NewInternalError("failed to encode form file", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, internal.NewInternalError("failed to read upload", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, internal.NewInternalError("failed to finish multipart body", err)
	}

	body, err := c.do(ctx, e, "create", http.MethodPost, "", &buf, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return NormalizeSingle(body, e.SingleKeys)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createFilePart is CreateFormFile with the upload's own content type.
// Parts without one go out as application/octet-stream.
func createFilePart(w *multipart.Writer, f File) (io.Writer, error) {
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", mimeType)
	return w.CreatePart(h)
}

func (c *Client) Delete(ctx context.Context, e catalog.Entity, id string) error {
	_, err := c.do(ctx, e, "delete", http.MethodDelete, id, nil, "")
	return err
}

func (c *Client) sendJSON(ctx context.Context, e catalog.Entity, op, method, id string, payload map[string]any) (catalog.Record, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode payload", err)
	}
	body, err := c.do(ctx, e, op, method, id, bytes.NewReader(raw), "application/json")
	if err != nil {
		return nil, err
	}
	return NormalizeSingle(body, e.SingleKeys)
}

// do runs one authenticated request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, e catalog.Entity, op, method, id string, body io.Reader, contentType string) ([]byte, error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		c.metrics.ObserveAPICall(e.Name, op, outcome, time.Since(start))
	}()

	bearer, err := c.tokens.Acquire(ctx)
	if err != nil {
		outcome = "token_error"
		return nil, err
	}

	target := c.baseURL + "/" + e.Path
	if id != "" {
		target += "/" + url.PathEscape(id)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		outcome = "request_error"
		return nil, internal.NewInternalError("failed to create request", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	log := logger.From(ctx).With("entity", e.Name, "op", op, "upstream_request_id", requestID)
	log.Debug("calling admin api", "method", method, "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "network_error"
		log.Error("admin api unreachable", "error", err)
		return nil, internal.NewNetworkError(fmt.Sprintf("%s %s failed", method, e.Path), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "network_error"
		return nil, internal.NewNetworkError("failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "http_" + fmt.Sprint(resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized {
			// the next call re-acquires; this one is not retried
			if err := c.tokens.Invalidate(ctx); err != nil {
				log.Warn("failed to invalidate rejected token", "error", err)
			}
		}
		log.Warn("admin api returned error status", "status", resp.StatusCode)
		return nil, internal.NewHTTPError(resp.StatusCode, errorMessage(raw), internal.ErrCodeUpstreamStatus)
	}

	log.Debug("admin api call complete", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return raw, nil
}
