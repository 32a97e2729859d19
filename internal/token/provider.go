package token

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/metrics"
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// MinValidity is how long a cached token must still be valid to be
	// reused.
	MinValidity time.Duration
	// DefaultTTL applies when neither expires_in nor a JWT exp claim is
	// available.
	DefaultTTL time.Duration
	Timeout    time.Duration
}

// Provider hands out bearer tokens for the admin API, exchanging the client
// credentials only when no usable token is cached.
type Provider struct {
	cfg        Config
	store      Store
	httpClient *http.Client
	metrics    *metrics.Collector
	logger     *slog.Logger
	group      singleflight.Group
	now        func() time.Time
}

func NewProvider(cfg Config, store Store, httpClient *http.Client, collector *metrics.Collector, logger *slog.Logger) *Provider {
	if store == nil {
		store = NewMemoryStore()
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 15 * time.Minute
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{
		cfg:        cfg,
		store:      store,
		httpClient: httpClient,
		metrics:    collector,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// Acquire returns a bearer token that stays valid for at least MinValidity.
func (p *Provider) Acquire(ctx context.Context) (string, error) {
	t, err := p.Token(ctx)
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

func (p *Provider) Token(ctx context.Context) (Token, error) {
	if cached, ok := p.cached(ctx); ok {
		return cached, nil
	}

	// concurrent callers share one round trip, which outlives any single
	// caller giving up; the http client timeout still bounds it
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(p.cfg.ClientID, func() (interface{}, error) {
		if cached, ok := p.cached(shared); ok {
			return cached, nil
		}
		fresh, err := p.fetch(shared)
		if err != nil {
			return Token{}, err
		}
		if err := p.store.Put(shared, p.cfg.ClientID, fresh); err != nil {
			p.logger.Warn("failed to cache access token", "error", err)
		}
		return fresh, nil
	})

	select {
	case <-ctx.Done():
		return Token{}, internal.NewNetworkError("token request cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	}
}

// State reports the lifecycle state of the cached token.
func (p *Provider) State(ctx context.Context) State {
	t, err := p.store.Get(ctx, p.cfg.ClientID)
	if err != nil {
		return StateNone
	}
	return t.StateAt(p.now(), p.cfg.MinValidity)
}

// Invalidate drops the cached token, e.g. after the API rejected it.
func (p *Provider) Invalidate(ctx context.Context) error {
	return p.store.Delete(ctx, p.cfg.ClientID)
}

func (p *Provider) cached(ctx context.Context) (Token, bool) {
	t, err := p.store.Get(ctx, p.cfg.ClientID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn("token store read failed", "error", err)
		}
		return Token{}, false
	}
	return t, t.StateAt(p.now(), p.cfg.MinValidity) == StateValid
}

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type tokenResponse struct {
	tokenPayload
	Data    *tokenPayload `json:"data"`
	Message string        `json:"message"`
}

func (p *Provider) fetch(ctx context.Context) (Token, error) {
	if p.cfg.ClientSecret == "" {
		return Token{}, internal.NewValidationError("auth.client_secret is not configured", internal.ErrCodeTokenMissing)
	}

	body, err := json.Marshal(map[string]string{
		"client_id":     p.cfg.ClientID,
		"client_secret": p.cfg.ClientSecret,
	})
	if err != nil {
		return Token{}, internal.NewInternalError("failed to encode token request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return Token{}, internal.NewInternalError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.metrics.ObserveTokenFetch("network_error")
		p.logger.Error("token request failed", "error", err)
		return Token{}, internal.NewNetworkError("token request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		p.metrics.ObserveTokenFetch("network_error")
		return Token{}, internal.NewNetworkError("failed to read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.metrics.ObserveTokenFetch("http_error")
		var parsed tokenResponse
		_ = json.Unmarshal(raw, &parsed)
		p.logger.Error("token endpoint rejected credentials", "status", resp.StatusCode)
		return Token{}, internal.NewHTTPError(resp.StatusCode, parsed.Message, internal.ErrCodeTokenRequestFailed)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		p.metrics.ObserveTokenFetch("parse_error")
		return Token{}, internal.NewParseError("malformed token response", internal.ErrCodeMalformedBody, err)
	}
	payload := parsed.tokenPayload
	if parsed.Data != nil && parsed.Data.AccessToken != "" {
		payload = *parsed.Data
	}
	if payload.AccessToken == "" {
		p.metrics.ObserveTokenFetch("parse_error")
		return Token{}, internal.NewParseError("token response has no access_token", internal.ErrCodeTokenMissing, nil)
	}

	t := Token{AccessToken: payload.AccessToken, ExpiresAt: p.expiry(payload)}
	p.metrics.ObserveTokenFetch("ok")
	p.logger.Info("acquired access token", "expires_at", t.ExpiresAt)
	return t, nil
}

func (p *Provider) expiry(payload tokenPayload) time.Time {
	now := p.now()
	if payload.ExpiresIn > 0 {
		return now.Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	// the signature is the issuer's business; only exp matters here
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(payload.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return now.Add(p.cfg.DefaultTTL)
}

// Describe is a short human-readable summary used by the CLI.
func (p *Provider) Describe(ctx context.Context) string {
	t, err := p.store.Get(ctx, p.cfg.ClientID)
	if err != nil {
		return StateNone.String()
	}
	return fmt.Sprintf("%s (expires %s)", t.StateAt(p.now(), p.cfg.MinValidity), t.ExpiresAt.Format(time.RFC3339))
}
