package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PermViewsRead     = "views:read"
	PermEntitiesWrite = "entities:write"
	PermPresetsWrite  = "presets:write"
	PermAdmin         = "admin"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

type ctxKey string

const ContextOperatorKey ctxKey = "auth_operator"

// Operator is a signed-in console user.
type Operator struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission reports whether the operator holds perm. The admin
// permission grants everything.
func (o *Operator) HasPermission(perm string) bool {
	for _, p := range o.Permissions {
		if p == perm || p == PermAdmin {
			return true
		}
	}
	return false
}

func (o *Operator) HasAnyPermission(perms []string) bool {
	for _, p := range perms {
		if o.HasPermission(p) {
			return true
		}
	}
	return false
}

func OperatorFromContext(ctx context.Context) (*Operator, bool) {
	op, ok := ctx.Value(ContextOperatorKey).(*Operator)
	return op, ok && op != nil
}

func ContextWithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, ContextOperatorKey, op)
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Claims represents JWT token claims
type Claims struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions,omitempty"`
	Kind        string   `json:"kind"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnknownOperator    = errors.New("operator is not configured")
)
