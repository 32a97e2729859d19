package auth

import (
	"errors"
	"net/http"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/transport"
	"github.com/viakashmir/admin-console/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	tokens, err := h.Service.Authenticate(dto)
	if err != nil {
		h.WriteAppError(w, toAppError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(dto.RefreshToken)
	if err != nil {
		h.WriteAppError(w, toAppError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware resolves the bearer token to an operator and stores it on
// the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteAppError(w, toAppError(err))
			return
		}

		op, err := h.Service.Operator(claims.Email)
		if err != nil {
			h.Logger.Warn("token for operator no longer configured", "email", claims.Email)
			h.WriteAppError(w, internal.NewUnauthorizedError("operator not found", internal.ErrCodeInvalidToken))
			return
		}

		ctx := ContextWithOperator(r.Context(), op)
		ctx = internal.ContextWithOperator(ctx, op.Email)
		ctx = logger.With(ctx, "operator", op.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return internal.NewUnauthorizedError("invalid credentials", internal.ErrCodeInvalidCredentials)
	case errors.Is(err, ErrTokenExpired):
		return internal.NewUnauthorizedError("token expired", internal.ErrCodeTokenExpired)
	case errors.Is(err, ErrInvalidToken):
		return internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken)
	}
	return internal.NewInternalError("authentication failed", err)
}
