package middleware

import (
	"net/http"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/auth"
	"github.com/viakashmir/admin-console/internal/transport"
)

// RequirePermissions lets the request through when the operator holds any of
// permissions. It must run after the auth middleware.
func RequirePermissions(base *transport.BaseHandler, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, ok := auth.OperatorFromContext(r.Context())
			if !ok {
				base.WriteAppError(w, internal.NewUnauthorizedError("not signed in", internal.ErrCodeInvalidToken))
				return
			}

			if !op.HasAnyPermission(permissions) {
				base.Logger.Warn("access denied: operator lacks required permissions",
					"operator", op.Email,
					"required_permissions", permissions,
					"operator_permissions", op.Permissions)
				base.WriteAppError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeInsufficientScope))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
