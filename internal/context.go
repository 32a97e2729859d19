package internal

import "context"

type ctxKey string

const ContextOperatorKey ctxKey = "operator"

// OperatorFromContext returns the email of the signed-in operator, or "" for
// calls made outside an authenticated gateway request.
func OperatorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	email, _ := ctx.Value(ContextOperatorKey).(string)
	return email
}

func ContextWithOperator(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ContextOperatorKey, email)
}
