package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/transport"
)

// OpenAPIValidator rejects requests that do not match the document's
// parameters or request bodies. Routes the document does not describe pass
// through untouched.
func OpenAPIValidator(spec []byte, base *transport.BaseHandler) (func(http.Handler) http.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	options := &openapi3filter.Options{
		// bearer tokens are checked by the auth middleware
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				if !errors.Is(err, routers.ErrPathNotFound) && !errors.Is(err, routers.ErrMethodNotAllowed) {
					base.Logger.Warn("openapi route lookup failed", "path", r.URL.Path, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				base.WriteAppError(w, requestInvalid(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func requestInvalid(err error) *internal.AppError {
	details := internal.ValidationErrors{}
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			details.Errors = append(details.Errors, describe(e))
		}
	} else {
		details.Errors = append(details.Errors, describe(err))
	}
	return internal.NewValidationError("request does not match the API description", internal.ErrCodeRequestInvalid).
		WithDetails(details)
}

func describe(err error) internal.ValidationError {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		field := "body"
		if reqErr.Parameter != nil {
			field = reqErr.Parameter.Name
		}
		msg := reqErr.Reason
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return internal.ValidationError{Field: field, Message: msg, Code: string(internal.ErrCodeRequestInvalid)}
	}
	return internal.ValidationError{Message: err.Error(), Code: string(internal.ErrCodeRequestInvalid)}
}
