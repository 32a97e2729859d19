package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/transport"
	"github.com/viakashmir/admin-console/pkg/logger"
)

var _ = ginkgo.Describe("Handler", func() {
	var handler *Handler

	ginkgo.BeforeEach(func() {
		tokenGen := NewJWTTokenGenerator(accessSecret, refreshSecret, 15*time.Minute, 24*time.Hour)
		service := NewService(testOperators(), tokenGen, logger.Discard())
		handler = NewHandler(transport.NewBaseHandler(logger.Discard()), service)
	})

	login := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		return w
	}

	ginkgo.Describe("Login", func() {
		ginkgo.It("should return tokens for valid credentials", func() {
			w := login(`{"email":"ops@viakashmir.com","password":"correct_password"}`)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			var tokens AuthTokens
			gomega.Expect(json.Unmarshal(w.Body.Bytes(), &tokens)).To(gomega.Succeed())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should return 401 for a wrong password", func() {
			w := login(`{"email":"ops@viakashmir.com","password":"nope"}`)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring(string(internal.ErrCodeInvalidCredentials)))
		})

		ginkgo.It("should return 400 when the email is malformed", func() {
			w := login(`{"email":"ops","password":"x"}`)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring(`"field":"email"`))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var seen *Operator

		protected := func(authHeader string) *httptest.ResponseRecorder {
			seen = nil
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = OperatorFromContext(r.Context())
				gomega.Expect(internal.OperatorFromContext(r.Context())).To(gomega.Equal("ops@viakashmir.com"))
				w.WriteHeader(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/views/packages", nil)
			if authHeader != "" {
				req.Header.Set("Authorization", authHeader)
			}
			w := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(w, req)
			return w
		}

		ginkgo.It("should put the operator on the context", func() {
			var tokens AuthTokens
			gomega.Expect(json.Unmarshal(login(`{"email":"ops@viakashmir.com","password":"correct_password"}`).Body.Bytes(), &tokens)).To(gomega.Succeed())

			w := protected("Bearer " + tokens.AccessToken)

			gomega.Expect(w.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.Permissions).To(gomega.ConsistOf(PermViewsRead))
		})

		ginkgo.It("should reject a missing token", func() {
			w := protected("")
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("should reject a garbage token", func() {
			w := protected("Bearer garbage")
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(w.Body.String()).To(gomega.ContainSubstring(string(internal.ErrCodeInvalidToken)))
		})
	})
})
