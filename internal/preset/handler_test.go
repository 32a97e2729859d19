package preset_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/database"
	"github.com/viakashmir/admin-console/internal/preset"
	presetPostgres "github.com/viakashmir/admin-console/internal/preset/postgres"
	"github.com/viakashmir/admin-console/internal/transport"
	"github.com/viakashmir/admin-console/pkg/logger"
)

var _ = Describe("Preset Handler Integration", func() {
	var router chi.Router

	BeforeEach(func() {
		conn, err := database.Open(internal.DatabaseConfig{Driver: database.DriverSQLite, Source: ":memory:"})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(conn.Close)
		Expect(database.Migrate(context.Background(), conn.DB, database.DriverSQLite, false, logger.Discard())).To(Succeed())
		db, err := database.Gorm(conn, database.DriverSQLite, false)
		Expect(err).NotTo(HaveOccurred())

		service := preset.NewService(presetPostgres.NewPresetRepository(db), catalog.NewRegistry(nil), logger.Discard())
		handler := preset.NewHandler(transport.NewBaseHandler(logger.Discard()), service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithOperator(r.Context(), "ops@viakashmir.com")))
			})
		})
		router.Get("/presets/{entity}", handler.ListPresets)
		router.Post("/presets/{entity}", handler.SavePreset)
		router.Get("/presets/{entity}/{name}", handler.GetPreset)
		router.Delete("/presets/{entity}/{name}", handler.DeletePreset)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("should save, fetch, list and delete a preset", func() {
		w := do(http.MethodPost, "/presets/packages", `{"name":"adventure","filters":{"category":"Adventure"}}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		var saved preset.PresetResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &saved)).To(Succeed())
		Expect(saved.CreatedBy).To(Equal("ops@viakashmir.com"))

		w = do(http.MethodGet, "/presets/packages/adventure", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"category":"Adventure"`))

		w = do(http.MethodGet, "/presets/packages", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var list preset.PresetsResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &list)).To(Succeed())
		Expect(list.Presets).To(HaveLen(1))

		w = do(http.MethodDelete, "/presets/packages/adventure", "")
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, "/presets/packages/adventure", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodePresetNotFound)))
	})

	It("should reject a body without a name", func() {
		w := do(http.MethodPost, "/presets/packages", `{"search":"x"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(`"field":"name"`))
	})

	It("should reject malformed JSON", func() {
		w := do(http.MethodPost, "/presets/packages", `{"name":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return 404 for an unknown entity", func() {
		w := do(http.MethodGet, "/presets/bookings", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
