package resource_test

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/metrics"
	"github.com/viakashmir/admin-console/internal/resource"
	"github.com/viakashmir/admin-console/pkg/logger"
)

func TestResource(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Resource Client Suite")
}

type fakeTokens struct {
	token       string
	err         error
	invalidated int
}

func (f *fakeTokens) Acquire(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *fakeTokens) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

type captured struct {
	Method      string
	Path        string
	Auth        string
	RequestID   string
	ContentType string
	Body        []byte
}

type backend struct {
	server   *httptest.Server
	mu       sync.Mutex
	requests []captured
	status   int
	reply    string
}

func newBackend() *backend {
	b := &backend{status: http.StatusOK, reply: `[]`}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests = append(b.requests, captured{
			Method:      r.Method,
			Path:        r.URL.Path,
			Auth:        r.Header.Get("Authorization"),
			RequestID:   r.Header.Get("X-Request-ID"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		status, reply := b.status, b.reply
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	return b
}

func (b *backend) last() captured {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

var _ = Describe("Client", func() {
	var (
		be        *backend
		tokens    *fakeTokens
		collector *metrics.Collector
		client    *resource.Client
		reg       *catalog.Registry
		cats      catalog.Entity
		ctx       context.Context
	)

	BeforeEach(func() {
		be = newBackend()
		tokens = &fakeTokens{token: "tok-1"}
		collector = metrics.NewCollector()
		client = resource.NewClient(resource.Config{BaseURL: be.server.URL + "/"}, tokens, nil, collector, logger.Discard())
		reg = catalog.NewRegistry(nil)
		cats, _ = reg.Get(catalog.Categories)
		ctx = context.Background()
	})

	AfterEach(func() {
		be.server.Close()
	})

	Describe("List", func() {
		It("should use a bare array as is", func() {
			be.reply = `[{"id":1,"name":"Adventure"},{"id":2,"name":"Leisure"}]`

			records, err := client.List(ctx, cats)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[0].String("name")).To(Equal("Adventure"))

			req := be.last()
			Expect(req.Method).To(Equal(http.MethodGet))
			Expect(req.Path).To(Equal("/categories"))
			Expect(req.Auth).To(Equal("Bearer tok-1"))
			Expect(req.RequestID).NotTo(BeEmpty())
		})

		It("should unwrap a data envelope", func() {
			be.reply = `{"data":[{"id":"a"}]}`
			records, err := client.List(ctx, cats)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})

		It("should unwrap an entity-named envelope", func() {
			be.reply = `{"categories":[{"id":"a"},{"id":"b"}],"total":2}`
			records, err := client.List(ctx, cats)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})

		It("should prefer data over the entity key", func() {
			be.reply = `{"categories":[{"id":"a"},{"id":"b"}],"data":[{"id":"c"}]}`
			records, err := client.List(ctx, cats)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].ID()).To(Equal("c"))
		})

		It("should fail loudly on an unrecognized envelope", func() {
			be.reply = `{"items":[{"id":"a"}]}`
			_, err := client.List(ctx, cats)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeParse))
			Expect(appErr.Code).To(Equal(internal.ErrCodeUnexpectedEnvelope))
			Expect(appErr.Message).To(ContainSubstring("items"))
		})

		It("should report malformed JSON as a parse error", func() {
			be.reply = `[{"id":`
			_, err := client.List(ctx, cats)
			Expect(internal.IsType(err, internal.ErrorTypeParse)).To(BeTrue())
		})

		It("should carry the server message on error statuses", func() {
			be.status = http.StatusBadRequest
			be.reply = `{"message":"bad filter"}`
			_, err := client.List(ctx, cats)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeHTTP))
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(appErr.Message).To(Equal("bad filter"))
		})

		It("should fall back to the generic status message", func() {
			be.status = http.StatusInternalServerError
			be.reply = `<html>oops</html>`
			_, err := client.List(ctx, cats)
			Expect(err).To(MatchError("HTTP error! status: 500"))
		})

		It("should not call the API when no token can be acquired", func() {
			tokens.err = internal.NewHTTPError(http.StatusUnauthorized, "", internal.ErrCodeTokenRequestFailed)

			_, err := client.List(ctx, cats)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(be.count()).To(BeZero())
		})

		It("should invalidate the token when the API rejects it", func() {
			be.status = http.StatusUnauthorized
			be.reply = `{"message":"jwt expired"}`
			_, err := client.List(ctx, cats)
			Expect(err).To(HaveOccurred())
			Expect(tokens.invalidated).To(Equal(1))
		})

		It("should report a network error when the API is down", func() {
			be.server.Close()
			_, err := client.List(ctx, cats)
			Expect(internal.IsType(err, internal.ErrorTypeNetwork)).To(BeTrue())
		})

		It("should count calls by outcome", func() {
			be.reply = `[]`
			_, _ = client.List(ctx, cats)
			be.status = http.StatusInternalServerError
			_, _ = client.List(ctx, cats)

			Expect(testutil.ToFloat64(collector.APIRequests.WithLabelValues("categories", "list", "ok"))).To(BeEquivalentTo(1))
			Expect(testutil.ToFloat64(collector.APIRequests.WithLabelValues("categories", "list", "http_500"))).To(BeEquivalentTo(1))
		})
	})

	Describe("mutations", func() {
		It("should POST a JSON payload on create", func() {
			be.reply = `{"data":{"id":"9","name":"Heritage"}}`
			rec, err := client.Create(ctx, cats, map[string]any{"name": "Heritage"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ID()).To(Equal("9"))

			req := be.last()
			Expect(req.Method).To(Equal(http.MethodPost))
			Expect(req.ContentType).To(Equal("application/json"))
			var sent map[string]any
			Expect(json.Unmarshal(req.Body, &sent)).To(Succeed())
			Expect(sent).To(Equal(map[string]any{"name": "Heritage"}))
		})

		It("should PUT to the record path on update", func() {
			be.reply = `{"id":"9","name":"Heritage Tours"}`
			rec, err := client.Update(ctx, cats, "9", map[string]any{"name": "Heritage Tours"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.String("name")).To(Equal("Heritage Tours"))
			Expect(be.last().Method).To(Equal(http.MethodPut))
			Expect(be.last().Path).To(Equal("/categories/9"))
		})

		It("should treat an empty delete response as success", func() {
			be.status = http.StatusNoContent
			be.reply = ``
			Expect(client.Delete(ctx, cats, "9")).To(Succeed())
			Expect(be.last().Method).To(Equal(http.MethodDelete))
		})

		It("should read single records through their envelope", func() {
			employees, _ := reg.Get(catalog.Employees)
			be.reply = `{"employee":{"_id":"e1","firstName":"Aamir"}}`
			rec, err := client.Get(ctx, employees, "e1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ID()).To(Equal("e1"))
			Expect(be.last().Path).To(Equal("/employees/e1"))
		})

		It("should send multipart creates with fields and files", func() {
			employees, _ := reg.Get(catalog.Employees)
			be.reply = `{"data":{"id":"e2"}}`
			_, err := client.CreateMultipart(ctx, employees,
				map[string]string{"firstName": "Sana", "accessRights": `["bookings"]`},
				[]resource.File{
					{Field: "profileImage", Name: "me.png", Content: strings.NewReader("png-bytes"), MimeType: "image/png"},
					{Field: "idProof", Name: "id.bin", Content: strings.NewReader("raw")},
				})
			Expect(err).NotTo(HaveOccurred())

			req := be.last()
			Expect(req.ContentType).To(HavePrefix("multipart/form-data; boundary="))
			Expect(string(req.Body)).To(ContainSubstring(`name="firstName"`))
			Expect(string(req.Body)).To(ContainSubstring(`["bookings"]`))

			_, params, err := mime.ParseMediaType(req.ContentType)
			Expect(err).NotTo(HaveOccurred())
			reader := multipart.NewReader(strings.NewReader(string(req.Body)), params["boundary"])
			types := map[string]string{}
			names := map[string]string{}
			for {
				part, err := reader.NextPart()
				if err == io.EOF {
					break
				}
				Expect(err).NotTo(HaveOccurred())
				if part.FileName() != "" {
					types[part.FormName()] = part.Header.Get("Content-Type")
					names[part.FormName()] = part.FileName()
				}
			}
			Expect(types).To(Equal(map[string]string{
				"profileImage": "image/png",
				"idProof":      "application/octet-stream",
			}))
			Expect(names).To(HaveKeyWithValue("profileImage", "me.png"))
		})
	})

	Describe("DeleteMany", func() {
		It("should report one result per id in order", func() {
			be.status = http.StatusOK
			be.reply = `{}`
			results := client.DeleteMany(ctx, cats, []string{"1", "2", "3"}, 2)
			Expect(results).To(HaveLen(3))
			for i, id := range []string{"1", "2", "3"} {
				Expect(results[i].ID).To(Equal(id))
				Expect(results[i].Err).NotTo(HaveOccurred())
			}
			Expect(be.count()).To(Equal(3))
		})

		It("should keep going after individual failures", func() {
			tokens.err = errors.New("no token")
			results := client.DeleteMany(ctx, cats, []string{"1", "2"}, 1)
			Expect(results[0].Err).To(MatchError("no token"))
			Expect(results[1].Err).To(MatchError("no token"))
		})
	})
})
