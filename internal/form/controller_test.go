package form_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/core/events"
	"github.com/viakashmir/admin-console/internal/form"
	"github.com/viakashmir/admin-console/internal/listview"
	"github.com/viakashmir/admin-console/internal/resource"
	"github.com/viakashmir/admin-console/pkg/logger"
)

func TestForm(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Form Controller Suite")
}

type multipartCall struct {
	fields map[string]string
	files  map[string]string
}

// fakeAPI stands in for the resource client and keeps records in memory so
// list views can observe writes.
type fakeAPI struct {
	mu        sync.Mutex
	records   []catalog.Record
	nextID    int
	fail      error
	creates   []map[string]any
	updates   map[string]map[string]any
	multipart []multipartCall
	deletes   []string
}

func newFakeAPI(records ...catalog.Record) *fakeAPI {
	return &fakeAPI{records: records, nextID: 100, updates: make(map[string]map[string]any)}
}

func (f *fakeAPI) List(context.Context, catalog.Entity) ([]catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]catalog.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeAPI) Create(_ context.Context, _ catalog.Entity, payload map[string]any) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	f.creates = append(f.creates, payload)
	return f.insert(payload), nil
}

func (f *fakeAPI) Update(_ context.Context, _ catalog.Entity, id string, payload map[string]any) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	f.updates[id] = payload
	for _, r := range f.records {
		if r.ID() == id {
			for k, v := range payload {
				r[k] = v
			}
			return r.Clone(), nil
		}
	}
	rec := catalog.Record{"id": id}
	for k, v := range payload {
		rec[k] = v
	}
	return rec, nil
}

func (f *fakeAPI) CreateMultipart(_ context.Context, _ catalog.Entity, fields map[string]string, files []resource.File) (catalog.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	call := multipartCall{fields: fields, files: make(map[string]string)}
	for _, file := range files {
		content, _ := io.ReadAll(file.Content)
		call.files[file.Field] = file.Name + ":" + string(content)
	}
	f.multipart = append(f.multipart, call)
	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		payload[k] = v
	}
	return f.insert(payload), nil
}

func (f *fakeAPI) Delete(_ context.Context, _ catalog.Entity, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.deletes = append(f.deletes, id)
	kept := f.records[:0]
	for _, r := range f.records {
		if r.ID() != id {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func (f *fakeAPI) insert(payload map[string]any) catalog.Record {
	f.nextID++
	rec := catalog.Record{"id": fmt.Sprint(f.nextID)}
	for k, v := range payload {
		rec[k] = v
	}
	f.records = append(f.records, rec)
	return rec.Clone()
}

func entity(name string) catalog.Entity {
	e, err := catalog.NewRegistry(nil).Get(name)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func ids(items []catalog.Record) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.ID()
	}
	return out
}

var _ = Describe("Controller", func() {
	var (
		ctx context.Context
		api *fakeAPI
		bus *events.EventBus
	)

	BeforeEach(func() {
		ctx = context.Background()
		bus = events.NewEventBus(logger.Discard())
	})

	Describe("categories", func() {
		var (
			ctrl *form.Controller
			view *listview.Pipeline
		)

		BeforeEach(func() {
			api = newFakeAPI(
				catalog.Record{"id": "1", "name": "Adventure"},
				catalog.Record{"id": "2", "name": "Family"},
			)
			e := entity(catalog.Categories)
			view = listview.NewPipeline(e, api, bus, nil, logger.Discard())
			Expect(view.Load(ctx)).To(Succeed())
			ctrl = form.NewController(e, api, bus, logger.Discard())
		})

		AfterEach(func() {
			view.Close()
		})

		It("should block submission when validation fails", func() {
			ctrl.OpenNew()
			Expect(ctrl.SetField("name", "   ")).To(Succeed())

			_, err := ctrl.Submit(ctx)
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(internal.ToastMessage(err)).To(Equal("Category name is required"))
			Expect(api.creates).To(BeEmpty())

			snap := ctrl.Snapshot()
			Expect(snap.Open).To(BeTrue())
			Expect(snap.Err).To(MatchError(err))
		})

		It("should create, close and refresh the list", func() {
			ctrl.OpenNew()
			Expect(ctrl.SetField("name", "  Heritage  ")).To(Succeed())

			rec, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.creates).To(Equal([]map[string]any{{"name": "Heritage"}}))

			snap := ctrl.Snapshot()
			Expect(snap.Open).To(BeFalse())
			Expect(snap.Message).To(Equal("Categories: record created successfully"))
			Expect(view.View().TotalCount).To(Equal(3))
			Expect(ids(view.View().Items)).To(ContainElement(rec.ID()))
		})

		It("should keep the form open with its values when the API fails", func() {
			api.fail = internal.NewHTTPError(http.StatusInternalServerError, "", internal.ErrCodeUpstreamStatus)
			ctrl.OpenNew()
			Expect(ctrl.SetField("name", "Heritage")).To(Succeed())

			_, err := ctrl.Submit(ctx)
			Expect(err).To(MatchError("HTTP error! status: 500"))

			snap := ctrl.Snapshot()
			Expect(snap.Open).To(BeTrue())
			Expect(snap.Submitting).To(BeFalse())
			Expect(snap.Values).To(Equal(map[string]string{"name": "Heritage"}))
			Expect(view.View().TotalCount).To(Equal(2))

			api.fail = nil
			_, err = ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should update the record being edited", func() {
			ctrl.Open(catalog.Record{"id": "2", "name": "Family"})
			Expect(ctrl.Snapshot().EditingID).To(Equal("2"))
			Expect(ctrl.SetField("name", "Family Trips")).To(Succeed())

			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.updates).To(HaveKeyWithValue("2", map[string]any{"name": "Family Trips"}))
			Expect(ctrl.Snapshot().Message).To(ContainSubstring("updated"))
		})

		It("should drop a deleted record from the refreshed list", func() {
			Expect(ctrl.Delete(ctx, "1")).To(Succeed())
			Expect(ids(view.View().Items)).To(Equal([]string{"2"}))
		})

		It("should reject unknown fields and edits to a closed form", func() {
			Expect(ctrl.SetField("name", "x")).To(HaveOccurred())
			ctrl.OpenNew()
			Expect(ctrl.SetField("colour", "red")).To(HaveOccurred())
			ctrl.Close()
			Expect(ctrl.Snapshot().Open).To(BeFalse())
			_, err := ctrl.Submit(ctx)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("employees", func() {
		var ctrl *form.Controller

		BeforeEach(func() {
			api = newFakeAPI()
			ctrl = form.NewController(entity(catalog.Employees), api, bus, logger.Discard())
			ctrl.OpenNew()
			for field, value := range map[string]string{
				"firstName":            "Sana",
				"lastName":             "Mir",
				"email":                "sana@viakashmir.com",
				"mobile":               "9876543210",
				"password":             "secret1",
				"confirmPassword":      "secret1",
				"accessRights":         "bookings, packages",
				"accountNumber":        "00112233445566",
				"confirmAccountNumber": "00112233445566",
			} {
				Expect(ctrl.SetField(field, value)).To(Succeed())
			}
		})

		It("should send multipart with list fields encoded and confirmations dropped", func() {
			Expect(ctrl.AttachFile("profileImage", "sana.png", []byte("png"), "image/png")).To(Succeed())
			Expect(ctrl.SetField("department", "")).To(Succeed())

			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.multipart).To(HaveLen(1))

			call := api.multipart[0]
			Expect(call.fields).To(HaveKeyWithValue("accessRights", `["bookings","packages"]`))
			Expect(call.fields).To(HaveKeyWithValue("password", "secret1"))
			Expect(call.fields).NotTo(HaveKey("confirmPassword"))
			Expect(call.fields).NotTo(HaveKey("department"))
			Expect(call.files).To(Equal(map[string]string{"profileImage": "sana.png:png"}))
		})

		It("should report mismatched passwords", func() {
			Expect(ctrl.SetField("confirmPassword", "secret2")).To(Succeed())
			err := ctrl.Validate()
			Expect(internal.ToastMessage(err)).To(Equal("Passwords do not match"))
		})

		It("should collect every failing field", func() {
			Expect(ctrl.SetField("email", "not-an-email")).To(Succeed())
			Expect(ctrl.SetField("mobile", "12345")).To(Succeed())
			Expect(ctrl.SetField("accessRights", "")).To(Succeed())
			err := ctrl.Validate()
			Expect(internal.ToastMessage(err)).To(Equal(
				"Please enter a valid email address; Mobile number must be at least 10 digits; Select at least one access right"))
		})

		It("should skip create-only rules when editing", func() {
			ctrl.Open(catalog.Record{"_id": "e1", "firstName": "Sana", "lastName": "Mir", "email": "sana@viakashmir.com"})
			Expect(ctrl.Validate()).To(Succeed())

			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.updates).To(HaveKey("e1"))
			Expect(api.multipart).To(BeEmpty())
		})

		It("should require a matching account number on create", func() {
			Expect(ctrl.SetField("accountNumber", " ")).To(Succeed())
			Expect(internal.ToastMessage(ctrl.Validate())).To(Equal("Account number is required; Account numbers do not match"))

			Expect(ctrl.SetField("accountNumber", "00112233445577")).To(Succeed())
			Expect(internal.ToastMessage(ctrl.Validate())).To(Equal("Account numbers do not match"))
		})

		It("should update an employee that already has an account number", func() {
			ctrl.Open(catalog.Record{
				"_id":           "e1",
				"firstName":     "Sana",
				"lastName":      "Mir",
				"email":         "sana@viakashmir.com",
				"accountNumber": "1234567890",
			})
			Expect(ctrl.SetField("department", "Sales")).To(Succeed())

			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.updates).To(HaveKey("e1"))
			Expect(api.updates["e1"]).To(HaveKeyWithValue("department", "Sales"))
			Expect(api.updates["e1"]).To(HaveKeyWithValue("accountNumber", "1234567890"))
			Expect(api.updates["e1"]).NotTo(HaveKey("confirmAccountNumber"))
		})

		It("should only accept files on file fields", func() {
			Expect(ctrl.AttachFile("email", "x.txt", nil, "")).To(HaveOccurred())
			Expect(ctrl.SetField("profileImage", "x.png")).To(HaveOccurred())
		})
	})

	Describe("notifications", func() {
		var ctrl *form.Controller

		BeforeEach(func() {
			api = newFakeAPI()
			ctrl = form.NewController(entity(catalog.Notifications), api, nil, logger.Discard())
			ctrl.OpenNew()
			Expect(ctrl.SetField("title", "Snowfall alert")).To(Succeed())
			Expect(ctrl.SetField("message", "Roads to Gulmarg closed")).To(Succeed())
		})

		It("should require a category when targeting one", func() {
			Expect(ctrl.SetField("targetAudience", "category")).To(Succeed())
			Expect(internal.ToastMessage(ctrl.Validate())).To(Equal("Please select a user category."))
		})

		It("should require user ids for specific targeting and send them as a list", func() {
			Expect(ctrl.SetField("targetAudience", "specific")).To(Succeed())
			Expect(internal.ToastMessage(ctrl.Validate())).To(Equal("Please enter user IDs for specific targeting."))

			Expect(ctrl.SetField("userIds", "u1, u2")).To(Succeed())
			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.creates[0]).To(HaveKeyWithValue("userIds", []string{"u1", "u2"}))
		})

		It("should not need a category when sending to everyone", func() {
			Expect(ctrl.SetField("targetAudience", "all")).To(Succeed())
			Expect(ctrl.Validate()).To(Succeed())
		})
	})

	Describe("packages", func() {
		It("should send numeric fields as numbers", func() {
			api = newFakeAPI()
			ctrl := form.NewController(entity(catalog.Packages), api, nil, logger.Discard())
			ctrl.OpenNew()
			for field, value := range map[string]string{
				"name": "Dal Lake", "destination": "Srinagar", "duration": "3 days",
				"price": "18000", "category": "Family", "description": "Houseboat stay",
				"inclusions": "stay,meals",
			} {
				Expect(ctrl.SetField(field, value)).To(Succeed())
			}

			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.creates[0]).To(HaveKeyWithValue("price", 18000.0))
			Expect(api.creates[0]).To(HaveKeyWithValue("inclusions", []string{"stay", "meals"}))
		})

		It("should write large prices in plain notation in multipart bodies", func() {
			api = newFakeAPI()
			e := entity(catalog.Packages)
			e.MultipartCreate = true
			ctrl := form.NewController(e, api, nil, logger.Discard())
			ctrl.OpenNew()
			for field, value := range map[string]string{
				"name": "Ladakh Expedition", "destination": "Leh", "duration": "10 days",
				"price": "1500000", "category": "Adventure", "description": "Bike tour",
			} {
				Expect(ctrl.SetField(field, value)).To(Succeed())
			}

			_, err := ctrl.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.multipart).To(HaveLen(1))
			Expect(api.multipart[0].fields).To(HaveKeyWithValue("price", "1500000"))
		})

		It("should reject a non-numeric price", func() {
			api = newFakeAPI()
			ctrl := form.NewController(entity(catalog.Packages), api, nil, logger.Discard())
			ctrl.OpenNew()
			Expect(ctrl.SetField("price", "cheap")).To(Succeed())
			Expect(ctrl.Validate()).To(HaveOccurred())
		})
	})

	It("should refuse writes to read-only entities", func() {
		api = newFakeAPI()
		ctrl := form.NewController(entity(catalog.TravelPlans), api, nil, logger.Discard())
		ctrl.OpenNew()
		_, err := ctrl.Submit(ctx)
		Expect(internal.IsType(err, internal.ErrorTypeForbidden)).To(BeTrue())
		Expect(ctrl.Delete(ctx, "t1")).To(HaveOccurred())
	})
})
