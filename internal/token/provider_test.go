package token_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/token"
	"github.com/viakashmir/admin-console/pkg/logger"
)

func TestToken(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Token Provider Suite")
}

type authServer struct {
	server *httptest.Server
	hits   atomic.Int32
	status int
	body   func() any
	delay  time.Duration
	seen   map[string]string
	mu     sync.Mutex
}

func newAuthServer() *authServer {
	a := &authServer{status: http.StatusOK}
	a.body = func() any {
		return map[string]any{"data": map[string]any{"access_token": "tok-1", "expires_in": 3600}}
	}
	a.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.hits.Add(1)
		if a.delay > 0 {
			time.Sleep(a.delay)
		}
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		a.mu.Lock()
		a.seen = creds
		a.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(a.status)
		_ = json.NewEncoder(w).Encode(a.body())
	}))
	return a
}

var _ = Describe("Provider", func() {
	var (
		auth     *authServer
		provider *token.Provider
		now      time.Time
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		auth = newAuthServer()
		now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		provider = token.NewProvider(token.Config{
			BaseURL:      auth.server.URL + "/",
			ClientID:     "via_kashmir",
			ClientSecret: "s3cret",
			MinValidity:  30 * time.Second,
		}, token.NewMemoryStore(), nil, nil, logger.Discard()).WithClock(func() time.Time { return now })
	})

	AfterEach(func() {
		auth.server.Close()
	})

	It("should exchange the client credentials for a token", func() {
		Expect(provider.State(ctx)).To(Equal(token.StateNone))

		tok, err := provider.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tok).To(Equal("tok-1"))
		Expect(auth.seen).To(Equal(map[string]string{"client_id": "via_kashmir", "client_secret": "s3cret"}))
		Expect(provider.State(ctx)).To(Equal(token.StateValid))
	})

	It("should reuse a cached token while it is valid", func() {
		_, err := provider.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		_, err = provider.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(auth.hits.Load()).To(BeEquivalentTo(1))
	})

	It("should re-acquire once the token enters the min validity window", func() {
		_, err := provider.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(time.Hour - 10*time.Second)
		Expect(provider.State(ctx)).To(Equal(token.StateExpired))

		_, err = provider.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(auth.hits.Load()).To(BeEquivalentTo(2))
	})

	It("should accept a top-level payload and read expiry from the JWT exp claim", func() {
		exp := now.Add(10 * time.Minute)
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("issuer-key"))
		Expect(err).NotTo(HaveOccurred())
		auth.body = func() any { return map[string]any{"access_token": signed} }

		tok, err := provider.Token(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tok.AccessToken).To(Equal(signed))
		Expect(tok.ExpiresAt.Unix()).To(Equal(exp.Unix()))
	})

	It("should surface a 401 from the token endpoint with its status", func() {
		auth.status = http.StatusUnauthorized
		auth.body = func() any { return map[string]any{"message": "invalid client"} }

		_, err := provider.Acquire(ctx)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeHTTP))
		Expect(appErr.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(appErr.Message).To(Equal("invalid client"))
		Expect(provider.State(ctx)).To(Equal(token.StateNone))
	})

	It("should use the generic message when the error body has none", func() {
		auth.status = http.StatusInternalServerError
		auth.body = func() any { return map[string]any{} }

		_, err := provider.Acquire(ctx)
		Expect(err).To(MatchError("HTTP error! status: 500"))
	})

	It("should report a parse error when no access token is returned", func() {
		auth.body = func() any { return map[string]any{"data": map[string]any{}} }

		_, err := provider.Acquire(ctx)
		Expect(internal.IsType(err, internal.ErrorTypeParse)).To(BeTrue())
	})

	It("should report a network error when the endpoint is unreachable", func() {
		auth.server.Close()

		_, err := provider.Acquire(ctx)
		Expect(internal.IsType(err, internal.ErrorTypeNetwork)).To(BeTrue())
	})

	It("should share one round trip between concurrent callers", func() {
		auth.delay = 50 * time.Millisecond

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				tok, err := provider.Acquire(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(tok).To(Equal("tok-1"))
			}()
		}
		wg.Wait()
		Expect(auth.hits.Load()).To(BeEquivalentTo(1))
	})

	It("should keep the shared fetch alive when the first caller gives up", func() {
		auth.delay = 100 * time.Millisecond
		first, cancel := context.WithCancel(ctx)
		defer cancel()

		firstErr := make(chan error, 1)
		go func() {
			_, err := provider.Acquire(first)
			firstErr <- err
		}()
		Eventually(auth.hits.Load).Should(BeEquivalentTo(1))

		second := make(chan string, 1)
		go func() {
			defer GinkgoRecover()
			tok, err := provider.Acquire(ctx)
			Expect(err).NotTo(HaveOccurred())
			second <- tok
		}()
		cancel()

		var err error
		Eventually(firstErr).Should(Receive(&err))
		Expect(internal.IsType(err, internal.ErrorTypeNetwork)).To(BeTrue())
		Eventually(second).Should(Receive(Equal("tok-1")))
		Expect(auth.hits.Load()).To(BeEquivalentTo(1))
		Expect(provider.State(ctx)).To(Equal(token.StateValid))
	})

	It("should fetch again after invalidation", func() {
		_, err := provider.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(provider.Invalidate(ctx)).To(Succeed())
		Expect(provider.State(ctx)).To(Equal(token.StateNone))

		_, err = provider.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(auth.hits.Load()).To(BeEquivalentTo(2))
	})

	It("should refuse to call out without a client secret", func() {
		bare := token.NewProvider(token.Config{BaseURL: auth.server.URL, ClientID: "via_kashmir"}, nil, nil, nil, logger.Discard())
		_, err := bare.Acquire(ctx)
		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		Expect(auth.hits.Load()).To(BeZero())
	})
})

var _ = Describe("RedisStore", func() {
	var (
		mr    *miniredis.Miniredis
		store *token.RedisStore
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)
		store = token.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		ctx = context.Background()
	})

	It("should round trip a token with a TTL matching its expiry", func() {
		t := token.Token{AccessToken: "abc", ExpiresAt: time.Now().Add(10 * time.Minute)}
		Expect(store.Put(ctx, "via_kashmir", t)).To(Succeed())

		got, err := store.Get(ctx, "via_kashmir")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.AccessToken).To(Equal("abc"))
		Expect(mr.TTL("admin-console:token:via_kashmir")).To(BeNumerically(">", 9*time.Minute))
	})

	It("should report a miss as ErrNotFound", func() {
		_, err := store.Get(ctx, "missing")
		Expect(err).To(MatchError(token.ErrNotFound))
	})

	It("should drop the entry on delete", func() {
		t := token.Token{AccessToken: "abc", ExpiresAt: time.Now().Add(time.Minute)}
		Expect(store.Put(ctx, "k", t)).To(Succeed())
		Expect(store.Delete(ctx, "k")).To(Succeed())
		Expect(mr.Exists("admin-console:token:k")).To(BeFalse())
	})

	It("should not cache an already expired token", func() {
		t := token.Token{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Minute)}
		Expect(store.Put(ctx, "k", t)).To(Succeed())
		_, err := store.Get(ctx, "k")
		Expect(err).To(MatchError(token.ErrNotFound))
	})
})
