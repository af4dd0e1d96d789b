package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"testing"
	"time"

	userdomain "clinic-app-go/internal/domain/user"
	"clinic-app-go/internal/ratelimit"
	"clinic-app-go/internal/session"
	"clinic-app-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[uint]userdomain.User
	err   error
}

func (f *fakeUsers) Get(ctx context.Context, id uint) (*userdomain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return &user, nil
}

func newManager() *session.Manager {
	return session.NewManager(session.NewMemoryStore(), session.Options{Secret: "secret", TTL: time.Hour})
}

func loginCookies(t *testing.T, manager *session.Manager, userID uint) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := manager.Renew(context.Background(), rec, nil, userID)
	require.NoError(t, err)
	return rec.Result().Cookies()
}

func TestSessionAuthResolvesUser(t *testing.T) {
	manager := newManager()
	users := &fakeUsers{users: map[uint]userdomain.User{5: {ID: 5, Username: "nurse"}}}
	auth := NewSessionAuth(manager, users, logger.Nop())

	var got User
	var ok bool
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range loginCookies(t, manager, 5) {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, ok)
	assert.Equal(t, User{ID: 5, Username: "nurse"}, got)
}

func TestSessionAuthDeletedUserIsAnonymous(t *testing.T) {
	manager := newManager()
	auth := NewSessionAuth(manager, &fakeUsers{users: map[uint]userdomain.User{}}, logger.Nop())

	var ok bool
	var sess *session.Session
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = UserFromContext(r.Context())
		sess, _ = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range loginCookies(t, manager, 9) {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, ok)
	require.NotNil(t, sess)
	assert.False(t, sess.Authenticated())
}

func TestSessionAuthUserLookupFailure(t *testing.T) {
	manager := newManager()
	auth := NewSessionAuth(manager, &fakeUsers{err: errors.New("db down")}, logger.Nop())

	called := false
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range loginCookies(t, manager, 1) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireUserRedirectsAnonymous(t *testing.T) {
	store := session.NewMemoryStore()
	manager := session.NewManager(store, session.Options{Secret: "secret", TTL: time.Hour})
	auth := NewSessionAuth(manager, &fakeUsers{}, logger.Nop())

	handler := auth.Middleware(auth.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("protected handler must not run")
	})))

	for i := 0; i < 500; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?notice=login_required", rec.Header().Get("Location"))
		assert.Empty(t, rec.Result().Cookies())
	}
	assert.Zero(t, store.Len())
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(2, time.Minute)
	handler := NewRateLimit(limiter, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := serve("192.0.2.1:1000")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve("192.0.2.1:1001").Code)

	blocked := serve("192.0.2.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "rate_limited")

	assert.Equal(t, http.StatusOK, serve("192.0.2.2:1000").Code)
}

func TestRateLimitKeysOnPeerNotForwardedHeaders(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(2, time.Minute)
	handler := NewRealIP(nil)(NewRateLimit(limiter, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	blocked := 0
	for i := 1; i <= 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked++
		}
	}
	assert.Equal(t, 8, blocked)
}

func TestRealIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.1.0.0/16")}
	var seen string
	handler := NewRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	serve := func(remote string, headers map[string]string) string {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.RemoteAddr = remote
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		return seen
	}

	t.Run("untrusted peer keeps its address", func(t *testing.T) {
		got := serve("198.51.100.7:5000", map[string]string{"X-Forwarded-For": "203.0.113.9"})
		assert.Equal(t, "198.51.100.7:5000", got)
	})

	t.Run("trusted proxy forwards the client", func(t *testing.T) {
		got := serve("10.1.2.3:5000", map[string]string{"X-Forwarded-For": "203.0.113.9"})
		assert.Equal(t, "203.0.113.9", got)
	})

	t.Run("client supplied hops are skipped", func(t *testing.T) {
		got := serve("10.1.2.3:5000", map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.9, 10.1.9.9"})
		assert.Equal(t, "203.0.113.9", got)
	})

	t.Run("x-real-ip fallback", func(t *testing.T) {
		got := serve("10.1.2.3:5000", map[string]string{"X-Real-IP": "203.0.113.10"})
		assert.Equal(t, "203.0.113.10", got)
	})

	t.Run("garbage is ignored", func(t *testing.T) {
		got := serve("10.1.2.3:5000", map[string]string{"X-Forwarded-For": "not-an-ip"})
		assert.Equal(t, "10.1.2.3:5000", got)
	})
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	handler := NewRateLimit(failingLimiter{}, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("listed origin is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Origin", "https://clinic.example")
		rec := httptest.NewRecorder()
		NewCORS([]string{"https://clinic.example"})(next).ServeHTTP(rec, req)
		assert.Equal(t, "https://clinic.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin gets no header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Origin", "https://other.example")
		rec := httptest.NewRecorder()
		NewCORS([]string{"https://clinic.example"})(next).ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		req.Header.Set("Origin", "https://any.example")
		rec := httptest.NewRecorder()
		NewCORS([]string{"*"})(next).ServeHTTP(rec, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/clients", nil)
		req.Header.Set("Origin", "https://any.example")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := httptest.NewRecorder()
		NewCORS([]string{"*"})(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
