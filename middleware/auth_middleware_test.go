package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/session-gateway/auth"
	"github.com/upb/session-gateway/models"
	"github.com/upb/session-gateway/provider"
	"go.uber.org/zap"
)

// MockSessionGuard is a mock implementation of SessionGuard
type MockSessionGuard struct {
	mock.Mock
}

func (m *MockSessionGuard) Evaluate(ctx context.Context, sealed string) auth.Decision {
	args := m.Called(ctx, sealed)
	return args.Get(0).(auth.Decision)
}

type recordingRecorder struct {
	mu     sync.Mutex
	events []*models.AuthEvent
}

func (r *recordingRecorder) Record(_ context.Context, event *models.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func strPtr(s string) *string { return &s }

func okHandler(t *testing.T, wantUser string) (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, wantUser, GetUserFromContext(r.Context()).UserID())
		w.WriteHeader(http.StatusOK)
	}), &called
}

func request(path, sealed string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sealed != "" {
		req.AddCookie(&http.Cookie{Name: auth.DefaultCookieName, Value: sealed})
	}
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.DefaultCookieName {
			return c
		}
	}
	return nil
}

func newMiddleware(guard SessionGuard) (*SessionMiddleware, *recordingRecorder) {
	rec := &recordingRecorder{}
	return NewSessionMiddleware(guard, auth.NewCookieManager(""), rec, zap.NewNop()), rec
}

func TestRequireSession(t *testing.T) {
	user := &provider.User{ID: strPtr("u1")}

	t.Run("valid session proceeds without writing a cookie", func(t *testing.T) {
		guard := new(MockSessionGuard)
		guard.On("Evaluate", mock.Anything, "sealed").Return(auth.Decision{
			Outcome: auth.Proceed,
			User:    user,
			Session: &provider.AuthenticateResult{Authenticated: true, SessionID: "sess_1"},
		})
		m, events := newMiddleware(guard)
		next, called := okHandler(t, "u1")

		rec := httptest.NewRecorder()
		m.RequireSession(next).ServeHTTP(rec, request("/dashboard", "sealed"))

		assert.True(t, *called)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Values("Set-Cookie"))
		assert.Empty(t, events.events)
	})

	t.Run("refreshed session is stored and the request replayed", func(t *testing.T) {
		guard := new(MockSessionGuard)
		guard.On("Evaluate", mock.Anything, "stale").Return(auth.Decision{
			Outcome:       auth.ProceedWithRefreshedCookie,
			Reason:        provider.ReasonSessionExpired,
			User:          user,
			SealedSession: "fresh",
		})
		m, events := newMiddleware(guard)
		next, called := okHandler(t, "u1")

		rec := httptest.NewRecorder()
		m.RequireSession(next).ServeHTTP(rec, request("/dashboard?tab=profile", "stale"))

		assert.False(t, *called)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard?tab=profile", rec.Header().Get("Location"))
		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.Equal(t, "fresh", c.Value)
		require.Len(t, events.events, 1)
		assert.Equal(t, models.AuthActionSessionRefreshed, events.events[0].Action)
		assert.Equal(t, "session_expired", *events.events[0].Reason)
	})

	t.Run("failed refresh clears the cookie and redirects to login", func(t *testing.T) {
		guard := new(MockSessionGuard)
		guard.On("Evaluate", mock.Anything, "stale").Return(auth.Decision{
			Outcome: auth.RedirectToLoginAndClearCookie,
			Reason:  provider.ReasonSessionExpired,
		})
		m, events := newMiddleware(guard)
		next, called := okHandler(t, "")

		rec := httptest.NewRecorder()
		m.RequireSession(next).ServeHTTP(rec, request("/dashboard", "stale"))

		assert.False(t, *called)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.Equal(t, -1, c.MaxAge)
		require.Len(t, events.events, 1)
		assert.Equal(t, models.AuthActionSessionRefreshFailed, events.events[0].Action)
	})

	t.Run("no cookie redirects to login without touching cookies", func(t *testing.T) {
		guard := new(MockSessionGuard)
		guard.On("Evaluate", mock.Anything, "").Return(auth.Decision{
			Outcome: auth.RedirectToLogin,
			Reason:  provider.ReasonNoSessionCookieProvided,
		})
		m, events := newMiddleware(guard)
		next, called := okHandler(t, "")

		rec := httptest.NewRecorder()
		m.RequireSession(next).ServeHTTP(rec, request("/dashboard", ""))

		assert.False(t, *called)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Empty(t, rec.Header().Values("Set-Cookie"))
		assert.Empty(t, events.events)
	})

	t.Run("tampered cookie redirects to login and is audited", func(t *testing.T) {
		guard := new(MockSessionGuard)
		guard.On("Evaluate", mock.Anything, "tampered").Return(auth.Decision{
			Outcome: auth.RedirectToLogin,
			Reason:  provider.ReasonInvalidSession,
		})
		m, events := newMiddleware(guard)
		next, _ := okHandler(t, "")

		rec := httptest.NewRecorder()
		m.RequireSession(next).ServeHTTP(rec, request("/dashboard", "tampered"))

		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Empty(t, rec.Header().Values("Set-Cookie"))
		require.Len(t, events.events, 1)
		assert.Equal(t, models.AuthActionSessionRejected, events.events[0].Action)
	})
}

func TestRequireAPISession(t *testing.T) {
	user := &provider.User{ID: strPtr("u1")}

	t.Run("refreshed session is served in place", func(t *testing.T) {
		guard := new(MockSessionGuard)
		guard.On("Evaluate", mock.Anything, "stale").Return(auth.Decision{
			Outcome:       auth.ProceedWithRefreshedCookie,
			Reason:        provider.ReasonSessionExpired,
			User:          user,
			SealedSession: "fresh",
		})
		m, _ := newMiddleware(guard)
		next, called := okHandler(t, "u1")

		rec := httptest.NewRecorder()
		m.RequireAPISession(next).ServeHTTP(rec, request("/api/me", "stale"))

		assert.True(t, *called)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.Equal(t, "fresh", c.Value)
	})

	unauthenticated := []struct {
		name        string
		sealed      string
		decision    auth.Decision
		clearCookie bool
	}{
		{name: "no cookie", decision: auth.Decision{Outcome: auth.RedirectToLogin, Reason: provider.ReasonNoSessionCookieProvided}},
		{name: "invalid session", sealed: "tampered", decision: auth.Decision{Outcome: auth.RedirectToLogin, Reason: provider.ReasonInvalidSession}},
		{name: "refresh failed", sealed: "stale", decision: auth.Decision{Outcome: auth.RedirectToLoginAndClearCookie, Reason: provider.ReasonSessionExpired}, clearCookie: true},
	}
	for _, tt := range unauthenticated {
		t.Run(tt.name+" returns 401 without redirect", func(t *testing.T) {
			guard := new(MockSessionGuard)
			guard.On("Evaluate", mock.Anything, tt.sealed).Return(tt.decision)
			m, _ := newMiddleware(guard)
			next, called := okHandler(t, "")

			rec := httptest.NewRecorder()
			m.RequireAPISession(next).ServeHTTP(rec, request("/api/me", tt.sealed))

			assert.False(t, *called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
			assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
			if tt.clearCookie {
				c := sessionCookie(rec)
				require.NotNil(t, c)
				assert.Equal(t, -1, c.MaxAge)
			} else {
				assert.Empty(t, rec.Header().Values("Set-Cookie"))
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetUserFromContext(ctx))
	assert.Nil(t, GetSessionFromContext(ctx))
	assert.Empty(t, GetRequestIDFromContext(ctx))
	assert.False(t, IsAuthenticated(ctx))
	assert.True(t, IsAuthenticated(WithUser(ctx, nil)), "admitted without a provider user")

	user := &provider.User{ID: strPtr("u1")}
	session := &provider.AuthenticateResult{SessionID: "sess_1"}
	ctx = WithSession(WithUser(ctx, user), session)
	assert.Same(t, user, GetUserFromContext(ctx))
	assert.Same(t, session, GetSessionFromContext(ctx))
}
