package middleware

import (
	"context"
	"net/http"

	"github.com/upb/session-gateway/auth"
	"github.com/upb/session-gateway/models"
	"github.com/upb/session-gateway/provider"
	"github.com/upb/session-gateway/services/audit"
	"github.com/upb/session-gateway/utils"
	"go.uber.org/zap"
)

// SessionGuard decides what to do with a request's sealed session
type SessionGuard interface {
	Evaluate(ctx context.Context, sealed string) auth.Decision
}

// SessionMiddleware guards routes with the session cookie
type SessionMiddleware struct {
	guard    SessionGuard
	cookies  *auth.CookieManager
	recorder audit.Recorder
	logger   *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware. recorder may be nil.
func NewSessionMiddleware(guard SessionGuard, cookies *auth.CookieManager, recorder audit.Recorder, logger *zap.Logger) *SessionMiddleware {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &SessionMiddleware{
		guard:    guard,
		cookies:  cookies,
		recorder: recorder,
		logger:   logger,
	}
}

// RequireSession guards browser pages. A refreshed session is stored and the
// browser is sent back to the same URL so it replays the request with the new
// cookie; any other failure redirects to login.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := m.evaluate(r)

		switch decision.Outcome {
		case auth.Proceed:
			next.ServeHTTP(w, r.WithContext(withDecision(r.Context(), decision)))
		case auth.ProceedWithRefreshedCookie:
			m.cookies.Apply(w, decision)
			http.Redirect(w, r, r.URL.RequestURI(), http.StatusFound)
		default:
			m.cookies.Apply(w, decision)
			http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		}
	})
}

// RequireAPISession guards JSON endpoints. It never redirects: a refreshed
// session is stored and the request is served in place, and anything else is
// answered with 401 {"authenticated":false}.
func (m *SessionMiddleware) RequireAPISession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := m.evaluate(r)

		m.cookies.Apply(w, decision)
		if !decision.Authenticated() {
			_ = utils.WriteJSON(w, http.StatusUnauthorized, NotAuthenticatedResponse{Authenticated: false})
			return
		}
		next.ServeHTTP(w, r.WithContext(withDecision(r.Context(), decision)))
	})
}

// NotAuthenticatedResponse is the API body for requests without a usable session
type NotAuthenticatedResponse struct {
	Authenticated bool `json:"authenticated"`
}

func (m *SessionMiddleware) evaluate(r *http.Request) auth.Decision {
	decision := m.guard.Evaluate(r.Context(), m.cookies.Read(r))

	if decision.Outcome != auth.Proceed {
		m.logger.Debug("session guard decision",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("outcome", string(decision.Outcome)),
			zap.String("reason", decision.Reason.String()))
	}
	m.record(r, decision)

	return decision
}

func (m *SessionMiddleware) record(r *http.Request, d auth.Decision) {
	var action models.AuthAction
	switch {
	case d.Outcome == auth.ProceedWithRefreshedCookie:
		action = models.AuthActionSessionRefreshed
	case d.Outcome == auth.RedirectToLoginAndClearCookie:
		action = models.AuthActionSessionRefreshFailed
	case d.Outcome == auth.RedirectToLogin && d.Reason != provider.ReasonNoSessionCookieProvided:
		action = models.AuthActionSessionRejected
	default:
		return
	}

	m.recorder.Record(r.Context(), auth.NewRequestEvent(r, action).
		WithUser(d.User.UserID()).
		WithReason(d.Reason.String()))
}

func withDecision(ctx context.Context, d auth.Decision) context.Context {
	ctx = WithUser(ctx, d.User)
	if d.Session != nil {
		ctx = WithSession(ctx, d.Session)
	}
	return ctx
}
