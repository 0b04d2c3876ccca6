package auth

import (
	"context"

	"github.com/upb/session-gateway/provider"
	"go.uber.org/zap"
)

// Outcome is the routing decision the guard makes for a request.
type Outcome string

const (
	// Proceed lets the request through; the cookie is left untouched.
	Proceed Outcome = "proceed"
	// ProceedWithRefreshedCookie lets the request through once the refreshed session is stored.
	ProceedWithRefreshedCookie Outcome = "proceed_with_refreshed_cookie"
	// RedirectToLogin sends the caller to log in and leaves the cookie as is.
	RedirectToLogin Outcome = "redirect_to_login"
	// RedirectToLoginAndClearCookie sends the caller to log in and deletes the cookie.
	RedirectToLoginAndClearCookie Outcome = "redirect_to_login_and_clear_cookie"
)

// Decision is the guard's verdict for one sealed session.
type Decision struct {
	Outcome Outcome
	// Reason records why the session was not accepted as is. Server-side diagnostics only.
	Reason provider.Reason
	User   *provider.User
	// SealedSession is set only for ProceedWithRefreshedCookie.
	SealedSession string
	// Session carries the verified claims for Proceed.
	Session *provider.AuthenticateResult
}

// Authenticated reports whether the request may continue.
func (d Decision) Authenticated() bool {
	return d.Outcome == Proceed || d.Outcome == ProceedWithRefreshedCookie
}

// ClearsCookie reports whether the session cookie must be deleted.
func (d Decision) ClearsCookie() bool {
	return d.Outcome == RedirectToLoginAndClearCookie
}

// DecisionObserver is notified of every decision the guard makes.
type DecisionObserver interface {
	RecordGuardDecision(outcome, reason string)
}

// Guard decides, per request, whether a sealed session is accepted,
// refreshed, or sent back to login.
type Guard struct {
	provider SessionProvider
	observer DecisionObserver
	logger   *zap.Logger
}

// NewGuard creates a guard over the given provider. observer may be nil.
func NewGuard(p SessionProvider, observer DecisionObserver, logger *zap.Logger) *Guard {
	return &Guard{
		provider: p,
		observer: observer,
		logger:   logger,
	}
}

// Evaluate decides what to do with the sealed session read from the request cookie.
// It never fails: provider errors become redirect decisions.
func (g *Guard) Evaluate(ctx context.Context, sealed string) Decision {
	d := g.evaluate(ctx, sealed)
	if g.observer != nil {
		g.observer.RecordGuardDecision(string(d.Outcome), d.Reason.String())
	}
	return d
}

func (g *Guard) evaluate(ctx context.Context, sealed string) Decision {
	// Anonymous visitors log in; there is nothing to refresh.
	if sealed == "" {
		return Decision{Outcome: RedirectToLogin, Reason: provider.ReasonNoSessionCookieProvided}
	}

	session := g.provider.AuthenticateSession(ctx, sealed)
	if session.Authenticated {
		return Decision{Outcome: Proceed, User: session.User, Session: &session}
	}

	switch session.Reason {
	case provider.ReasonNoSessionCookieProvided:
		return Decision{Outcome: RedirectToLogin, Reason: session.Reason}
	case provider.ReasonInvalidSession:
		g.logger.Debug("session cookie could not be opened")
		return Decision{Outcome: RedirectToLogin, Reason: session.Reason}
	}

	reason := session.Reason
	if reason == provider.ReasonNone {
		reason = provider.ReasonOther
	}

	refreshed, err := g.provider.RefreshSession(ctx, sealed)
	if err != nil {
		g.logger.Warn("session refresh failed",
			zap.String("reason", reason.String()),
			zap.Error(err))
		return Decision{Outcome: RedirectToLoginAndClearCookie, Reason: reason, User: session.User}
	}
	if !refreshed.Authenticated || refreshed.SealedSession == "" {
		g.logger.Info("session refresh rejected",
			zap.String("reason", reason.String()),
			zap.String("refresh_reason", refreshed.Reason.String()))
		return Decision{Outcome: RedirectToLoginAndClearCookie, Reason: reason, User: session.User}
	}

	// A refreshed session that still fails verification would be refreshed
	// again on the next request, so it is dropped here.
	verified := g.provider.AuthenticateSession(ctx, refreshed.SealedSession)
	if !verified.Authenticated {
		g.logger.Warn("refreshed session failed verification",
			zap.String("reason", reason.String()),
			zap.String("verify_reason", verified.Reason.String()))
		return Decision{Outcome: RedirectToLoginAndClearCookie, Reason: reason, User: session.User}
	}

	g.logger.Debug("session refreshed", zap.String("reason", reason.String()))
	return Decision{
		Outcome:       ProceedWithRefreshedCookie,
		Reason:        reason,
		User:          refreshed.User,
		Session:       &verified,
		SealedSession: refreshed.SealedSession,
	}
}
