package auth

import (
	"errors"
	"net/http"

	"github.com/upb/session-gateway/config"
	"github.com/upb/session-gateway/models"
	"github.com/upb/session-gateway/services/audit"
	"github.com/upb/session-gateway/utils"
	"go.uber.org/zap"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// Handler handles the login, callback and logout flows.
type Handler struct {
	provider      SessionProvider
	cookies       *CookieManager
	recorder      audit.Recorder
	frontEndURL   string
	postLogoutURL string
	logger        *zap.Logger
}

// NewHandler creates a new auth handler. recorder may be nil.
func NewHandler(p SessionProvider, cookies *CookieManager, recorder audit.Recorder, cfg config.ProviderConfig, logger *zap.Logger) *Handler {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	frontEndURL := cfg.FrontEndURL
	if frontEndURL == "" {
		frontEndURL = "/"
	}
	return &Handler{
		provider:      p,
		cookies:       cookies,
		recorder:      recorder,
		frontEndURL:   frontEndURL,
		postLogoutURL: cfg.PostLogoutURL(),
		logger:        logger,
	}
}

// HandleLogin redirects to the provider's hosted login page
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.provider.AuthorizationURL()
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			h.logger.Error("identity provider not configured")
			_ = utils.WriteInternalServerError(w, "Authentication not configured")
			return
		}
		h.logger.Error("failed to build authorization URL", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to initiate login")
		return
	}

	h.recorder.Record(r.Context(), NewRequestEvent(r, models.AuthActionLoginRedirect))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback exchanges the authorization code for a sealed session and stores it.
// Failures send the browser back to login without a cookie; provider errors are only logged.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.logger.Info("callback without authorization code")
		h.recorder.Record(r.Context(), NewRequestEvent(r, models.AuthActionLoginFailed).WithReason("missing_code"))
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return
	}

	result, err := h.provider.AuthenticateWithCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			h.logger.Error("identity provider not configured")
			_ = utils.WriteInternalServerError(w, "Authentication not configured")
			return
		}
		h.logger.Warn("authorization code exchange failed", zap.Error(err))
		h.recorder.Record(r.Context(), NewRequestEvent(r, models.AuthActionLoginFailed).WithReason("code_exchange_failed"))
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return
	}

	h.cookies.AttachSession(w, result.SealedSession)

	event := NewRequestEvent(r, models.AuthActionLoginSucceeded).WithUser(result.User.UserID())
	if result.OrganizationID != "" {
		event.WithDetails(map[string]string{"organization_id": result.OrganizationID})
	}
	h.recorder.Record(r.Context(), event)

	h.logger.Info("user logged in", zap.String("user_id", result.User.UserID()))
	http.Redirect(w, r, h.frontEndURL, http.StatusFound)
}

// HandleLogout clears the session cookie and redirects to the provider's logout URL.
// It succeeds whether or not a session is present.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sealed := h.cookies.Read(r)

	target, err := h.provider.LogoutURL(r.Context(), sealed)
	if err != nil {
		h.logger.Debug("no provider logout URL for session", zap.Error(err))
		target = h.postLogoutURL
	}

	h.cookies.ClearSession(w)
	h.recorder.Record(r.Context(), NewRequestEvent(r, models.AuthActionLogout))
	http.Redirect(w, r, target, http.StatusFound)
}
