package handlers

import (
	"net/http"
	"strconv"

	"github.com/upb/session-gateway/middleware"
	"github.com/upb/session-gateway/models"
	"github.com/upb/session-gateway/provider"
	"github.com/upb/session-gateway/services"
	"github.com/upb/session-gateway/services/audit"
	"github.com/upb/session-gateway/utils"
	"go.uber.org/zap"
)

// ProfileResponse is the body of /dashboard and /api/me.
// Absent user fields are rendered as null.
type ProfileResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *provider.User `json:"user"`
}

// AuthEventsResponse lists auth activity, newest first
type AuthEventsResponse struct {
	Data []*models.AuthEvent `json:"data"`
}

// MessageResponse carries a plain message
type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileHandler returns the authenticated user's profile.
// It must run behind a session middleware.
func ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !middleware.IsAuthenticated(r.Context()) {
			_ = utils.WriteJSON(w, http.StatusUnauthorized, middleware.NotAuthenticatedResponse{})
			return
		}
		user := middleware.GetUserFromContext(r.Context())
		_ = utils.WriteJSON(w, http.StatusOK, ProfileResponse{Authenticated: true, User: user})
	}
}

// HelloHandler answers the frontend's connectivity probe
func HelloHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Hello from the session gateway"})
	}
}

// AuthEventsHandler lists the caller's recent auth activity.
// GET /api/me/events?limit=N
func AuthEventsHandler(history *audit.HistoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				HandleServiceError(w, services.NewDomainError(services.ErrorTypeValidation, "limit must be an integer", err).
					WithDetail("limit", raw), logger)
				return
			}
			limit = n
		}

		events, err := history.RecentForUser(r.Context(), middleware.GetUserFromContext(r.Context()).UserID(), limit)
		if err != nil {
			HandleServiceError(w, err, logger)
			return
		}
		_ = utils.WriteJSON(w, http.StatusOK, AuthEventsResponse{Data: events})
	}
}
