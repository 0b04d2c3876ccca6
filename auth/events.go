package auth

import (
	"net"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/session-gateway/models"
)

// NewRequestEvent creates an auth event stamped with the request's ID, client IP and user agent.
func NewRequestEvent(r *http.Request, action models.AuthAction) *models.AuthEvent {
	return models.NewAuthEvent(action).
		WithRequest(chimiddleware.GetReqID(r.Context()), clientIP(r), r.UserAgent())
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
