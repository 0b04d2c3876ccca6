package handlers

import (
	"net/http"

	"github.com/upb/session-gateway/auth"
	"github.com/upb/session-gateway/utils"
)

// AuthDeps provides the auth handler for route wiring
type AuthDeps interface {
	AuthHandler() *auth.Handler
}

// AuthLoginHandler returns an http.HandlerFunc for the login endpoint
func AuthLoginHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleLogin)
}

// AuthCallbackHandler returns an http.HandlerFunc for the provider callback endpoint
func AuthCallbackHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleCallback)
}

// AuthLogoutHandler returns an http.HandlerFunc for the logout endpoint
func AuthLogoutHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleLogout)
}

func withAuthHandler(deps AuthDeps, serve func(*auth.Handler, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h := deps.AuthHandler(); h != nil {
			serve(h, w, r)
			return
		}
		_ = utils.WriteInternalServerError(w, "Authentication not configured")
	}
}
