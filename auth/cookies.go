package auth

import "net/http"

// DefaultCookieName is the session cookie name used when none is configured.
const DefaultCookieName = "wos_session"

// CookieManager writes the session cookie. It never decides whether a request proceeds.
type CookieManager struct {
	name string
}

// NewCookieManager creates a cookie manager for the named session cookie.
func NewCookieManager(name string) *CookieManager {
	if name == "" {
		name = DefaultCookieName
	}
	return &CookieManager{name: name}
}

// Name returns the session cookie name.
func (m *CookieManager) Name() string {
	return m.name
}

// Read returns the sealed session from the request, or "" when absent.
func (m *CookieManager) Read(r *http.Request) string {
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AttachSession stores the sealed session. No expiry is set; the sealed
// session carries its own.
func (m *CookieManager) AttachSession(w http.ResponseWriter, sealed string) {
	http.SetCookie(w, m.cookie(sealed, 0))
}

// ClearSession deletes the session cookie.
func (m *CookieManager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

// Apply performs the cookie mutation a decision calls for. Proceed and
// RedirectToLogin write nothing.
func (m *CookieManager) Apply(w http.ResponseWriter, d Decision) {
	switch d.Outcome {
	case ProceedWithRefreshedCookie:
		m.AttachSession(w, d.SealedSession)
	case RedirectToLoginAndClearCookie:
		m.ClearSession(w)
	}
}

func (m *CookieManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
