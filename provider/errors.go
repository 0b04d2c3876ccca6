package provider

import "errors"

var (
	// ErrNoSession is returned when an operation needs a sealed session and none was given
	ErrNoSession = errors.New("no session provided")

	// ErrInvalidSession is returned when a sealed session cannot be opened
	ErrInvalidSession = errors.New("invalid sealed session")

	// ErrInvalidToken is returned when the access token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the access token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrJWKSFetchFailed is returned when JWKS fetching fails
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

	// ErrCodeExchangeFailed is returned when an authorization code cannot be exchanged
	ErrCodeExchangeFailed = errors.New("authorization code exchange failed")

	// ErrRefreshFailed is returned when the provider rejects or fails a refresh grant
	ErrRefreshFailed = errors.New("session refresh failed")

	// ErrNoSessionID is returned when the access token carries no session ID
	ErrNoSessionID = errors.New("access token has no session id")
)

// Reason explains why a sealed session did not authenticate.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonNoSessionCookieProvided Reason = "no_session_cookie_provided"
	ReasonSessionExpired          Reason = "session_expired"
	ReasonInvalidSession          Reason = "invalid_session"
	ReasonOther                   Reason = "other"
)

// String implements fmt.Stringer
func (r Reason) String() string {
	if r == ReasonNone {
		return "none"
	}
	return string(r)
}
