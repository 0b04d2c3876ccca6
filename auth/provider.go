package auth

import (
	"context"
	"errors"

	"github.com/upb/session-gateway/provider"
)

// ErrNotConfigured is returned by every operation of an unconfigured provider.
var ErrNotConfigured = errors.New("authentication not configured")

// SessionProvider is the identity provider surface the guard and handlers depend on.
type SessionProvider interface {
	AuthorizationURL() (string, error)
	AuthenticateWithCode(ctx context.Context, code string) (*provider.CodeAuthentication, error)
	AuthenticateSession(ctx context.Context, sealed string) provider.AuthenticateResult
	RefreshSession(ctx context.Context, sealed string) (provider.RefreshResult, error)
	LogoutURL(ctx context.Context, sealed string) (string, error)
}

// UnconfiguredProvider stands in when provider credentials are missing.
// It rejects every session and fails every provider call with ErrNotConfigured.
type UnconfiguredProvider struct{}

var _ SessionProvider = UnconfiguredProvider{}

func (UnconfiguredProvider) AuthorizationURL() (string, error) {
	return "", ErrNotConfigured
}

func (UnconfiguredProvider) AuthenticateWithCode(context.Context, string) (*provider.CodeAuthentication, error) {
	return nil, ErrNotConfigured
}

func (UnconfiguredProvider) AuthenticateSession(_ context.Context, sealed string) provider.AuthenticateResult {
	if sealed == "" {
		return provider.AuthenticateResult{Reason: provider.ReasonNoSessionCookieProvided}
	}
	return provider.AuthenticateResult{Reason: provider.ReasonInvalidSession}
}

func (UnconfiguredProvider) RefreshSession(context.Context, string) (provider.RefreshResult, error) {
	return provider.RefreshResult{}, ErrNotConfigured
}

func (UnconfiguredProvider) LogoutURL(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
