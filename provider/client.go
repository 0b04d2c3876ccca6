package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/session-gateway/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	authorizePath    = "/user_management/authorize"
	authenticatePath = "/user_management/authenticate"
	logoutPath       = "/user_management/sessions/logout"
	jwksPathPrefix   = "/sso/jwks/"

	// hostedLoginProvider selects the provider's hosted login UI
	hostedLoginProvider = "authkit"
)

// CallObserver receives the outcome of every blocking call made to the provider.
type CallObserver interface {
	ObserveProviderCall(operation string, err error, elapsed time.Duration)
}

// AuthenticateResult is the outcome of checking a sealed session locally.
type AuthenticateResult struct {
	Authenticated  bool
	Reason         Reason
	User           *User
	SessionID      string
	OrganizationID string
	Role           string
	Permissions    []string
}

// RefreshResult is the outcome of a refresh grant for a sealed session.
type RefreshResult struct {
	Authenticated bool
	Reason        Reason
	SealedSession string
	User          *User
}

// CodeAuthentication is the outcome of a successful authorization code exchange.
type CodeAuthentication struct {
	User           *User
	OrganizationID string
	SealedSession  string
}

// Client talks to the identity provider's user management API and
// seals the resulting sessions with the cookie password.
type Client struct {
	oauth           oauth2.Config
	baseURL         string
	logoutReturnURL string
	httpClient      *http.Client
	sealer          *Sealer
	verifier        *JWKSVerifier
	observer        CallObserver
	logger          *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver registers an observer for provider call outcomes.
func WithObserver(o CallObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a provider client from configuration.
func NewClient(cfg config.ProviderConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("provider client ID and API key are required")
	}
	sealer, err := NewSealer(cfg.CookiePassword)
	if err != nil {
		return nil, err
	}

	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.APIKey,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   baseURL + authorizePath,
				TokenURL:  baseURL + authenticatePath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		baseURL:         baseURL,
		logoutReturnURL: cfg.LogoutRedirectURL,
		httpClient:      &http.Client{Timeout: timeout},
		sealer:          sealer,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.verifier = NewJWKSVerifier(baseURL+jwksPathPrefix+url.PathEscape(cfg.ClientID), c.httpClient, cfg.JWKSCacheTTL)

	return c, nil
}

// AuthorizationURL returns the hosted login URL the browser is sent to.
func (c *Client) AuthorizationURL() (string, error) {
	return c.oauth.AuthCodeURL("", oauth2.SetAuthURLParam("provider", hostedLoginProvider)), nil
}

// AuthenticateWithCode exchanges a one-time authorization code for a sealed session.
func (c *Client) AuthenticateWithCode(ctx context.Context, code string) (*CodeAuthentication, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrCodeExchangeFailed)
	}

	start := time.Now()
	tok, err := c.oauth.Exchange(c.withHTTPClient(ctx), code)
	c.observe("authenticate_with_code", err, start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodeExchangeFailed, err)
	}

	user, err := userFromExtra(tok.Extra("user"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodeExchangeFailed, err)
	}

	sealed, err := c.sealer.seal(&sessionData{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		User:         user,
	})
	if err != nil {
		return nil, fmt.Errorf("seal session: %w", err)
	}

	orgID, _ := tok.Extra("organization_id").(string)
	return &CodeAuthentication{
		User:           user,
		OrganizationID: orgID,
		SealedSession:  sealed,
	}, nil
}

// AuthenticateSession opens the sealed session and verifies its access token.
// It never returns an error; failures are expressed through Reason.
func (c *Client) AuthenticateSession(ctx context.Context, sealed string) AuthenticateResult {
	if sealed == "" {
		return AuthenticateResult{Reason: ReasonNoSessionCookieProvided}
	}

	data, err := c.sealer.unseal(sealed)
	if err != nil {
		c.logger.Debug("sealed session rejected", zap.Error(err))
		return AuthenticateResult{Reason: ReasonInvalidSession}
	}

	claims, err := c.verifier.Verify(ctx, data.AccessToken)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return AuthenticateResult{Reason: ReasonSessionExpired, User: data.User}
	case errors.Is(err, ErrJWKSFetchFailed):
		c.logger.Warn("identity provider key set unavailable", zap.Error(err))
		return AuthenticateResult{Reason: ReasonOther, User: data.User}
	case err != nil:
		c.logger.Debug("access token rejected", zap.Error(err))
		return AuthenticateResult{Reason: ReasonOther, User: data.User}
	}

	return AuthenticateResult{
		Authenticated:  true,
		User:           data.User,
		SessionID:      claims.SessionID,
		OrganizationID: claims.OrganizationID,
		Role:           claims.Role,
		Permissions:    claims.Permissions,
	}
}

// RefreshSession redeems the session's refresh token and seals the rotated tokens.
// An unreadable session is reported as unauthenticated; provider failures are errors.
func (c *Client) RefreshSession(ctx context.Context, sealed string) (RefreshResult, error) {
	if sealed == "" {
		return RefreshResult{Reason: ReasonNoSessionCookieProvided}, nil
	}

	data, err := c.sealer.unseal(sealed)
	if err != nil {
		return RefreshResult{Reason: ReasonInvalidSession}, nil
	}

	start := time.Now()
	src := c.oauth.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: data.RefreshToken})
	tok, err := src.Token()
	c.observe("refresh_session", err, start)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return RefreshResult{}, fmt.Errorf("%w: provider status %d", ErrRefreshFailed, rErr.Response.StatusCode)
		}
		return RefreshResult{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	user, err := userFromExtra(tok.Extra("user"))
	if err != nil {
		return RefreshResult{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if user == nil {
		user = data.User
	}

	resealed, err := c.sealer.seal(&sessionData{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		User:         user,
	})
	if err != nil {
		return RefreshResult{}, fmt.Errorf("seal session: %w", err)
	}

	return RefreshResult{
		Authenticated: true,
		SealedSession: resealed,
		User:          user,
	}, nil
}

// LogoutURL builds the provider logout URL for the session, which may already be expired.
func (c *Client) LogoutURL(ctx context.Context, sealed string) (string, error) {
	if sealed == "" {
		return "", ErrNoSession
	}

	data, err := c.sealer.unseal(sealed)
	if err != nil {
		return "", err
	}

	claims := &AccessTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(data.AccessToken, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.SessionID == "" {
		return "", ErrNoSessionID
	}

	params := url.Values{"session_id": {claims.SessionID}}
	if c.logoutReturnURL != "" {
		params.Set("return_to", c.logoutReturnURL)
	}
	return c.baseURL + logoutPath + "?" + params.Encode(), nil
}

// Ping checks that the provider's key set is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.verifier.FetchJWKS(ctx)
	return err
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) observe(operation string, err error, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveProviderCall(operation, err, time.Since(start))
	}
}
