package handlers

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"
	"github.com/upb/session-gateway/auth"
	"github.com/upb/session-gateway/models"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }

// MockAuthEventRepository is a mock implementation of repositories.AuthEventRepository
type MockAuthEventRepository struct {
	mock.Mock
}

func (m *MockAuthEventRepository) Insert(ctx context.Context, event *models.AuthEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockAuthEventRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.AuthEvent, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuthEvent), args.Error(1)
}

func (m *MockAuthEventRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuthEvent), args.Error(1)
}

// stubPinger answers Ping/HealthCheck with a fixed error
type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }
func (s stubPinger) HealthCheck(context.Context) error { return s.err }

var errUnreachable = errors.New("unreachable")

// staticAuthDeps implements AuthDeps
type staticAuthDeps struct {
	handler *auth.Handler
}

func (d staticAuthDeps) AuthHandler() *auth.Handler { return d.handler }

// loginOnlyProvider builds an authorization URL and fails everything else
type loginOnlyProvider struct {
	auth.UnconfiguredProvider
	url string
}

func (p loginOnlyProvider) AuthorizationURL() (string, error) { return p.url, nil }
