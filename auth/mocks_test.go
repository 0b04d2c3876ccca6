package auth

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/upb/session-gateway/models"
	"github.com/upb/session-gateway/provider"
)

type MockSessionProvider struct {
	mock.Mock
}

func (m *MockSessionProvider) AuthorizationURL() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockSessionProvider) AuthenticateWithCode(ctx context.Context, code string) (*provider.CodeAuthentication, error) {
	args := m.Called(ctx, code)
	if res := args.Get(0); res != nil {
		return res.(*provider.CodeAuthentication), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionProvider) AuthenticateSession(ctx context.Context, sealed string) provider.AuthenticateResult {
	args := m.Called(ctx, sealed)
	return args.Get(0).(provider.AuthenticateResult)
}

func (m *MockSessionProvider) RefreshSession(ctx context.Context, sealed string) (provider.RefreshResult, error) {
	args := m.Called(ctx, sealed)
	return args.Get(0).(provider.RefreshResult), args.Error(1)
}

func (m *MockSessionProvider) LogoutURL(ctx context.Context, sealed string) (string, error) {
	args := m.Called(ctx, sealed)
	return args.String(0), args.Error(1)
}

type recordingRecorder struct {
	mu     sync.Mutex
	events []*models.AuthEvent
}

func (r *recordingRecorder) Record(_ context.Context, event *models.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingRecorder) actions() []models.AuthAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuthAction, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type recordingObserver struct {
	decisions [][2]string
}

func (o *recordingObserver) RecordGuardDecision(outcome, reason string) {
	o.decisions = append(o.decisions, [2]string{outcome, reason})
}

func strPtr(s string) *string { return &s }
