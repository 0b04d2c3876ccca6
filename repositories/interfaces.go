package repositories

import (
	"context"

	"github.com/upb/session-gateway/models"
)

// AuthEventRepository handles auth audit trail data operations
type AuthEventRepository interface {
	// Insert inserts a new auth event
	Insert(ctx context.Context, event *models.AuthEvent) error

	// GetByRequestID retrieves the auth events recorded for a request
	GetByRequestID(ctx context.Context, requestID string) ([]*models.AuthEvent, error)

	// ListByUserID retrieves the most recent auth events for a user, newest first
	ListByUserID(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error)
}

// Repositories holds all repository instances
type Repositories struct {
	AuthEvents AuthEventRepository
}
