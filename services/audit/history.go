package audit

import (
	"context"

	"github.com/upb/session-gateway/models"
	"github.com/upb/session-gateway/repositories"
	"github.com/upb/session-gateway/services"
)

const (
	// DefaultHistoryLimit is the number of events returned when no limit is given
	DefaultHistoryLimit = 20
	// MaxHistoryLimit caps a single history page
	MaxHistoryLimit = 100
)

// HistoryService reads a user's recent auth activity from the audit trail
type HistoryService struct {
	repo repositories.AuthEventRepository
}

// NewHistoryService creates a history service. A nil repository disables history.
func NewHistoryService(repo repositories.AuthEventRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Enabled reports whether an audit store backs the service
func (s *HistoryService) Enabled() bool {
	return s != nil && s.repo != nil
}

// RecentForUser returns the user's most recent auth events, newest first.
// A zero limit selects DefaultHistoryLimit.
func (s *HistoryService) RecentForUser(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error) {
	if !s.Enabled() {
		return nil, services.ErrAuditTrailDisabled
	}
	if userID == "" {
		return nil, services.ErrUnauthorized
	}
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.ErrInvalidLimit.Message, nil).
			WithDetail("limit", limit)
	}

	events, err := s.repo.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to load auth activity", err)
	}
	if events == nil {
		events = []*models.AuthEvent{}
	}
	return events, nil
}
