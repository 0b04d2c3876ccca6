package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upb/session-gateway/models"
	"github.com/upb/session-gateway/repositories"
	"go.uber.org/zap"
)

const authEventColumns = `id, action, user_id, reason, details, ip_address, user_agent, request_id, timestamp`

// AuthEventRepository implements the repositories.AuthEventRepository interface
type AuthEventRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuthEventRepository creates a new auth event repository
func NewAuthEventRepository(db *DB, logger *zap.Logger) repositories.AuthEventRepository {
	return &AuthEventRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new auth event
func (r *AuthEventRepository) Insert(ctx context.Context, event *models.AuthEvent) error {
	query := `
		INSERT INTO auth_events (` + authEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var details interface{}
	if len(event.Details) > 0 {
		details = []byte(event.Details)
	}

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Action,
		event.UserID,
		event.Reason,
		details,
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auth event: %w", err)
	}

	r.logger.Debug("auth event inserted", zap.String("id", event.ID.String()), zap.String("action", string(event.Action)))
	return nil
}

// GetByRequestID retrieves the auth events recorded for a request
func (r *AuthEventRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.AuthEvent, error) {
	query := `
		SELECT ` + authEventColumns + `
		FROM auth_events
		WHERE request_id = $1
		ORDER BY timestamp ASC
	`
	return r.queryAuthEvents(ctx, query, requestID)
}

// ListByUserID retrieves the most recent auth events for a user, newest first
func (r *AuthEventRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + authEventColumns + `
		FROM auth_events
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	return r.queryAuthEvents(ctx, query, userID, limit)
}

func (r *AuthEventRepository) queryAuthEvents(ctx context.Context, query string, args ...interface{}) ([]*models.AuthEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuthEvent
	for rows.Next() {
		var (
			event   models.AuthEvent
			userID  sql.NullString
			reason  sql.NullString
			details []byte
		)
		if err := rows.Scan(
			&event.ID,
			&event.Action,
			&userID,
			&reason,
			&details,
			&event.IPAddress,
			&event.UserAgent,
			&event.RequestID,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan auth event: %w", err)
		}
		if userID.Valid {
			event.UserID = &userID.String
		}
		if reason.Valid {
			event.Reason = &reason.String
		}
		event.Details = details
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auth events: %w", err)
	}

	return events, nil
}
