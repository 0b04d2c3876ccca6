package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuthAction represents the kind of auth lifecycle event being audited
type AuthAction string

const (
	AuthActionLoginRedirect        AuthAction = "login_redirect"
	AuthActionLoginSucceeded       AuthAction = "login_succeeded"
	AuthActionLoginFailed          AuthAction = "login_failed"
	AuthActionSessionRefreshed     AuthAction = "session_refreshed"
	AuthActionSessionRefreshFailed AuthAction = "session_refresh_failed"
	AuthActionSessionRejected      AuthAction = "session_rejected"
	AuthActionLogout               AuthAction = "logout"
)

// AuthEvent represents an auth audit trail entry.
// It never carries session, access or refresh tokens.
type AuthEvent struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Action    AuthAction      `json:"action" db:"action"`
	UserID    *string         `json:"user_id,omitempty" db:"user_id"` // provider user ID, when known
	Reason    *string         `json:"reason,omitempty" db:"reason"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress string          `json:"ip_address" db:"ip_address"`
	UserAgent string          `json:"user_agent" db:"user_agent"`
	RequestID string          `json:"request_id" db:"request_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuthEvent model
func (AuthEvent) TableName() string {
	return "auth_events"
}

// NewAuthEvent creates a new AuthEvent instance
func NewAuthEvent(action AuthAction) *AuthEvent {
	return &AuthEvent{
		ID:        uuid.New(),
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

// WithUser sets the user ID; empty IDs are ignored
func (e *AuthEvent) WithUser(userID string) *AuthEvent {
	if userID != "" {
		e.UserID = &userID
	}
	return e
}

// WithReason sets the reason; empty reasons are ignored
func (e *AuthEvent) WithReason(reason string) *AuthEvent {
	if reason != "" {
		e.Reason = &reason
	}
	return e
}

// WithDetails sets the details
func (e *AuthEvent) WithDetails(details interface{}) *AuthEvent {
	if data, err := json.Marshal(details); err == nil {
		e.Details = data
	}
	return e
}

// WithRequest sets request metadata
func (e *AuthEvent) WithRequest(requestID, ipAddress, userAgent string) *AuthEvent {
	e.RequestID = requestID
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}
