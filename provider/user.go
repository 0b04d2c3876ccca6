package provider

import (
	"encoding/json"
	"fmt"
)

// User is the provider-held identity attached to a session.
// Every field is optional; the provider may omit any of them.
type User struct {
	ID              *string `json:"id"`
	Email           *string `json:"email"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	EmailVerified   *bool   `json:"email_verified"`
	ProfilePhotoURL *string `json:"profile_photo_url"`
}

// UserID returns the user ID or "" when the provider omitted it.
func (u *User) UserID() string {
	if u == nil || u.ID == nil {
		return ""
	}
	return *u.ID
}

// userFromExtra decodes the "user" object returned next to the tokens.
func userFromExtra(raw interface{}) (*User, error) {
	if raw == nil {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	var u User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}
