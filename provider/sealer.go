package provider

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/upb/session-gateway/config"
)

// sessionData is the plaintext carried inside a sealed session.
type sessionData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Sealer encrypts session data into an opaque compact JWE and back.
// The content key is derived from the cookie password, so every
// instance built from the same password opens the same sessions.
type Sealer struct {
	key []byte
}

// NewSealer creates a sealer keyed by the given cookie password.
func NewSealer(password string) (*Sealer, error) {
	if password == "" {
		return nil, fmt.Errorf("cookie password is required")
	}
	if len(password) < config.MinCookiePasswordLength {
		return nil, fmt.Errorf("cookie password must be at least %d characters", config.MinCookiePasswordLength)
	}
	sum := sha256.Sum256([]byte(password))
	return &Sealer{key: sum[:]}, nil
}

func (s *Sealer) seal(data *sessionData) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	enc, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.DIRECT, Key: s.key},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("creating encrypter: %w", err)
	}

	obj, err := enc.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypting: %w", err)
	}

	return obj.CompactSerialize()
}

// unseal opens a sealed session. Every failure wraps ErrInvalidSession.
func (s *Sealer) unseal(sealed string) (*sessionData, error) {
	obj, err := jose.ParseEncrypted(sealed,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing JWE: %v", ErrInvalidSession, err)
	}

	plaintext, err := obj.Decrypt(s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypting: %v", ErrInvalidSession, err)
	}

	var data sessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling: %v", ErrInvalidSession, err)
	}
	if data.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrInvalidSession)
	}

	return &data, nil
}
