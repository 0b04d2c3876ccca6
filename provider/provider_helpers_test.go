package provider

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/upb/session-gateway/config"
	"go.uber.org/zap"
)

const (
	testClientID       = "client_123"
	testAPIKey         = "sk_test_123"
	testCookiePassword = "0123456789abcdef0123456789abcdef"
	testKID            = "key-1"
)

// fakeProvider emulates the identity provider's token, JWKS and logout endpoints.
type fakeProvider struct {
	*httptest.Server
	key         *rsa.PrivateKey
	jwksHits    atomic.Int32
	tokenHits   atomic.Int32
	accessTTL   time.Duration
	omitRefresh bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	fp := &fakeProvider{key: key, accessTTL: time.Hour}
	mux := http.NewServeMux()
	mux.HandleFunc("/sso/jwks/"+testClientID, func(w http.ResponseWriter, r *http.Request) {
		fp.jwksHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(JWKS{Keys: []JWK{{
			Kid: testKID,
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}})
	})
	mux.HandleFunc("/user_management/authenticate", func(w http.ResponseWriter, r *http.Request) {
		fp.tokenHits.Add(1)
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("client_id") != testClientID || r.PostForm.Get("client_secret") != testAPIKey {
			writeOAuthError(w, http.StatusUnauthorized, "invalid_client")
			return
		}
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "VALID123" {
				writeOAuthError(w, http.StatusBadRequest, "invalid_grant")
				return
			}
			fp.writeTokens(t, w, "sess_1", "rt-good")
		case "refresh_token":
			if r.PostForm.Get("refresh_token") != "rt-good" {
				writeOAuthError(w, http.StatusBadRequest, "invalid_grant")
				return
			}
			fp.writeTokens(t, w, "sess_1", "rt-good")
		default:
			writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type")
		}
	})
	fp.Server = httptest.NewServer(mux)
	t.Cleanup(fp.Close)
	return fp
}

func (fp *fakeProvider) writeTokens(t *testing.T, w http.ResponseWriter, sid, refreshToken string) {
	body := map[string]interface{}{
		"access_token": fp.accessToken(t, sid, fp.accessTTL),
		"user": map[string]interface{}{
			"id":             "u1",
			"email":          "a@b.com",
			"first_name":     "Ada",
			"email_verified": true,
		},
		"organization_id": "org_1",
	}
	if !fp.omitRefresh {
		body["refresh_token"] = refreshToken
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// accessToken signs an access token; a negative ttl yields an expired token.
func (fp *fakeProvider) accessToken(t *testing.T, sid string, ttl time.Duration) string {
	t.Helper()
	return signAccessToken(t, fp.key, testKID, sid, ttl)
}

func signAccessToken(t *testing.T, key *rsa.PrivateKey, kid, sid string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SessionID:      sid,
		OrganizationID: "org_1",
		Role:           "member",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func writeOAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func testProviderConfig(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		APIKey:         testAPIKey,
		ClientID:       testClientID,
		CookiePassword: testCookiePassword,
		RedirectURI:    "http://localhost:5000/callback",
		BaseURL:        baseURL,
		FrontEndURL:    "http://localhost:5173",
		HTTPTimeout:    5 * time.Second,
		JWKSCacheTTL:   time.Hour,
	}
}

func newTestClient(t *testing.T, fp *fakeProvider, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(testProviderConfig(fp.URL), zap.NewNop(), opts...)
	require.NoError(t, err)
	return c
}

// sealFor seals a session the way a successful login would.
func sealFor(t *testing.T, c *Client, accessToken, refreshToken string) string {
	t.Helper()
	id, email := "u1", "a@b.com"
	sealed, err := c.sealer.seal(&sessionData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &User{ID: &id, Email: &email},
	})
	require.NoError(t, err)
	return sealed
}
