package schwab

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

func TestGeneratePKCE(t *testing.T) {
	pair, err := GeneratePKCE()
	require.NoError(t, err)
	require.Equal(t, "S256", pair.Method)
	require.NotEmpty(t, pair.Verifier)

	digest := sha256.Sum256([]byte(pair.Verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(digest[:]), pair.Challenge)

	// Verifiers are random per call.
	other, err := GeneratePKCE()
	require.NoError(t, err)
	require.NotEqual(t, pair.Verifier, other.Verifier)
}

func TestAuthorizeURL(t *testing.T) {
	auth, err := NewAuthManager("https://auth.example.com", "client-1", "https://127.0.0.1/cb", filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, err)

	pair, err := GeneratePKCE()
	require.NoError(t, err)
	u := auth.AuthorizeURL("state-xyz", pair)
	require.Contains(t, u, "https://auth.example.com/v1/oauth/authorize?")
	require.Contains(t, u, "client_id=client-1")
	require.Contains(t, u, "code_challenge="+pair.Challenge)
	require.Contains(t, u, "code_challenge_method=S256")
	require.Contains(t, u, "state=state-xyz")
}

func TestAuthorizeURLBaseWithOAuthPrefix(t *testing.T) {
	// Configs sometimes carry the /v1/oauth prefix in the base URL; the
	// endpoint paths must not end up doubled.
	auth, err := NewAuthManager("https://auth.example.com/v1/oauth", "client-1", "https://127.0.0.1/cb", filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, err)

	pair, err := GeneratePKCE()
	require.NoError(t, err)
	u := auth.AuthorizeURL("state-xyz", pair)
	require.Contains(t, u, "https://auth.example.com/v1/oauth/authorize?")
	require.NotContains(t, u, "/v1/oauth/v1/oauth")
}

func TestExchangePersistsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		require.Equal(t, "the-code", r.Form.Get("code"))
		require.Equal(t, "the-verifier", r.Form.Get("code_verifier"))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"token_type":    "Bearer",
			"expires_in":    1800,
		})
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "tokens.json")
	auth, err := NewAuthManager(srv.URL, "client-1", "https://127.0.0.1/cb", tokenFile)
	require.NoError(t, err)
	require.NoError(t, auth.Exchange(context.Background(), "the-code", "the-verifier"))

	// Token file exists with owner-only perms.
	info, err := os.Stat(tokenFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err := auth.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "at-1", token)
}

func TestAccessTokenRefreshesWhenExpired(t *testing.T) {
	refreshed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		require.Equal(t, "rt-old", r.Form.Get("refresh_token"))
		refreshed = true
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-new",
			"refresh_token": "rt-new",
			"token_type":    "Bearer",
			"expires_in":    1800,
		})
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "tokens.json")
	stale := Token{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tokenFile, data, 0o600))

	auth, err := NewAuthManager(srv.URL, "client-1", "https://127.0.0.1/cb", tokenFile)
	require.NoError(t, err)

	token, err := auth.AccessToken(context.Background())
	require.NoError(t, err)
	require.True(t, refreshed)
	require.Equal(t, "at-new", token)
}

func TestAccessTokenNoTokenFile(t *testing.T) {
	auth, err := NewAuthManager("https://auth.example.com", "client-1", "https://127.0.0.1/cb", filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	_, err = auth.AccessToken(context.Background())
	require.Error(t, err)
	require.Equal(t, guardrail.CodeAuth, guardrail.CodeOf(err))
}

func TestNewAuthManagerRequiresClientID(t *testing.T) {
	_, err := NewAuthManager("https://auth.example.com", "", "https://127.0.0.1/cb", "")
	require.Error(t, err)
	require.Equal(t, guardrail.CodeConfig, guardrail.CodeOf(err))
}
