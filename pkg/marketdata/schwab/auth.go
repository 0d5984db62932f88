package schwab

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

const (
	authorizePath = "/v1/oauth/authorize"
	tokenPath     = "/v1/oauth/token"

	// Tokens are treated as expired this long before their actual expiry so
	// an in-flight request never rides a dying token.
	expirySkew = 60 * time.Second
)

// PKCEPair is an RFC 7636 verifier/challenge pair (S256).
type PKCEPair struct {
	Verifier  string
	Challenge string
	Method    string
}

// GeneratePKCE produces a fresh verifier and its SHA-256 challenge.
func GeneratePKCE() (PKCEPair, error) {
	raw := make([]byte, 64)
	if _, err := rand.Read(raw); err != nil {
		return PKCEPair{}, guardrail.WrapError(guardrail.CodeAuth, err, "generate PKCE verifier")
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)
	digest := sha256.Sum256([]byte(verifier))
	return PKCEPair{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(digest[:]),
		Method:    "S256",
	}, nil
}

// Token is the persisted OAuth token set.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the access token is usable right now.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-expirySkew))
}

// AuthManager handles the OAuth2 authorization-code flow with PKCE and the
// token lifecycle. The token file is the only state that survives a CLI
// invocation.
type AuthManager struct {
	authBaseURL string
	clientID    string
	redirectURI string
	tokenFile   string
	httpClient  *http.Client
	nowFn       func() time.Time

	mu    sync.Mutex
	token *Token
}

// AuthOption customises an AuthManager.
type AuthOption func(*AuthManager)

// WithAuthHTTPClient injects a custom http.Client for token requests.
func WithAuthHTTPClient(hc *http.Client) AuthOption {
	return func(a *AuthManager) {
		if hc != nil {
			a.httpClient = hc
		}
	}
}

// WithNow overrides the clock, for tests.
func WithNow(nowFn func() time.Time) AuthOption {
	return func(a *AuthManager) {
		if nowFn != nil {
			a.nowFn = nowFn
		}
	}
}

// NewAuthManager constructs an auth manager. tokenFile may be relative to
// the working directory.
func NewAuthManager(authBaseURL, clientID, redirectURI, tokenFile string, opts ...AuthOption) (*AuthManager, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, guardrail.NewError(guardrail.CodeConfig, "schwab auth: client_id is required")
	}
	if strings.TrimSpace(authBaseURL) == "" {
		return nil, guardrail.NewError(guardrail.CodeConfig, "schwab auth: auth_base_url is required")
	}
	if strings.TrimSpace(tokenFile) == "" {
		tokenFile = "tokens.json"
	}
	base := strings.TrimRight(authBaseURL, "/")
	// authorizePath/tokenPath carry the /v1/oauth prefix already; accept
	// configs that include it in the base without doubling the path.
	base = strings.TrimSuffix(base, "/v1/oauth")
	a := &AuthManager{
		authBaseURL: base,
		clientID:    clientID,
		redirectURI: redirectURI,
		tokenFile:   tokenFile,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		nowFn:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AuthorizeURL builds the browser URL starting the authorization-code flow.
func (a *AuthManager) AuthorizeURL(state string, pkce PKCEPair) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", a.clientID)
	q.Set("redirect_uri", a.redirectURI)
	q.Set("state", state)
	q.Set("code_challenge", pkce.Challenge)
	q.Set("code_challenge_method", pkce.Method)
	return a.authBaseURL + authorizePath + "?" + q.Encode()
}

// Exchange trades an authorization code plus PKCE verifier for tokens and
// persists them.
func (a *AuthManager) Exchange(ctx context.Context, code, verifier string) error {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.redirectURI)
	form.Set("client_id", a.clientID)
	form.Set("code_verifier", verifier)
	return a.requestToken(ctx, form)
}

// Refresh obtains a new access token using the stored refresh token.
func (a *AuthManager) Refresh(ctx context.Context) error {
	tok, err := a.loadToken()
	if err != nil {
		return err
	}
	if tok.RefreshToken == "" {
		return guardrail.NewError(guardrail.CodeAuth, "no refresh token; run login first")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", tok.RefreshToken)
	form.Set("client_id", a.clientID)
	return a.requestToken(ctx, form)
}

// AccessToken returns a usable bearer token, refreshing when expired.
func (a *AuthManager) AccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	cached := a.token
	a.mu.Unlock()
	if cached != nil && cached.Valid(a.nowFn()) {
		return cached.AccessToken, nil
	}

	tok, err := a.loadToken()
	if err != nil {
		return "", err
	}
	if tok.Valid(a.nowFn()) {
		return tok.AccessToken, nil
	}
	if err := a.Refresh(ctx); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == nil || !a.token.Valid(a.nowFn()) {
		return "", guardrail.NewError(guardrail.CodeAuth, "token refresh did not yield a usable token")
	}
	return a.token.AccessToken, nil
}

func (a *AuthManager) requestToken(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.authBaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return guardrail.WrapError(guardrail.CodeAuth, err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return guardrail.WrapError(guardrail.CodeTimeout, err, "token request cancelled")
		}
		return guardrail.WrapError(guardrail.CodeNetwork, err, "token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return guardrail.NewError(guardrail.CodeAuth, "token endpoint rejected request",
			"status", resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return guardrail.WrapError(guardrail.CodeProviderParse, err, "decode token response")
	}
	if payload.AccessToken == "" {
		return guardrail.NewError(guardrail.CodeAuth, "token response missing access_token")
	}

	tok := Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		ExpiresAt:    a.nowFn().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}
	if err := a.saveToken(tok); err != nil {
		return err
	}
	logx.Infow("token refreshed", logx.Field("expires_at", tok.ExpiresAt))
	return nil
}

func (a *AuthManager) loadToken() (Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != nil {
		return *a.token, nil
	}
	data, err := os.ReadFile(a.tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return Token{}, guardrail.NewError(guardrail.CodeAuth,
				"no token file; run login first", "path", a.tokenFile)
		}
		return Token{}, guardrail.WrapError(guardrail.CodeAuth, err, "read token file")
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return Token{}, guardrail.WrapError(guardrail.CodeAuth, err, "parse token file")
	}
	a.token = &tok
	return tok, nil
}

func (a *AuthManager) saveToken(tok Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return guardrail.WrapError(guardrail.CodeAuth, err, "encode token")
	}
	if dir := filepath.Dir(a.tokenFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return guardrail.WrapError(guardrail.CodeAuth, err, "create token dir")
		}
	}
	if err := os.WriteFile(a.tokenFile, data, 0o600); err != nil {
		return guardrail.WrapError(guardrail.CodeAuth, err, "write token file")
	}
	a.mu.Lock()
	a.token = &tok
	a.mu.Unlock()
	return nil
}
