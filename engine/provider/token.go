package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTokenTTL      = time.Hour
	defaultRefreshBuffer = time.Minute
)

// TokenConfig configures the VIN service login.
type TokenConfig struct {
	AuthURL       string
	Login         string
	Password      string
	TTL           time.Duration // used when the login response carries no expiry
	RefreshBuffer time.Duration // refresh this long before expiry
}

type loginResponse struct {
	Token struct {
		Token string `json:"token"`
	} `json:"token"`
	ExpiresIn float64 `json:"expiresIn"`
	ExpiresAt string  `json:"expiresAt"`
}

// TokenManager caches the VIN service bearer token for the whole process.
// Concurrent callers that find the token stale share a single login, and a
// request rejected with 401 is re-sent once after logging in again.
type TokenManager struct {
	cfg    TokenConfig
	client Doer
	now    func() time.Time
	group  singleflight.Group

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenManager creates a TokenManager that logs in through client.
func NewTokenManager(cfg TokenConfig, client Doer) *TokenManager {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTokenTTL
	}
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = defaultRefreshBuffer
	}
	return &TokenManager{cfg: cfg, client: client, now: time.Now}
}

func (m *TokenManager) cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || !m.now().Before(m.expiry.Add(-m.cfg.RefreshBuffer)) {
		return "", false
	}
	return m.token, true
}

// Token returns a usable bearer token, logging in when the cached one is
// missing or inside the refresh buffer.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if tok, ok := m.cached(); ok {
		return tok, nil
	}
	v, err, _ := m.group.Do("login", func() (any, error) {
		if tok, ok := m.cached(); ok {
			return tok, nil
		}
		// The login is shared; one caller giving up must not fail the rest.
		return m.login(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token if it is still stale. A token that a
// concurrent login already replaced is left alone.
func (m *TokenManager) Invalidate(stale string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == stale {
		m.token = ""
		m.expiry = time.Time{}
	}
}

func (m *TokenManager) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{"login": m.cfg.Login, "password": m.cfg.Password})
	if err != nil {
		return "", newError(VINName, CategoryInternal, "encode login", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.AuthURL, bytes.NewReader(body))
	if err != nil {
		return "", newError(VINName, CategoryInternal, "build login request", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	var resp loginResponse
	if err := doJSON(m.client, VINName, req, &resp); err != nil {
		return "", newError(VINName, CategoryAuthentication, "login failed", err)
	}
	if resp.Token.Token == "" {
		return "", newError(VINName, CategoryAuthentication, "login returned no token", nil)
	}

	m.mu.Lock()
	m.token = resp.Token.Token
	m.expiry = m.expiryOf(resp)
	m.mu.Unlock()
	return resp.Token.Token, nil
}

// expiryOf prefers an explicit lifetime, then an absolute expiry, then the
// token's own exp claim, then the configured TTL.
func (m *TokenManager) expiryOf(resp loginResponse) time.Time {
	now := m.now()
	if resp.ExpiresIn > 0 {
		return now.Add(time.Duration(resp.ExpiresIn * float64(time.Second)))
	}
	if resp.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, resp.ExpiresAt); err == nil {
			return t
		}
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.Token.Token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return now.Add(m.cfg.TTL)
}

// Do sends req with the bearer token, retrying once with a new token when
// the service answers 401.
func (m *TokenManager) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	tok, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := m.send(req, tok)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	m.Invalidate(tok)
	if tok, err = m.Token(ctx); err != nil {
		return nil, err
	}
	retry, err := rewind(req)
	if err != nil {
		return nil, err
	}
	return m.send(retry, tok)
}

func (m *TokenManager) send(req *http.Request, tok string) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+tok)
	return m.client.Do(r)
}

var errBodyNotReplayable = errors.New("request body cannot be replayed")

func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r.Body = body
	return r, nil
}
