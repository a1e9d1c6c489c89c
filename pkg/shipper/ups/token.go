package ups

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expiryBuffer is subtracted from the carrier's nominal token lifetime so a
// token is refreshed before it can expire on the wire mid-call.
const expiryBuffer = 30 * time.Second

const oauthPath = "/security/v1/oauth/token"

// Credential is the result of one OAuth token fetch.
type Credential struct {
	AccessToken string
	ExpiresIn   int64 // Lifetime in seconds.
}

// TokenFetcher obtains a fresh bearer credential from the carrier's
// authorization server.
type TokenFetcher interface {
	FetchToken(ctx context.Context) (*Credential, error)
}

// TokenSource caches a bearer token and refreshes it on demand. It is safe
// for concurrent use: at most one fetch is in flight at a time regardless of
// how many callers ask for a token simultaneously.
type TokenSource struct {
	fetcher TokenFetcher
	group   singleflight.Group
	now     func() time.Time

	// OnRefresh, when set, observes the outcome of every actual fetch
	// attempt (nil on success). Cache hits do not invoke it.
	OnRefresh func(err error)

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source backed by the given fetcher.
func NewTokenSource(fetcher TokenFetcher) *TokenSource {
	return &TokenSource{
		fetcher: fetcher,
		now:     time.Now,
	}
}

// Token returns a valid bearer token, fetching a new one only when the
// cached token is missing or past its buffered expiry. Concurrent callers
// join a single in-flight fetch; a failed fetch propagates to every waiting
// caller and is never cached, so the next call retries.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.cached(); ok {
		return tok, nil
	}

	v, err, _ := s.group.Do("token", func() (any, error) {
		// A caller that raced in behind a completed refresh can serve
		// from the cache instead of fetching again.
		if tok, ok := s.cached(); ok {
			return tok, nil
		}

		cred, err := s.fetcher.FetchToken(ctx)
		if s.OnRefresh != nil {
			s.OnRefresh(err)
		}
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.token = cred.AccessToken
		s.expiresAt = s.now().Add(time.Duration(cred.ExpiresIn)*time.Second - expiryBuffer)
		s.mu.Unlock()

		return cred.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *TokenSource) cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, true
	}
	return "", false
}

// OAuthConfig holds credentials for the client-credentials grant.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
}

// OAuthFetcher fetches bearer tokens from the carrier's OAuth endpoint using
// the client-credentials grant with HTTP basic authentication.
type OAuthFetcher struct {
	cfg        OAuthConfig
	httpClient *http.Client
}

// NewOAuthFetcher creates a new OAuth token fetcher for production use.
func NewOAuthFetcher(cfg OAuthConfig) *OAuthFetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = requestTimeout
	}
	return &OAuthFetcher{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// expirySeconds tolerates the token lifetime arriving as either a JSON
// number or a quoted string; the carrier has been observed to send both.
type expirySeconds int64

func (e *expirySeconds) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expires_in %q: %w", s, err)
	}
	*e = expirySeconds(v)
	return nil
}

type oauthResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   expirySeconds `json:"expires_in"`
}

// FetchToken requests a new bearer token from the authorization server.
func (f *OAuthFetcher) FetchToken(ctx context.Context) (*Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.BaseURL+oauthPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(f.cfg.ClientID, f.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token request rejected: status %d: %s", resp.StatusCode, body)
	}

	var payload oauthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &Credential{
		AccessToken: payload.AccessToken,
		ExpiresIn:   int64(payload.ExpiresIn),
	}, nil
}

var _ TokenFetcher = (*OAuthFetcher)(nil)
