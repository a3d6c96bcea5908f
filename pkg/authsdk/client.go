package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

// SDKClient is a client for the clubhouse authentication service. It owns a
// cookie jar, so a single client represents a single signed-in identity.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	mu   sync.RWMutex
	csrf string
}

// NewSDKClient creates a client with its own cookie jar.
func NewSDKClient(baseURL string) (*SDKClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}, nil
}

func (c *SDKClient) csrfToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrf
}

// SetCSRFToken overrides the token sent on mutating requests. An empty value
// stops the header from being sent.
func (c *SDKClient) SetCSRFToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrf = token
}

// Session returns a handle for the session-scoped endpoints. It is only
// useful after Login or LoginTOTP established a session.
func (c *SDKClient) Session() *Session {
	return &Session{client: c}
}

// Session groups the endpoints that need the session cookie.
type Session struct {
	client *SDKClient
}

// Current returns the signed-in identity and its effective permissions.
func (s *Session) Current(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := s.client.call(ctx, http.MethodGet, "/v1/auth/session", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout destroys the session and forgets the CSRF token.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.client.call(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, http.StatusOK); err != nil {
		return err
	}
	s.client.SetCSRFToken("")
	return nil
}
