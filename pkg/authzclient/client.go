// Package authzclient mirrors a caller's effective permissions for UI
// decisions. The mirror is advisory: it hides or shows controls, while every
// protected operation is still authorized server-side. A tampered or stale
// mirror can change what a client displays, never what the server permits.
package authzclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/authz"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

// ErrUnavailable indicates the permission endpoint could not be reached or
// answered with a server error. Callers should keep the last known mirror
// rather than treating this as a denial.
var ErrUnavailable = errors.New("authzclient: permission service unavailable")

// ErrUnauthorized indicates the access token was rejected.
var ErrUnauthorized = errors.New("authzclient: unauthorized")

// Session is the locally mirrored permission state for one user.
type Session struct {
	UserID      int64     `json:"user_id"`
	Permissions []string  `json:"permissions"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Store persists sessions between process runs.
type Store interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// Client fetches and evaluates the permission mirror.
type Client struct {
	baseURL string
	http    *http.Client
	store   Store

	mu      sync.RWMutex
	session *Session
	granted domain.PermissionSet
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithStore attaches a persistent session store. The stored session, if any,
// is loaded immediately so cached grants survive restarts.
func WithStore(store Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// New builds a client for the given API base URL, e.g. "https://api.example.com".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("authzclient: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("authzclient: invalid base url: %w", err)
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store != nil {
		if session, err := c.store.Load(); err == nil && session != nil {
			c.setSession(session)
		}
	}

	return c, nil
}

type permissionsResponse struct {
	UserID      int64    `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// Refresh fetches the caller's permissions from the server and replaces the
// local mirror. On ErrUnavailable the previous mirror is kept.
func (c *Client) Refresh(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/me/permissions", nil)
	if err != nil {
		return fmt.Errorf("authzclient: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("authzclient: unexpected status %d", resp.StatusCode)
	}

	var payload permissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	session := &Session{
		UserID:      payload.UserID,
		Permissions: payload.Permissions,
		FetchedAt:   time.Now().UTC(),
	}
	c.setSession(session)

	if c.store != nil {
		if err := c.store.Save(session); err != nil {
			return fmt.Errorf("authzclient: persist session: %w", err)
		}
	}

	return nil
}

// Logout drops the mirror and clears the persistent store.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.session = nil
	c.granted = nil
	c.mu.Unlock()
	if c.store != nil {
		return c.store.Clear()
	}
	return nil
}

// Session returns the current mirror, or nil when none is loaded.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Can reports whether the mirror grants the permission. With no mirror loaded
// only empty requirements pass.
func (c *Client) Can(required string) bool {
	return authz.Can(c.grants(), required)
}

// Cannot is the inverse of Can, for hiding controls the user lacks.
func (c *Client) Cannot(required string) bool {
	return !c.Can(required)
}

// CanAny reports whether the mirror grants at least one listed permission.
func (c *Client) CanAny(required ...string) bool {
	return authz.CanAny(c.grants(), required...)
}

// CanAll reports whether the mirror grants every listed permission.
func (c *Client) CanAll(required ...string) bool {
	return authz.CanAll(c.grants(), required...)
}

func (c *Client) grants() domain.PermissionSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.granted
}

func (c *Client) setSession(session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
	c.granted = domain.NewPermissionSet(session.Permissions...)
}
