package twitchauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"gamesheet/internal/config"
	"gamesheet/internal/services"
)

const (
	// tokenExpirySkew refreshes slightly ahead of expiry so an in-flight
	// catalog call never carries a token that lapses mid-request.
	tokenExpirySkew = 5 * time.Minute
	maxAttempts     = 3
	initialBackoff  = 500 * time.Millisecond
	defaultTimeout  = 10 * time.Second
)

// HTTPDoer abstracts the HTTP client for tests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// TokenSource supplies bearer tokens for catalog calls and supports a forced
// refresh when the catalog rejects a token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Option customises Manager construction.
type Option func(*Manager)

// WithHTTPClient overrides the HTTP client used for the token exchange.
func WithHTTPClient(client HTTPDoer) Option {
	return func(m *Manager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSleep overrides the backoff sleep (used in tests).
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// Manager performs the Twitch client-credentials exchange and caches the
// resulting bearer token in memory until it nears expiry. Exactly one live
// token is held at a time; the client secret itself is never persisted here.
type Manager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   HTTPDoer
	now          func() time.Time
	sleep        func(context.Context, time.Duration) error

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

var _ TokenSource = (*Manager)(nil)

// NewManager builds a Manager from configuration.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	clientID := strings.TrimSpace(cfg.Twitch.ClientID)
	clientSecret := strings.TrimSpace(cfg.Twitch.ClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, services.Wrap(services.ErrConfiguration, "twitchauth", "new", "client credentials missing", nil)
	}
	tokenURL := strings.TrimSpace(cfg.Twitch.TokenURL)
	if tokenURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "twitchauth", "new", "token url missing", nil)
	}

	mgr := &Manager{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		now:          time.Now,
		sleep:        sleepWithContext,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr, nil
}

// ClientID returns the configured Twitch client identifier, which IGDB
// requires alongside the bearer token.
func (m *Manager) ClientID() string {
	return m.clientID
}

// Token returns a current bearer token, performing the credential exchange
// when no valid cached token exists.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt.Add(-tokenExpirySkew)) {
		return m.token, nil
	}
	return m.refreshLocked(ctx)
}

// Invalidate discards the cached token so the next Token call performs a
// fresh exchange. Used after the catalog answers 401.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (m *Manager) refreshLocked(ctx context.Context) (string, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := m.sleep(ctx, backoff); err != nil {
				return "", err
			}
			backoff *= 2
		}

		token, expiresAt, err := m.exchange(ctx)
		if err == nil {
			m.token = token
			m.expiresAt = expiresAt
			return token, nil
		}
		if errors.Is(err, services.ErrAuth) || errors.Is(err, context.Canceled) {
			return "", err
		}
		lastErr = err
	}
	return "", services.Wrap(services.ErrAuth, "twitchauth", "exchange",
		fmt.Sprintf("token provider unreachable after %d attempts", maxAttempts), lastErr)
}

func (m *Manager) exchange(ctx context.Context) (string, time.Time, error) {
	form := url.Values{}
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("execute token request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to decode
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", time.Time{}, services.Wrap(services.ErrAuth, "twitchauth", "exchange",
			fmt.Sprintf("credentials rejected (%s): %s", resp.Status, strings.TrimSpace(string(body))), nil)
	default:
		return "", time.Time{}, fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", time.Time{}, errors.New("token response missing access_token")
	}
	expiresAt := m.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return payload.AccessToken, expiresAt, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
