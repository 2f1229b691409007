package twitchauth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gamesheet/internal/config"
	"gamesheet/internal/services"
	"gamesheet/internal/twitchauth"
)

func testConfig(tokenURL string) *config.Config {
	cfg := config.Default()
	cfg.Twitch.ClientID = "client"
	cfg.Twitch.ClientSecret = "secret"
	cfg.Twitch.TokenURL = tokenURL
	return &cfg
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestNewManagerRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Twitch.ClientID = ""
	if _, err := twitchauth.NewManager(&cfg); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestTokenExchangesAndCaches(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Fatalf("unexpected grant type %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("client_id") != "client" || r.PostForm.Get("client_secret") != "secret" {
			t.Fatalf("unexpected credentials in form: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600,"token_type":"bearer"}`))
	}))
	t.Cleanup(server.Close)

	mgr, err := twitchauth.NewManager(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		token, err := mgr.Token(context.Background())
		if err != nil {
			t.Fatalf("Token returned error: %v", err)
		}
		if token != "tok-1" {
			t.Fatalf("unexpected token %q", token)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single exchange, got %d", calls.Load())
	}
}

func TestTokenRefreshesWhenExpired(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":60,"token_type":"bearer"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-2","expires_in":3600,"token_type":"bearer"}`))
	}))
	t.Cleanup(server.Close)

	current := time.Now()
	mgr, err := twitchauth.NewManager(testConfig(server.URL),
		twitchauth.WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	token, err := mgr.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("unexpected token %q", token)
	}

	// A 60 second lifetime is already inside the refresh skew after advancing.
	current = current.Add(2 * time.Minute)
	token, err = mgr.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if token != "tok-2" {
		t.Fatalf("expected refreshed token, got %q", token)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected two exchanges, got %d", calls.Load())
	}
}

func TestTokenFailsFastOnRejectedCredentials(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"invalid client"}`, http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	mgr, err := twitchauth.NewManager(testConfig(server.URL), twitchauth.WithSleep(noSleep))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	_, err = mgr.Token(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not retry, got %d calls", calls.Load())
	}
}

func TestTokenRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-3","expires_in":3600,"token_type":"bearer"}`))
	}))
	t.Cleanup(server.Close)

	mgr, err := twitchauth.NewManager(testConfig(server.URL), twitchauth.WithSleep(noSleep))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	token, err := mgr.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if token != "tok-3" {
		t.Fatalf("unexpected token %q", token)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected three attempts, got %d", calls.Load())
	}
}

func TestTokenExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	mgr, err := twitchauth.NewManager(testConfig(server.URL), twitchauth.WithSleep(noSleep))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	_, err = mgr.Token(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error after exhausted retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected three attempts, got %d", calls.Load())
	}
}

func TestInvalidateForcesExchange(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-` + string(rune('0'+n)) + `","expires_in":3600,"token_type":"bearer"}`))
	}))
	t.Cleanup(server.Close)

	mgr, err := twitchauth.NewManager(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	first, err := mgr.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	mgr.Invalidate()
	second, err := mgr.Token(context.Background())
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh token after invalidate, got %q twice", first)
	}
}
