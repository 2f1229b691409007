package igdb_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gamesheet/internal/config"
	"gamesheet/internal/igdb"
	"gamesheet/internal/services"
)

type staticTokens struct {
	mu          sync.Mutex
	token       string
	invalidated int
}

func (s *staticTokens) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated > 0 {
		return fmt.Sprintf("%s-refreshed-%d", s.token, s.invalidated), nil
	}
	return s.token, nil
}

func (s *staticTokens) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated++
}

func (s *staticTokens) invalidations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

func newTestClient(t *testing.T, baseURL string) (*igdb.Client, *staticTokens) {
	t.Helper()
	cfg := config.Default()
	cfg.IGDB.BaseURL = baseURL
	cfg.IGDB.RequestsPerSecond = 1000
	tokens := &staticTokens{token: "token"}
	client, err := igdb.New(&cfg, "client-id", tokens,
		igdb.WithSleep(func(context.Context, time.Duration) error { return nil }))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client, tokens
}

func gamesPayload(count, startID int) string {
	records := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, map[string]any{
			"id":   startID + i,
			"name": fmt.Sprintf("Game %d", startID+i),
		})
	}
	payload, _ := json.Marshal(records)
	return string(payload)
}

func TestNewRequiresClientID(t *testing.T) {
	cfg := config.Default()
	if _, err := igdb.New(&cfg, "  ", &staticTokens{token: "token"}); err == nil {
		t.Fatal("expected error when client id missing")
	}
}

func TestSearchEmptyTitle(t *testing.T) {
	client, _ := newTestClient(t, "https://example.com")
	if _, err := client.Search(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchPagesUntilShortPage(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-ID") != "client-id" {
			t.Fatalf("missing Client-ID header, got %q", r.Header.Get("Client-ID"))
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		requests++
		w.Header().Set("Content-Type", "application/json")
		switch requests {
		case 1:
			_, _ = w.Write([]byte(gamesPayload(25, 1)))
		default:
			_, _ = w.Write([]byte(gamesPayload(5, 26)))
		}
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	candidates, err := client.Search(context.Background(), "Chrono Trigger")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected search to stop after the short page, made %d requests", requests)
	}
	if len(candidates) != 30 {
		t.Fatalf("expected 30 candidates across pages, got %d", len(candidates))
	}
	if candidates[0].Name != "Game 1" || candidates[29].Name != "Game 30" {
		t.Fatalf("candidates out of order: first=%q last=%q", candidates[0].Name, candidates[29].Name)
	}
}

func TestSearchStopsAtCandidateCeiling(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(gamesPayload(25, (requests-1)*25+1)))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	candidates, err := client.Search(context.Background(), "Zelda")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected 2 full pages up to the ceiling, made %d requests", requests)
	}
	if len(candidates) != 50 {
		t.Fatalf("expected candidate ceiling of 50, got %d", len(candidates))
	}
}

func TestSearchRetriesRateLimitThenSucceeds(t *testing.T) {
	var requests int
	var delays []time.Duration
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(gamesPayload(1, 1)))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.IGDB.BaseURL = server.URL
	cfg.IGDB.RequestsPerSecond = 1000
	client, err := igdb.New(&cfg, "client-id", &staticTokens{token: "token"},
		igdb.WithSleep(func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	candidates, err := client.Search(context.Background(), "Chrono Trigger")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if requests != 3 {
		t.Fatalf("expected success on third attempt, made %d requests", requests)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(delays) != 2 || delays[0] != 7*time.Second || delays[1] != 7*time.Second {
		t.Fatalf("expected Retry-After delays of 7s, got %v", delays)
	}
}

func TestSearchRateLimitBudgetExhausted(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	if _, err := client.Search(context.Background(), "Chrono Trigger"); !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if requests != 4 {
		t.Fatalf("expected retry budget of 4 attempts, made %d requests", requests)
	}
}

func TestSearchUnauthorizedRefreshesTokenOnce(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("Authorization") == "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(gamesPayload(1, 1)))
	}))
	t.Cleanup(server.Close)

	client, tokens := newTestClient(t, server.URL)
	candidates, err := client.Search(context.Background(), "Chrono Trigger")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected exactly one retry after refresh, made %d requests", requests)
	}
	if tokens.invalidations() != 1 {
		t.Fatalf("expected one token invalidation, got %d", tokens.invalidations())
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
}

func TestSearchUnauthorizedAfterRefreshFails(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, tokens := newTestClient(t, server.URL)
	if _, err := client.Search(context.Background(), "Chrono Trigger"); !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected exactly two attempts before giving up, made %d requests", requests)
	}
	if tokens.invalidations() != 1 {
		t.Fatalf("expected one token invalidation, got %d", tokens.invalidations())
	}
}

func TestSearchClientErrorFailsFast(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	if _, err := client.Search(context.Background(), "Chrono Trigger"); !errors.Is(err, services.ErrCatalog) {
		t.Fatalf("expected catalog error, got %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected no retries on 400, made %d requests", requests)
	}
}

func TestSearchRetriesServerError(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(gamesPayload(1, 1)))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	if _, err := client.Search(context.Background(), "Chrono Trigger"); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if requests != 2 {
		t.Fatalf("expected retry after 503, made %d requests", requests)
	}
}

func TestHydrateCachesLookupNames(t *testing.T) {
	var genreRequests, keywordRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/genres":
			genreRequests++
			_, _ = w.Write([]byte(`[{"id":12,"name":"Role-playing (RPG)"},{"id":31,"name":"Adventure"}]`))
		case "/keywords":
			keywordRequests++
			_, _ = w.Write([]byte(`[{"id":100,"name":"time travel"}]`))
		case "/websites":
			_, _ = w.Write([]byte(`[{"url":"https://store.steampowered.com/app/613830"}]`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	first := &igdb.Candidate{ID: 1, Name: "Chrono Trigger", GenreIDs: []int64{12, 31}, KeywordIDs: []int64{100}}
	if err := client.Hydrate(context.Background(), first); err != nil {
		t.Fatalf("Hydrate returned error: %v", err)
	}
	if len(first.Genres) != 2 || first.Genres[0] != "Role-playing (RPG)" {
		t.Fatalf("unexpected genres: %v", first.Genres)
	}
	if len(first.Keywords) != 1 || first.Keywords[0] != "time travel" {
		t.Fatalf("unexpected keywords: %v", first.Keywords)
	}
	if first.StorefrontURL != "https://store.steampowered.com/app/613830" {
		t.Fatalf("unexpected storefront url %q", first.StorefrontURL)
	}

	second := &igdb.Candidate{ID: 2, Name: "Chrono Cross", GenreIDs: []int64{12}, KeywordIDs: []int64{100}}
	if err := client.Hydrate(context.Background(), second); err != nil {
		t.Fatalf("Hydrate returned error: %v", err)
	}
	if genreRequests != 1 || keywordRequests != 1 {
		t.Fatalf("expected cached lookups on second hydrate, got genres=%d keywords=%d", genreRequests, keywordRequests)
	}
	if len(second.Genres) != 1 || second.Genres[0] != "Role-playing (RPG)" {
		t.Fatalf("unexpected genres from cache: %v", second.Genres)
	}
}

func TestHydrateRequiresCandidateID(t *testing.T) {
	client, _ := newTestClient(t, "https://example.com")
	if err := client.Hydrate(context.Background(), &igdb.Candidate{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
