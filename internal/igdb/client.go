package igdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gamesheet/internal/config"
	"gamesheet/internal/services"
	"gamesheet/internal/twitchauth"
)

const (
	// requestAttempts caps the number of tries per catalog call across 429
	// and 5xx responses.
	requestAttempts = 4
	initialBackoff  = time.Second
	maxBackoff      = 30 * time.Second
)

// Candidate is one catalog search result considered as a possible match for a
// title. Search returns candidates in the catalog's relevance order with
// genre/keyword IDs unresolved; Hydrate fills in the display fields.
type Candidate struct {
	ID            int64
	Name          string
	Summary       string
	Rating        float64
	GenreIDs      []int64
	KeywordIDs    []int64
	Genres        []string
	Keywords      []string
	StorefrontURL string
}

// Searcher defines the catalog search operation used by the matcher pipeline.
type Searcher interface {
	Search(ctx context.Context, title string) ([]Candidate, error)
}

// Hydrator resolves the genre/keyword names and storefront URL for a
// candidate. Kept separate from Search so only the winning candidate pays the
// extra catalog calls.
type Hydrator interface {
	Hydrate(ctx context.Context, candidate *Candidate) error
}

// Client provides access to the IGDB API.
type Client struct {
	clientID   string
	baseURL    string
	tokens     twitchauth.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	sleep      func(context.Context, time.Duration) error

	maxCandidates int
	pageSize      int

	cacheMu      sync.Mutex
	genreNames   map[int64]string
	keywordNames map[int64]string
}

var (
	_ Searcher = (*Client)(nil)
	_ Hydrator = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleep overrides the backoff sleep (used in tests).
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New creates an IGDB client. clientID must match the credentials behind the
// token source; IGDB requires both headers on every call.
func New(cfg *config.Config, clientID string, tokens twitchauth.TokenSource, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.New("igdb client id required")
	}
	if tokens == nil {
		return nil, errors.New("igdb token source required")
	}

	client := &Client{
		clientID:      clientID,
		baseURL:       strings.TrimRight(cfg.IGDB.BaseURL, "/"),
		tokens:        tokens,
		httpClient:    &http.Client{Timeout: time.Duration(cfg.IGDB.TimeoutSeconds) * time.Second},
		limiter:       rate.NewLimiter(rate.Limit(cfg.IGDB.RequestsPerSecond), 1),
		sleep:         sleepWithContext,
		maxCandidates: cfg.IGDB.MaxCandidates,
		pageSize:      cfg.IGDB.PageSize,
		genreNames:    make(map[int64]string),
		keywordNames:  make(map[int64]string),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type gameRecord struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Summary  string  `json:"summary"`
	Rating   float64 `json:"rating"`
	Genres   []int64 `json:"genres"`
	Keywords []int64 `json:"keywords"`
}

// Search queries the catalog for the supplied title, paging until the
// configured candidate ceiling or the end of results. Candidates are returned
// in the API's relevance order, which the matcher treats as a ranking signal.
func (c *Client) Search(ctx context.Context, title string) ([]Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "igdb", "search", "title must not be empty", nil)
	}

	var candidates []Candidate
	for offset := 0; offset < c.maxCandidates; offset += c.pageSize {
		limit := c.pageSize
		if remaining := c.maxCandidates - offset; remaining < limit {
			limit = remaining
		}

		var page []gameRecord
		if err := c.do(ctx, "/games", searchGamesQuery(title, limit, offset), &page); err != nil {
			return nil, err
		}
		for _, record := range page {
			candidates = append(candidates, Candidate{
				ID:         record.ID,
				Name:       record.Name,
				Summary:    record.Summary,
				Rating:     record.Rating,
				GenreIDs:   record.Genres,
				KeywordIDs: record.Keywords,
			})
		}
		if len(page) < limit {
			break
		}
	}
	return candidates, nil
}

// Hydrate resolves genre and keyword names (served from in-memory caches after
// the first lookup) and the Steam storefront URL for a candidate.
func (c *Client) Hydrate(ctx context.Context, candidate *Candidate) error {
	if candidate == nil || candidate.ID <= 0 {
		return services.Wrap(services.ErrValidation, "igdb", "hydrate", "candidate missing catalog id", nil)
	}

	genres, err := c.resolveNames(ctx, "/genres", c.genreNames, candidate.GenreIDs)
	if err != nil {
		return err
	}
	candidate.Genres = genres

	keywords, err := c.resolveNames(ctx, "/keywords", c.keywordNames, candidate.KeywordIDs)
	if err != nil {
		return err
	}
	candidate.Keywords = keywords

	var sites []struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, "/websites", storefrontQuery(candidate.ID), &sites); err != nil {
		return err
	}
	if len(sites) > 0 {
		candidate.StorefrontURL = sites[0].URL
	}
	return nil
}

func (c *Client) resolveNames(ctx context.Context, path string, cache map[int64]string, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	c.cacheMu.Lock()
	var missing []int64
	for _, id := range ids {
		if _, ok := cache[id]; !ok {
			missing = append(missing, id)
		}
	}
	c.cacheMu.Unlock()

	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		var records []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if err := c.do(ctx, path, namesByIDQuery(missing), &records); err != nil {
			return nil, err
		}
		c.cacheMu.Lock()
		for _, record := range records {
			cache[record.ID] = record.Name
		}
		c.cacheMu.Unlock()
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := cache[id]; ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// do posts an APICalypse query and decodes the JSON response, enforcing the
// rate limit and the retry policy: 429 and 5xx retry with exponential backoff
// (honoring Retry-After), 401 forces one token refresh and a single retry,
// other 4xx fail immediately.
func (c *Client) do(ctx context.Context, path, body string, out any) error {
	backoff := initialBackoff
	refreshed := false
	var lastErr error

	for attempt := 1; attempt <= requestAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader([]byte(body)))
		if err != nil {
			return fmt.Errorf("build catalog request: %w", err)
		}
		req.Header.Set("Client-ID", c.clientID)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				decodeErr := json.NewDecoder(resp.Body).Decode(out)
				resp.Body.Close()
				if decodeErr != nil {
					return services.Wrap(services.ErrCatalog, "igdb", "decode", "malformed catalog response", decodeErr)
				}
				return nil

			case resp.StatusCode == http.StatusUnauthorized:
				resp.Body.Close()
				if refreshed {
					return services.Wrap(services.ErrAuth, "igdb", "request", "token rejected after forced refresh", nil)
				}
				// One forced refresh and retry; it does not consume the
				// transient-failure budget.
				refreshed = true
				c.tokens.Invalidate()
				attempt--
				continue

			case resp.StatusCode == http.StatusTooManyRequests:
				delay := retryAfter(resp)
				resp.Body.Close()
				lastErr = errRateLimited
				if attempt == requestAttempts {
					continue
				}
				if delay <= 0 {
					delay = backoff
					backoff = nextBackoff(backoff)
				}
				if err := c.sleep(ctx, delay); err != nil {
					return err
				}
				continue

			case resp.StatusCode >= 500:
				resp.Body.Close()
				lastErr = fmt.Errorf("catalog answered %s", resp.Status)

			default:
				status := resp.Status
				resp.Body.Close()
				return services.Wrap(services.ErrCatalog, "igdb", "request",
					fmt.Sprintf("catalog answered %s", status), nil)
			}
		}

		if attempt == requestAttempts {
			break
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff)
	}

	if errors.Is(lastErr, errRateLimited) {
		return services.Wrap(services.ErrRateLimited, "igdb", path,
			fmt.Sprintf("retry budget exhausted after %d attempts", requestAttempts), nil)
	}
	return services.Wrap(services.ErrCatalog, "igdb", path,
		fmt.Sprintf("request failed after %d attempts", requestAttempts), lastErr)
}

var errRateLimited = errors.New("catalog answered 429")

func retryAfter(resp *http.Response) time.Duration {
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
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
