package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"gamesheet/internal/config"
	"gamesheet/internal/services"
)

// Client implements Adapter against the Google Sheets v4 REST API using a
// caller-supplied bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Adapter = (*Client)(nil)

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

// NewClient creates a sheet client from configuration. The access token must
// already be present; token acquisition for the spreadsheet backend is the
// operator's concern.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	token := strings.TrimSpace(cfg.Sheets.AccessToken)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "sheets", "new", "sheet access token required", nil)
	}

	client := &Client{
		baseURL:    strings.TrimRight(cfg.Sheets.BaseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Sheets.TimeoutSeconds) * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) ReadColumn(ctx context.Context, sheetID, column string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s?majorDimension=COLUMNS",
		c.baseURL, url.PathEscape(sheetID), url.PathEscape(column+":"+column))

	var payload struct {
		Values [][]string `json:"values"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload, "read"); err != nil {
		return nil, err
	}
	if len(payload.Values) == 0 {
		return nil, nil
	}
	return payload.Values[0], nil
}

func (c *Client) WriteCells(ctx context.Context, sheetID string, row int64, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	if row < 1 {
		return services.Wrap(services.ErrValidation, "sheets", "write", fmt.Sprintf("row %d out of range", row), nil)
	}

	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	type valueRange struct {
		Range  string     `json:"range"`
		Values [][]string `json:"values"`
	}
	body := struct {
		ValueInputOption string       `json:"valueInputOption"`
		Data             []valueRange `json:"data"`
	}{ValueInputOption: "RAW"}
	for _, column := range columns {
		body.Data = append(body.Data, valueRange{
			Range:  fmt.Sprintf("%s%d", column, row),
			Values: [][]string{{values[column]}},
		})
	}

	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values:batchUpdate", c.baseURL, url.PathEscape(sheetID))
	return c.do(ctx, http.MethodPost, endpoint, body, nil, "write")
}

func (c *Client) Preflight(ctx context.Context, sheetID string) error {
	if strings.TrimSpace(sheetID) == "" {
		return services.Wrap(services.ErrValidation, "sheets", "preflight", "sheet id required", nil)
	}
	endpoint := fmt.Sprintf("%s/spreadsheets/%s?fields=spreadsheetId", c.baseURL, url.PathEscape(sheetID))
	return c.do(ctx, http.MethodGet, endpoint, nil, nil, "preflight")
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any, operation string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode sheet request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build sheet request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrSheetWrite, "sheets", operation, "sheet backend unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return services.Wrap(services.ErrSheetWrite, "sheets", operation, "malformed sheet response", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrAuth, "sheets", operation,
			fmt.Sprintf("sheet backend answered %s", resp.Status), nil)
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrValidation, "sheets", operation, "sheet not found", nil)
	default:
		return services.Wrap(services.ErrSheetWrite, "sheets", operation,
			fmt.Sprintf("sheet backend answered %s", resp.Status), nil)
	}
}
