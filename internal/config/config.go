package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Twitch contains client credentials for the Twitch OAuth token endpoint that
// gates the IGDB API.
type Twitch struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
}

// IGDB contains configuration for the IGDB game catalog API.
type IGDB struct {
	BaseURL           string  `toml:"base_url"`
	MaxCandidates     int     `toml:"max_candidates"`
	PageSize          int     `toml:"page_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Matcher contains the tunable scoring thresholds for title resolution.
type Matcher struct {
	// HighConfidence is the minimum score for an automatic match when the
	// margin over the runner-up also clears Separation.
	HighConfidence float64 `toml:"high_confidence_threshold"`
	// LowConfidence is the floor below which the best candidate is treated
	// as no match at all.
	LowConfidence float64 `toml:"low_confidence_threshold"`
	// Separation is the minimum score margin between the best and second
	// best candidate for an automatic match.
	Separation float64 `toml:"separation_threshold"`
	// MaxAmbiguous caps how many candidate names an ambiguous outcome lists
	// in the sheet for manual follow-up.
	MaxAmbiguous int `toml:"max_ambiguous_candidates"`
}

// Sheets contains configuration for the spreadsheet backend.
type Sheets struct {
	BaseURL        string `toml:"base_url"`
	AccessToken    string `toml:"access_token"`
	TitleColumn    string `toml:"title_column"`
	OutputColumn   string `toml:"output_column"`
	HeaderRows     int    `toml:"header_rows"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Runner contains per-row retry policy for the reconciliation engine.
type Runner struct {
	MaxRetries        int `toml:"max_retries"`
	RetryDelaySeconds int `toml:"retry_delay_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for gamesheet.
//
// Configuration sections by subsystem:
//   - Paths: state database and log directories
//   - Twitch: client credentials for the catalog token exchange
//   - IGDB: catalog endpoint, pagination, and rate limits
//   - Matcher: title resolution thresholds
//   - Sheets: spreadsheet backend endpoint and column layout
//   - Runner: per-row retry policy
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Twitch  Twitch  `toml:"twitch"`
	IGDB    IGDB    `toml:"igdb"`
	Matcher Matcher `toml:"matcher"`
	Sheets  Sheets  `toml:"sheets"`
	Runner  Runner  `toml:"runner"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gamesheet/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gamesheet.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Validate checks structural configuration invariants. Credential presence is
// checked separately by RequireCredentials so read-only commands work without
// secrets.
func (c *Config) Validate() error {
	if c.Matcher.HighConfidence < 0 || c.Matcher.HighConfidence > 1 {
		return fmt.Errorf("matcher.high_confidence_threshold: %v outside [0,1]", c.Matcher.HighConfidence)
	}
	if c.Matcher.LowConfidence < 0 || c.Matcher.LowConfidence > 1 {
		return fmt.Errorf("matcher.low_confidence_threshold: %v outside [0,1]", c.Matcher.LowConfidence)
	}
	if c.Matcher.LowConfidence > c.Matcher.HighConfidence {
		return fmt.Errorf("matcher.low_confidence_threshold %v exceeds high_confidence_threshold %v",
			c.Matcher.LowConfidence, c.Matcher.HighConfidence)
	}
	if c.Matcher.Separation < 0 {
		return fmt.Errorf("matcher.separation_threshold: %v is negative", c.Matcher.Separation)
	}
	if c.Matcher.MaxAmbiguous <= 0 {
		return fmt.Errorf("matcher.max_ambiguous_candidates: %d must be positive", c.Matcher.MaxAmbiguous)
	}
	if c.IGDB.MaxCandidates <= 0 {
		return fmt.Errorf("igdb.max_candidates: %d must be positive", c.IGDB.MaxCandidates)
	}
	if c.IGDB.PageSize <= 0 || c.IGDB.PageSize > 500 {
		return fmt.Errorf("igdb.page_size: %d outside 1..500", c.IGDB.PageSize)
	}
	if c.IGDB.RequestsPerSecond <= 0 {
		return fmt.Errorf("igdb.requests_per_second: %v must be positive", c.IGDB.RequestsPerSecond)
	}
	if !isColumnRef(c.Sheets.TitleColumn) {
		return fmt.Errorf("sheets.title_column: %q is not a column reference", c.Sheets.TitleColumn)
	}
	if !isColumnRef(c.Sheets.OutputColumn) {
		return fmt.Errorf("sheets.output_column: %q is not a column reference", c.Sheets.OutputColumn)
	}
	if c.Sheets.HeaderRows < 0 {
		return fmt.Errorf("sheets.header_rows: %d is negative", c.Sheets.HeaderRows)
	}
	if c.Runner.MaxRetries < 0 {
		return fmt.Errorf("runner.max_retries: %d is negative", c.Runner.MaxRetries)
	}
	return nil
}

// RequireCredentials verifies the secrets a reconciliation run needs.
func (c *Config) RequireCredentials() error {
	if strings.TrimSpace(c.Twitch.ClientID) == "" {
		return errors.New("twitch.client_id is required (or set TWITCH_CLIENT_ID)")
	}
	if strings.TrimSpace(c.Twitch.ClientSecret) == "" {
		return errors.New("twitch.client_secret is required (or set TWITCH_CLIENT_SECRET)")
	}
	if strings.TrimSpace(c.Sheets.AccessToken) == "" {
		return errors.New("sheets.access_token is required (or set SHEETS_ACCESS_TOKEN)")
	}
	return nil
}

// EnsureDirectories creates the directories required for a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func isColumnRef(value string) bool {
	if value == "" || len(value) > 2 {
		return false
	}
	for _, r := range value {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
