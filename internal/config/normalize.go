package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTwitch()
	c.normalizeIGDB()
	c.normalizeSheets()
	c.normalizeRunner()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTwitch() {
	if c.Twitch.ClientID == "" {
		if value, ok := os.LookupEnv("TWITCH_CLIENT_ID"); ok {
			c.Twitch.ClientID = value
		}
	}
	if c.Twitch.ClientSecret == "" {
		if value, ok := os.LookupEnv("TWITCH_CLIENT_SECRET"); ok {
			c.Twitch.ClientSecret = value
		}
	}
	c.Twitch.TokenURL = strings.TrimSpace(c.Twitch.TokenURL)
	if c.Twitch.TokenURL == "" {
		c.Twitch.TokenURL = defaultTwitchTokenURL
	}
	c.Twitch.TokenURL = strings.TrimRight(c.Twitch.TokenURL, "/")
}

func (c *Config) normalizeIGDB() {
	c.IGDB.BaseURL = strings.TrimSpace(c.IGDB.BaseURL)
	if c.IGDB.BaseURL == "" {
		c.IGDB.BaseURL = defaultIGDBBaseURL
	}
	c.IGDB.BaseURL = strings.TrimRight(c.IGDB.BaseURL, "/")
	if c.IGDB.TimeoutSeconds <= 0 {
		c.IGDB.TimeoutSeconds = defaultIGDBTimeout
	}
	if c.IGDB.PageSize > c.IGDB.MaxCandidates && c.IGDB.MaxCandidates > 0 {
		c.IGDB.PageSize = c.IGDB.MaxCandidates
	}
}

func (c *Config) normalizeSheets() {
	if c.Sheets.AccessToken == "" {
		if value, ok := os.LookupEnv("SHEETS_ACCESS_TOKEN"); ok {
			c.Sheets.AccessToken = value
		}
	}
	c.Sheets.BaseURL = strings.TrimSpace(c.Sheets.BaseURL)
	if c.Sheets.BaseURL == "" {
		c.Sheets.BaseURL = defaultSheetsBaseURL
	}
	c.Sheets.BaseURL = strings.TrimRight(c.Sheets.BaseURL, "/")
	c.Sheets.TitleColumn = strings.ToUpper(strings.TrimSpace(c.Sheets.TitleColumn))
	if c.Sheets.TitleColumn == "" {
		c.Sheets.TitleColumn = defaultTitleColumn
	}
	c.Sheets.OutputColumn = strings.ToUpper(strings.TrimSpace(c.Sheets.OutputColumn))
	if c.Sheets.OutputColumn == "" {
		c.Sheets.OutputColumn = defaultOutputColumn
	}
	if c.Sheets.TimeoutSeconds <= 0 {
		c.Sheets.TimeoutSeconds = defaultSheetsTimeout
	}
}

func (c *Config) normalizeRunner() {
	if c.Runner.RetryDelaySeconds <= 0 {
		c.Runner.RetryDelaySeconds = defaultRetryDelaySeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
