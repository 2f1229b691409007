package config

const (
	defaultStateDir          = "~/.local/share/gamesheet"
	defaultLogDir            = "~/.local/share/gamesheet/logs"
	defaultTwitchTokenURL    = "https://id.twitch.tv/oauth2/token"
	defaultIGDBBaseURL       = "https://api.igdb.com/v4"
	defaultIGDBMaxCandidates = 50
	defaultIGDBPageSize      = 25
	defaultIGDBTimeout       = 15
	// IGDB enforces four requests per second per client.
	defaultIGDBRequestsPerSecond = 4.0
	defaultHighConfidence        = 0.90
	defaultLowConfidence         = 0.55
	defaultSeparation            = 0.10
	defaultMaxAmbiguous          = 5
	defaultSheetsBaseURL         = "https://sheets.googleapis.com/v4"
	defaultTitleColumn           = "A"
	defaultOutputColumn          = "B"
	defaultSheetsTimeout         = 30
	defaultMaxRetries            = 3
	defaultRetryDelaySeconds     = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Twitch: Twitch{
			TokenURL: defaultTwitchTokenURL,
		},
		IGDB: IGDB{
			BaseURL:           defaultIGDBBaseURL,
			MaxCandidates:     defaultIGDBMaxCandidates,
			PageSize:          defaultIGDBPageSize,
			RequestsPerSecond: defaultIGDBRequestsPerSecond,
			TimeoutSeconds:    defaultIGDBTimeout,
		},
		Matcher: Matcher{
			HighConfidence: defaultHighConfidence,
			LowConfidence:  defaultLowConfidence,
			Separation:     defaultSeparation,
			MaxAmbiguous:   defaultMaxAmbiguous,
		},
		Sheets: Sheets{
			BaseURL:        defaultSheetsBaseURL,
			TitleColumn:    defaultTitleColumn,
			OutputColumn:   defaultOutputColumn,
			TimeoutSeconds: defaultSheetsTimeout,
		},
		Runner: Runner{
			MaxRetries:        defaultMaxRetries,
			RetryDelaySeconds: defaultRetryDelaySeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
