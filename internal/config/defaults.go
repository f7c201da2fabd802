package config

const (
	defaultStateDir       = "~/.local/share/autolist"
	defaultLogDir         = "~/.local/share/autolist/logs"
	defaultSpotifyBaseURL = "https://api.spotify.com/v1"
	defaultRequestDelayMS = 100
	defaultTimeoutSeconds = 30
	defaultMatch          = MatchPartial
	defaultBatchSize      = 50
	defaultItemDelayMS    = 200
	defaultNtfyTimeout    = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Match kinds accepted by sorting.match.
const (
	MatchPartial = "partial"
	MatchExact   = "exact"
)

// MaxBatchSize is the upper bound the remote artists endpoint accepts per call.
const MaxBatchSize = 50

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Spotify: Spotify{
			BaseURL:        defaultSpotifyBaseURL,
			RequestDelayMS: defaultRequestDelayMS,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Sorting: Sorting{
			Match:       defaultMatch,
			BatchSize:   defaultBatchSize,
			ItemDelayMS: defaultItemDelayMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
