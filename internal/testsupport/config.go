package testsupport

import (
	"path/filepath"
	"testing"

	"autolist/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Spotify.AccessToken = "test-token"
	cfg.Spotify.RequestDelayMS = 1
	cfg.Sorting.ItemDelayMS = 0
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRules sets the sorting rules on the test config.
func WithRules(rules ...config.Rule) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Rules = rules
	}
}

// WithMatch overrides the match kind and case sensitivity.
func WithMatch(kind string, caseSensitive bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sorting.Match = kind
		cfg.Sorting.CaseSensitive = caseSensitive
	}
}

// WithBatchSize overrides the genre lookup batch size.
func WithBatchSize(size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sorting.BatchSize = size
	}
}
