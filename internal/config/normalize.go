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
	c.normalizeSpotify()
	c.normalizeSorting()
	c.normalizeRules()
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

func (c *Config) normalizeSpotify() {
	if c.Spotify.AccessToken == "" {
		if value, ok := os.LookupEnv("SPOTIFY_ACCESS_TOKEN"); ok {
			c.Spotify.AccessToken = value
		}
	}
	c.Spotify.AccessToken = strings.TrimSpace(c.Spotify.AccessToken)
	c.Spotify.BaseURL = strings.TrimRight(strings.TrimSpace(c.Spotify.BaseURL), "/")
	if c.Spotify.BaseURL == "" {
		c.Spotify.BaseURL = defaultSpotifyBaseURL
	}
	if c.Spotify.RequestDelayMS <= 0 {
		c.Spotify.RequestDelayMS = defaultRequestDelayMS
	}
	if c.Spotify.TimeoutSeconds <= 0 {
		c.Spotify.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeSorting() {
	c.Sorting.Match = strings.ToLower(strings.TrimSpace(c.Sorting.Match))
	if c.Sorting.Match == "" {
		c.Sorting.Match = defaultMatch
	}
	if c.Sorting.BatchSize <= 0 {
		c.Sorting.BatchSize = defaultBatchSize
	}
	if c.Sorting.ItemDelayMS < 0 {
		c.Sorting.ItemDelayMS = defaultItemDelayMS
	}
}

func (c *Config) normalizeRules() {
	for i := range c.Rules {
		c.Rules[i].Genre = strings.TrimSpace(c.Rules[i].Genre)
		c.Rules[i].PlaylistID = strings.TrimSpace(c.Rules[i].PlaylistID)
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
