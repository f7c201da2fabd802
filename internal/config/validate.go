package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSpotify(); err != nil {
		return err
	}
	if err := c.validateSorting(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSpotify() error {
	if c.Spotify.AccessToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/autolist/config.toml"
		}
		return fmt.Errorf("spotify.access_token is required. Set SPOTIFY_ACCESS_TOKEN env var or edit %s (create with 'autolist config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateSorting() error {
	switch c.Sorting.Match {
	case MatchPartial, MatchExact:
	default:
		return fmt.Errorf("sorting.match must be %q or %q", MatchPartial, MatchExact)
	}
	if c.Sorting.BatchSize > MaxBatchSize {
		return fmt.Errorf("sorting.batch_size must not exceed %d", MaxBatchSize)
	}
	return nil
}

func (c *Config) validateRules() error {
	seen := make(map[string]struct{}, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.Genre == "" {
			return fmt.Errorf("rules[%d].genre must be set", i)
		}
		if rule.PlaylistID == "" {
			return fmt.Errorf("rules[%d].playlist_id must be set (rule %q)", i, rule.Genre)
		}
		key := strings.ToLower(rule.Genre)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("rules contain duplicate genre %q", rule.Genre)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if strings.TrimSpace(c.Notifications.NtfyTopic) == "" {
		return nil
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
