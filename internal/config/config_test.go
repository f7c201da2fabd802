package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[spotify]
access_token = "token-123"
`)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be used, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Sorting.Match != MatchPartial {
		t.Fatalf("expected default match %q, got %q", MatchPartial, cfg.Sorting.Match)
	}
	if cfg.Sorting.BatchSize != 50 {
		t.Fatalf("expected default batch size 50, got %d", cfg.Sorting.BatchSize)
	}
	if cfg.Spotify.BaseURL != "https://api.spotify.com/v1" {
		t.Fatalf("unexpected base url %q", cfg.Spotify.BaseURL)
	}
}

func TestLoadPreservesRuleOrder(t *testing.T) {
	path := writeConfig(t, `
[spotify]
access_token = "token-123"

[[rules]]
genre = "rock"
playlist_id = "plA"

[[rules]]
genre = "indie rock"
playlist_id = "plB"
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Rules) != 2 {
		t.Fatalf("expected two rules, got %d", len(cfg.Rules))
	}
	if cfg.Rules[0].Genre != "rock" || cfg.Rules[1].Genre != "indie rock" {
		t.Fatalf("rule order not preserved: %#v", cfg.Rules)
	}
}

func TestLoadRequiresAccessToken(t *testing.T) {
	t.Setenv("SPOTIFY_ACCESS_TOKEN", "")
	path := writeConfig(t, `
[sorting]
match = "partial"
`)

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error when access token missing")
	}
	if !strings.Contains(err.Error(), "spotify.access_token") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadTokenEnvFallback(t *testing.T) {
	t.Setenv("SPOTIFY_ACCESS_TOKEN", "env-token")
	path := writeConfig(t, "")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Spotify.AccessToken != "env-token" {
		t.Fatalf("expected env token, got %q", cfg.Spotify.AccessToken)
	}
}

func TestLoadRejectsInvalidMatch(t *testing.T) {
	path := writeConfig(t, `
[spotify]
access_token = "token-123"

[sorting]
match = "fuzzy"
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid match kind")
	}
}

func TestLoadRejectsDuplicateRules(t *testing.T) {
	path := writeConfig(t, `
[spotify]
access_token = "token-123"

[[rules]]
genre = "Jazz"
playlist_id = "plA"

[[rules]]
genre = "jazz"
playlist_id = "plB"
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate rule genres")
	}
}

func TestLoadRejectsOversizedBatch(t *testing.T) {
	path := writeConfig(t, `
[spotify]
access_token = "token-123"

[sorting]
batch_size = 100
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for batch size over limit")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("SPOTIFY_ACCESS_TOKEN", "env-token")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}
