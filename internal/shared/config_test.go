package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Run("ParsesDurationStrings", func(t *testing.T) {
		cases := map[string]time.Duration{
			"5s":    5 * time.Second,
			"10m":   10 * time.Minute,
			"1h":    time.Hour,
			"96h":   96 * time.Hour,
			"1h30m": 90 * time.Minute,
		}

		for text, want := range cases {
			var d Duration
			if err := d.UnmarshalText([]byte(text)); err != nil {
				t.Fatalf("failed to parse %q: %v", text, err)
			}
			if d.Std() != want {
				t.Errorf("expected %q to parse as %v, got %v", text, want, d.Std())
			}
		}
	})

	t.Run("RejectsInvalidInput", func(t *testing.T) {
		var d Duration
		if err := d.UnmarshalText([]byte("five minutes")); err == nil {
			t.Fatal("expected error for invalid duration")
		}
	})
}

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Search.CallSpacing.Std() != 5*time.Second {
			t.Errorf("expected 5s call spacing, got %v", config.Search.CallSpacing.Std())
		}
		if config.Search.SimilarityThreshold != 0.8 {
			t.Errorf("expected similarity threshold 0.8, got %f", config.Search.SimilarityThreshold)
		}
		if config.Search.MaxAttempts != 1 {
			t.Errorf("expected 1 max attempt, got %d", config.Search.MaxAttempts)
		}
		if config.Playlist.Window.Std() != 96*time.Hour {
			t.Errorf("expected 96h playlist window, got %v", config.Playlist.Window.Std())
		}
		if config.Playlist.DaypartStart != 6 || config.Playlist.DaypartEnd != 19 {
			t.Errorf("expected daypart 6..19, got %d..%d", config.Playlist.DaypartStart, config.Playlist.DaypartEnd)
		}
		if config.Playlist.MaxTracksAdd != 80 {
			t.Errorf("expected cap of 80 tracks per update, got %d", config.Playlist.MaxTracksAdd)
		}
		if config.Credentials.Spotify.Market != "NL" {
			t.Errorf("expected market NL, got %q", config.Credentials.Spotify.Market)
		}
		if config.Crawler.Timezone != "Europe/Amsterdam" {
			t.Errorf("expected timezone Europe/Amsterdam, got %q", config.Crawler.Timezone)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "my-client"
client_secret = "my-secret"
refresh_token = "my-refresh"

[database]
path = "radiolist.db"

[schedules]
crawl = "5m"
resolve = "10m"
analyse = "1h"
playlist = "10m"

[search]
call_spacing = "2s"
similarity_threshold = 0.9
max_attempts = 3
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "my-client" {
			t.Errorf("unexpected client id %q", config.Credentials.Spotify.ClientID)
		}
		if config.Schedules.Crawl.Std() != 5*time.Minute {
			t.Errorf("expected 5m crawl schedule, got %v", config.Schedules.Crawl.Std())
		}
		if config.Search.MaxAttempts != 3 {
			t.Errorf("expected 3 max attempts, got %d", config.Search.MaxAttempts)
		}
	})

	t.Run("LoadConfigMissingFile", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("LoadConfigInvalidTOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not [valid"), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		if _, err := LoadConfig(path); err == nil {
			t.Fatal("expected error for invalid TOML")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := LoadConfig(path); err != nil {
			t.Fatalf("created config file does not parse: %v", err)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Fatal("expected error when config file already exists")
		}
	})
}
