package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Duration wraps [time.Duration] so interval settings can be written as
// strings ("5m", "1h") in the TOML file.
type Duration time.Duration

// UnmarshalText implements [encoding.TextUnmarshaler] for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped [time.Duration].
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Schedules   SchedulesConfig   `toml:"schedules"`
	Search      SearchConfig      `toml:"search"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Crawler     CrawlerConfig     `toml:"crawler"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and client settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	Market       string `toml:"market"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SchedulesConfig contains the firing interval of each background job.
type SchedulesConfig struct {
	Crawl    Duration `toml:"crawl"`
	Resolve  Duration `toml:"resolve"`
	Analyse  Duration `toml:"analyse"`
	Playlist Duration `toml:"playlist"`
}

// SearchConfig tunes track resolution against the Spotify search endpoint.
type SearchConfig struct {
	CallSpacing         Duration `toml:"call_spacing"`
	SimilarityThreshold float64  `toml:"similarity_threshold"`
	MaxAttempts         int      `toml:"max_attempts"`
}

// PlaylistConfig tunes the playlist synchronizer.
type PlaylistConfig struct {
	Window        Duration `toml:"window"`
	DaypartStart  int      `toml:"daypart_start"`
	DaypartEnd    int      `toml:"daypart_end"`
	MaxTracksAdd  int      `toml:"max_tracks_per_update"`
	PageSize      int      `toml:"page_size"`
	OffsetCeiling int      `toml:"offset_ceiling"`
	Timezone      string   `toml:"timezone"`
}

// CrawlerConfig tunes the station crawler.
type CrawlerConfig struct {
	Timezone string `toml:"timezone"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
