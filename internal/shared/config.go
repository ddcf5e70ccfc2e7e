package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from config.toml.
const (
	EnvAPIURL              = "TRACKLIST_API_URL"
	EnvRapidAPIKey         = "TRACKLIST_RAPIDAPI_KEY"
	EnvSearchProvider      = "TRACKLIST_SEARCH_PROVIDER"
	EnvSpotifyClientID     = "TRACKLIST_SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "TRACKLIST_SPOTIFY_CLIENT_SECRET"
	EnvDatabasePath        = "TRACKLIST_DB_PATH"
	EnvLogLevel            = "TRACKLIST_LOG_LEVEL"
	EnvExportBucket        = "TRACKLIST_EXPORT_BUCKET"
)

// Search provider names.
const (
	ProviderRapidAPI = "rapidapi"
	ProviderSpotify  = "spotify"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Search   SearchConfig   `toml:"search"`
	Database DatabaseConfig `toml:"database"`
	Sandbox  SandboxConfig  `toml:"sandbox"`
	Export   ExportConfig   `toml:"export"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig points at the remote playlist API.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SearchConfig selects and configures the track-search provider.
type SearchConfig struct {
	Provider  string           `toml:"provider"`
	RateLimit float64          `toml:"rate_limit"` // requests per second, 0 disables pacing
	RapidAPI  RapidAPIConfig   `toml:"rapidapi"`
	Spotify   SpotifyAPIConfig `toml:"spotify"`
}

// RapidAPIConfig contains credentials for the RapidAPI Spotify proxy.
type RapidAPIConfig struct {
	BaseURL string `toml:"base_url"`
	Host    string `toml:"host"`
	APIKey  string `toml:"api_key"`
}

// SpotifyAPIConfig contains Spotify Web API client credentials.
type SpotifyAPIConfig struct {
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SandboxConfig contains settings for the local in-memory API server.
type SandboxConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ExportConfig contains defaults for bulk playlist exports.
//
// When Bucket is set, exported files are also uploaded to S3 under Prefix.
type ExportConfig struct {
	Format    string  `toml:"format"`
	OutputDir string  `toml:"output_dir"`
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
	Bucket    string  `toml:"bucket"`
	Region    string  `toml:"region"`
	Prefix    string  `toml:"prefix"`
}

// LogConfig controls logger verbosity and the TUI log file.
type LogConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

// Addr returns host:port for the sandbox server.
func (s SandboxConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	switch c.Search.Provider {
	case ProviderRapidAPI, ProviderSpotify, "":
	default:
		return fmt.Errorf("%w: unknown search provider %q", ErrInvalidConfig, c.Search.Provider)
	}
	if c.Search.RateLimit < 0 {
		return fmt.Errorf("%w: search.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Export.Bucket != "" && c.Export.Region == "" {
		return fmt.Errorf("%w: export.region is required when export.bucket is set", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
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

// LoadEnv loads variables from the given dotenv files into the process environment.
//
// Missing files are skipped; variables already set in the environment win.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with any TRACKLIST_* variables that are set.
func ApplyEnv(config *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvAPIURL, &config.API.BaseURL},
		{EnvRapidAPIKey, &config.Search.RapidAPI.APIKey},
		{EnvSearchProvider, &config.Search.Provider},
		{EnvSpotifyClientID, &config.Search.Spotify.ClientID},
		{EnvSpotifyClientSecret, &config.Search.Spotify.ClientSecret},
		{EnvDatabasePath, &config.Database.Path},
		{EnvLogLevel, &config.Log.Level},
		{EnvExportBucket, &config.Export.Bucket},
	}

	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
}
