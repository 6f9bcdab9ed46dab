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

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Cache    CacheConfig    `toml:"cache"`
	Auth     AuthConfig     `toml:"auth"`
	Stats    StatsConfig    `toml:"stats"`
}

// DatabaseConfig contains database connection settings for the gateway server.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
//
// AuthMode is either "header" (trusted identity headers, optionally gated by APIKey) or "oauth"
// (bearer tokens validated against [AuthConfig.UserInfoURL]).
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	AuthMode string `toml:"auth_mode"`
	APIKey   string `toml:"api_key"`
}

// GatewayConfig contains the client's view of the remote data gateway.
type GatewayConfig struct {
	URL            string  `toml:"url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
	APIKey         string  `toml:"api_key"`
}

// CacheConfig contains local cache store settings.
type CacheConfig struct {
	Path string `toml:"path"`
}

// AuthConfig contains OAuth2 identity provider settings.
type AuthConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	AuthURL      string   `toml:"auth_url"`
	TokenURL     string   `toml:"token_url"`
	UserInfoURL  string   `toml:"userinfo_url"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// StatsConfig contains study statistics settings. Pomodoro lengths are whole minutes.
type StatsConfig struct {
	Timezone        string `toml:"timezone"`
	PomodoroMinutes int    `toml:"pomodoro_minutes"`
	BreakMinutes    int    `toml:"break_minutes"`
}

// Timeout returns the per-request gateway timeout, defaulting to ten seconds.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Location resolves the configured timezone used for calendar-day comparisons.
func (s StatsConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, s.Timezone, err)
	}
	return loc, nil
}

// Pomodoro returns the configured focus and break lengths. Focus defaults to 25 minutes; a negative break is 0.
func (s StatsConfig) Pomodoro() (focus, rest int) {
	focus, rest = s.PomodoroMinutes, s.BreakMinutes
	if focus <= 0 {
		focus = 25
	}
	if rest < 0 {
		rest = 0
	}
	return focus, rest
}

// Configured reports whether enough OAuth2 settings are present to run an authorization code flow.
func (a AuthConfig) Configured() bool {
	return a.ClientID != "" && a.AuthURL != "" && a.TokenURL != "" && a.UserInfoURL != ""
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

// LoadConfigOrDefault loads the config at path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
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
