package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultAPIBase is used when neither the config file nor the environment names a backend.
const DefaultAPIBase = "http://localhost:8000"

// Environment variables consulted for the API base URL, in priority order.
var apiBaseEnv = []string{"COLORIZE_API_URL", "VITE_API_URL"}

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API    APIConfig    `toml:"api"`
	Batch  BatchConfig  `toml:"batch"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// APIConfig describes the colorize backend and client-side upload limits.
type APIConfig struct {
	BaseURL     string `toml:"base_url"`
	TimeoutMS   int    `toml:"timeout_ms"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// BatchConfig contains settings for sequential multi-file runs.
type BatchConfig struct {
	RateLimit float64 `toml:"rate_limit"`
	OutputDir string  `toml:"output_dir"`
}

// ServerConfig contains local preview server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the request deadline, defaulting to 120 seconds.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// MaxUploadBytes returns the client-side size limit, defaulting to 15 MB.
func (c APIConfig) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 15 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

// Addr returns the host:port the local server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.API.BaseURL = NormalizeBaseURL(config.API.BaseURL)
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

// Validate rejects values the client cannot work with.
func (c *Config) Validate() error {
	if c.API.TimeoutMS < 0 {
		return fmt.Errorf("%w: api.timeout_ms must not be negative", ErrInvalidConfig)
	}
	if c.API.MaxUploadMB < 0 {
		return fmt.Errorf("%w: api.max_upload_mb must not be negative", ErrInvalidConfig)
	}
	if c.Batch.RateLimit < 0 {
		return fmt.Errorf("%w: batch.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv overrides the API base URL from the environment.
//
// lookup is usually [os.LookupEnv]; COLORIZE_API_URL wins over VITE_API_URL.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for _, key := range apiBaseEnv {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			c.API.BaseURL = NormalizeBaseURL(v)
			return
		}
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBase
	}
}

// NormalizeBaseURL trims whitespace and trailing slashes, falling back to [DefaultAPIBase].
func NormalizeBaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return DefaultAPIBase
	}
	return base
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
