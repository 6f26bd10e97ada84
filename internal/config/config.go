package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the location of the YAML config file.
const PathEnvVar = "BOOKREC_CONFIG"

// DefaultPath is read when present and PathEnvVar is unset.
const DefaultPath = "bookrec.yaml"

// Config holds the configuration for the recommendation service
type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Server    ServerConfig    `koanf:"server"`
	Fetch     FetchConfig     `koanf:"fetch"`
	Log       LogConfig       `koanf:"log"`
}

// CatalogConfig says where the book table comes from. When URL is set the
// table is downloaded and mirrored under MirrorDir; otherwise Path is read.
type CatalogConfig struct {
	Path          string        `koanf:"path" validate:"required_without=URL"`
	URL           string        `koanf:"url" validate:"omitempty,url"`
	MirrorDir     string        `koanf:"mirror_dir"`
	Watch         bool          `koanf:"watch"`
	WatchDebounce time.Duration `koanf:"watch_debounce" validate:"gte=0"`
}

// RecommendConfig holds result sizes and display limits.
type RecommendConfig struct {
	MaxResults      int           `koanf:"max_results" validate:"min=1,max=1000"`
	SimilarLimit    int           `koanf:"similar_limit" validate:"min=1,ltefield=MaxResults"`
	SnippetLength   int           `koanf:"snippet_length" validate:"gte=0"`
	GenreSnippet    int           `koanf:"genre_snippet" validate:"gte=0"`
	InsightsTop     int           `koanf:"insights_top" validate:"min=1"`
	SessionIdleTime time.Duration `koanf:"session_idle_time" validate:"gte=0"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimit       int           `koanf:"rate_limit" validate:"gte=0"`
	RateWindow      time.Duration `koanf:"rate_window" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// FetchConfig holds remote catalog download settings.
type FetchConfig struct {
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	UserAgent         string        `koanf:"user_agent" validate:"required"`
	EnableRobotsCheck bool          `koanf:"enable_robots_check"`
	MaxBytes          int64         `koanf:"max_bytes" validate:"gt=0"`
}

// LogConfig selects the log level and formatter.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path:          "data/books.csv",
			MirrorDir:     "data/mirror",
			WatchDebounce: 500 * time.Millisecond,
		},
		Recommend: RecommendConfig{
			MaxResults:      10,
			SimilarLimit:    5,
			SnippetLength:   200,
			GenreSnippet:    100,
			InsightsTop:     5,
			SessionIdleTime: 30 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       100,
			RateWindow:      time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Fetch: FetchConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "bookrec/1.0",
			EnableRobotsCheck: true,
			MaxBytes:          64 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// envMappings maps environment variable names (lower case) to config keys.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"bookrec_catalog_path":      "catalog.path",
	"bookrec_catalog_url":       "catalog.url",
	"bookrec_mirror_dir":        "catalog.mirror_dir",
	"bookrec_watch":             "catalog.watch",
	"bookrec_watch_debounce":    "catalog.watch_debounce",
	"bookrec_max_results":       "recommend.max_results",
	"bookrec_similar_limit":     "recommend.similar_limit",
	"bookrec_snippet_length":    "recommend.snippet_length",
	"bookrec_genre_snippet":     "recommend.genre_snippet",
	"bookrec_insights_top":      "recommend.insights_top",
	"bookrec_session_idle_time": "recommend.session_idle_time",
	"bookrec_addr":              "server.addr",
	"bookrec_read_timeout":      "server.read_timeout",
	"bookrec_write_timeout":     "server.write_timeout",
	"bookrec_shutdown_timeout":  "server.shutdown_timeout",
	"bookrec_rate_limit":        "server.rate_limit",
	"bookrec_rate_window":       "server.rate_window",
	"bookrec_cors_origins":      "server.cors_origins",
	"bookrec_fetch_timeout":     "fetch.timeout",
	"bookrec_user_agent":        "fetch.user_agent",
	"bookrec_robots_check":      "fetch.enable_robots_check",
	"bookrec_fetch_max_bytes":   "fetch.max_bytes",
	"bookrec_log_level":         "log.level",
	"bookrec_log_format":        "log.format",
}

func envKey(name string) string {
	return envMappings[strings.ToLower(name)]
}

// Load builds the configuration from, in increasing priority: defaults, the
// optional YAML file, a .env file in the working directory and the process
// environment.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Variables already set in the environment win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field bounds.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// splitList turns a comma-separated string from the environment into a list.
func splitList(k *koanf.Koanf, key string) error {
	s, ok := k.Get(key).(string)
	if !ok {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(key, parts); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
