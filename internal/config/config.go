// Package config loads application settings from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup and treated as immutable.
type Config struct {
	// Servers
	ListsPort int
	ProxyPort int

	// Store
	StoreURL      string
	StoreDatabase string

	// Metadata API
	TMDBAPIKey  string
	TMDBBaseURL string
	TMDBTimeout time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Logging
	AppName          string
	LogLevel         string
	LogFormat        string
	FluentBitEnabled bool
	FluentBitHost    string
	FluentBitPort    int
}

// Options controls which settings are mandatory for the command being run.
type Options struct {
	// RequireTMDB makes TMDB_API_KEY mandatory (proxy and serve).
	RequireTMDB bool
	// EnvFile overrides the default ".env". A missing file is not an error.
	EnvFile string
}

// Load reads the environment. Variables already set in the process win over
// the .env file.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
	}

	cfg := &Config{}

	var missing []string
	cfg.TMDBAPIKey = os.Getenv("TMDB_API_KEY")
	if opts.RequireTMDB && cfg.TMDBAPIKey == "" {
		missing = append(missing, "TMDB_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	var err error
	if cfg.ListsPort, err = getEnvInt("LISTS_PORT", 3002); err != nil {
		return nil, err
	}
	if cfg.ProxyPort, err = getEnvInt("PROXY_PORT", 3001); err != nil {
		return nil, err
	}
	if cfg.TMDBTimeout, err = getEnvDuration("TMDB_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.FluentBitEnabled, err = getEnvBool("FLUENTBIT_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.FluentBitPort, err = getEnvInt("FLUENTBIT_PORT", 24224); err != nil {
		return nil, err
	}

	cfg.StoreURL = getEnvString("STORE_URL", "file:data/filmpire.db")
	cfg.StoreDatabase = getEnvString("STORE_DATABASE", "filmpiredb")
	cfg.TMDBBaseURL = getEnvString("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	cfg.CORSAllowedOrigins = splitList(getEnvString("CORS_ALLOWED_ORIGINS", "*"))
	cfg.AppName = getEnvString("APP_NAME", "filmpire")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvString("LOG_FORMAT", "text")
	cfg.FluentBitHost = getEnvString("FLUENTBIT_HOST", "localhost")

	switch cfg.LogFormat {
	case "text", "json", "color":
	default:
		return nil, fmt.Errorf("config: LOG_FORMAT must be text, json or color, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a duration like 10s, got %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
