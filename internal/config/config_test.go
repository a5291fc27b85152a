package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LISTS_PORT", "PROXY_PORT", "STORE_URL", "STORE_DATABASE",
		"TMDB_API_KEY", "TMDB_BASE_URL", "TMDB_TIMEOUT", "CORS_ALLOWED_ORIGINS",
		"APP_NAME", "LOG_LEVEL", "LOG_FORMAT",
		"FLUENTBIT_ENABLED", "FLUENTBIT_HOST", "FLUENTBIT_PORT",
	} {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{EnvFile: noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, 3002, cfg.ListsPort)
	assert.Equal(t, 3001, cfg.ProxyPort)
	assert.Equal(t, "file:data/filmpire.db", cfg.StoreURL)
	assert.Equal(t, "filmpiredb", cfg.StoreDatabase)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDBBaseURL)
	assert.Equal(t, 10*time.Second, cfg.TMDBTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.FluentBitEnabled)
	assert.Equal(t, 24224, cfg.FluentBitPort)
}

func TestLoad_RequiresTMDBKey(t *testing.T) {
	clearEnv(t)

	_, err := Load(Options{RequireTMDB: true, EnvFile: noEnvFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TMDB_API_KEY")
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TMDB_API_KEY", "k")
	t.Setenv("LISTS_PORT", "4000")
	t.Setenv("TMDB_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("FLUENTBIT_ENABLED", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(Options{RequireTMDB: true, EnvFile: noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "k", cfg.TMDBAPIKey)
	assert.Equal(t, 4000, cfg.ListsPort)
	assert.Equal(t, 3*time.Second, cfg.TMDBTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.FluentBitEnabled)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LISTS_PORT", "abc"},
		{"TMDB_TIMEOUT", "ten seconds"},
		{"FLUENTBIT_ENABLED", "maybe"},
		{"LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(Options{EnvFile: noEnvFile(t)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to ""
	// so unset the ones the file provides.
	os.Unsetenv("TMDB_API_KEY")
	os.Unsetenv("PROXY_PORT")
	t.Cleanup(func() {
		os.Unsetenv("TMDB_API_KEY")
		os.Unsetenv("PROXY_PORT")
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TMDB_API_KEY=from-file\nPROXY_PORT=5001\n"), 0o600))

	cfg, err := Load(Options{RequireTMDB: true, EnvFile: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TMDBAPIKey)
	assert.Equal(t, 5001, cfg.ProxyPort)
}
