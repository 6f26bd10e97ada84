package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/bookrec/internal/config"
)

// chdir moves into an empty directory so no stray .env or bookrec.yaml is
// picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.PathEnvVar, "")
	return dir
}

func TestLoadDefaultConfig(t *testing.T) {
	chdir(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "data/books.csv", cfg.Catalog.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.WatchDebounce)
	assert.False(t, cfg.Catalog.Watch)

	assert.Equal(t, 10, cfg.Recommend.MaxResults)
	assert.Equal(t, 5, cfg.Recommend.SimilarLimit)
	assert.Equal(t, 200, cfg.Recommend.SnippetLength)
	assert.Equal(t, 100, cfg.Recommend.GenreSnippet)
	assert.Equal(t, 5, cfg.Recommend.InsightsTop)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)

	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "bookrec/1.0", cfg.Fetch.UserAgent)
	assert.True(t, cfg.Fetch.EnableRobotsCheck)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdir(t)

	envVars := map[string]string{
		"BOOKREC_CATALOG_PATH":   "/srv/books.csv",
		"BOOKREC_WATCH":          "true",
		"BOOKREC_WATCH_DEBOUNCE": "2s",
		"BOOKREC_MAX_RESULTS":    "20",
		"BOOKREC_SIMILAR_LIMIT":  "8",
		"BOOKREC_ADDR":           "127.0.0.1:9000",
		"BOOKREC_CORS_ORIGINS":   "https://a.example, https://b.example",
		"BOOKREC_ROBOTS_CHECK":   "false",
		"BOOKREC_LOG_FORMAT":     "json",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/books.csv", cfg.Catalog.Path)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, 2*time.Second, cfg.Catalog.WatchDebounce)
	assert.Equal(t, 20, cfg.Recommend.MaxResults)
	assert.Equal(t, 8, cfg.Recommend.SimilarLimit)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Fetch.EnableRobotsCheck)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := chdir(t)

	path := filepath.Join(dir, "custom.yaml")
	yml := `
catalog:
  path: books/all.csv
recommend:
  max_results: 15
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	t.Setenv(config.PathEnvVar, path)
	t.Setenv("BOOKREC_LOG_LEVEL", "warn")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "books/all.csv", cfg.Catalog.Path)
	assert.Equal(t, 15, cfg.Recommend.MaxResults)
	assert.Equal(t, 5, cfg.Recommend.SimilarLimit)
	// Environment beats the file.
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOOKREC_INSIGHTS_TOP=3\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("BOOKREC_INSIGHTS_TOP") })

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Recommend.InsightsTop)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero max results", "BOOKREC_MAX_RESULTS", "0"},
		{"similar above max", "BOOKREC_SIMILAR_LIMIT", "50"},
		{"bad log format", "BOOKREC_LOG_FORMAT", "xml"},
		{"bad url", "BOOKREC_CATALOG_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	chdir(t)
	_, err := config.LoadFile("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidateDefault(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}
