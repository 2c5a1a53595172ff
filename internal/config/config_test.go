package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsDefaultsWhenFileMissing(t *testing.T) {
	svc := NewConfigServiceAt(filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, cfg.Source.Endpoint)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.True(t, cfg.Search.MatchBody)
	assert.Equal(t, 65, cfg.UI.PullThreshold)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	svc := NewConfigServiceAt(path)

	cfg := DefaultConfig()
	cfg.Source.Endpoint = "http://localhost:9999/posts"
	cfg.Storage.Backend = "memory"
	cfg.Search.MatchBody = false
	require.NoError(t, svc.Save(cfg))

	loaded, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/posts", loaded.Source.Endpoint)
	assert.Equal(t, "memory", loaded.Storage.Backend)
	assert.False(t, loaded.Search.MatchBody)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\npull_threshold = 40\n"), 0644))

	cfg, err := NewConfigServiceAt(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.UI.PullThreshold)
	assert.Equal(t, 16, cfg.UI.PullUnitsPerRow)
	assert.Equal(t, DefaultEndpoint, cfg.Source.Endpoint)
	assert.True(t, cfg.Search.MatchBody)
}

func TestLoadFromPathRejectsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[source\nendpoint = "), 0644))

	_, err := NewConfigServiceAt(path).LoadFromPath(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty endpoint", mutate: func(c *Config) { c.Source.Endpoint = " " }, wantErr: "endpoint is required"},
		{name: "non http endpoint", mutate: func(c *Config) { c.Source.Endpoint = "ftp://x" }, wantErr: "http(s)"},
		{name: "bad timeout", mutate: func(c *Config) { c.Source.Timeout = "soon" }, wantErr: "timeout"},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "sqlite" }, wantErr: "unknown storage backend"},
		{name: "redis without addr", mutate: func(c *Config) {
			c.Storage.Backend = "redis"
			c.Storage.RedisAddr = ""
		}, wantErr: "redis address"},
		{name: "zero pull threshold", mutate: func(c *Config) { c.UI.PullThreshold = 0 }, wantErr: "pull threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateNormalizesBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = " Memory "
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestTimeoutDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, SourceConfig{Timeout: "3s"}.TimeoutDuration())
	assert.Equal(t, 15*time.Second, SourceConfig{Timeout: ""}.TimeoutDuration())
	assert.Equal(t, 15*time.Second, SourceConfig{Timeout: "-1s"}.TimeoutDuration())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("POSTEXPLORER_ENDPOINT", "http://env.example/posts")
	t.Setenv("POSTEXPLORER_STORAGE", "redis")
	t.Setenv("POSTEXPLORER_REDIS_DB", "3")
	t.Setenv("POSTEXPLORER_MATCH_BODY", "false")
	t.Setenv("API_KEY", "web-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg, map[string]bool{FlagStorage: true}))

	assert.Equal(t, "http://env.example/posts", cfg.Source.Endpoint)
	assert.Equal(t, "file", cfg.Storage.Backend, "changed flag must win over env")
	assert.Equal(t, 3, cfg.Storage.RedisDB)
	assert.False(t, cfg.Search.MatchBody)
	assert.Equal(t, "gemini-key", cfg.Voice.APIKey)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	t.Setenv("POSTEXPLORER_REDIS_DB", "three")
	assert.Error(t, ApplyEnv(DefaultConfig(), map[string]bool{}))
}

func TestApplyOverridesOnlyChangedFlags(t *testing.T) {
	cfg := DefaultConfig()
	ApplyOverrides(cfg, Overrides{
		Endpoint:  "http://flag.example/posts",
		Storage:   "memory",
		MatchBody: false,
		LogLevel:  "debug",
	}, map[string]bool{FlagEndpoint: true, FlagMatchBody: true})

	assert.Equal(t, "http://flag.example/posts", cfg.Source.Endpoint)
	assert.False(t, cfg.Search.MatchBody)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}
