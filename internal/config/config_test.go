package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "roster.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, 10, cfg.Profile.TimeoutSecs)
	assert.Equal(t, 1500, cfg.Profile.ThrottleMs)
	assert.Equal(t, 3, cfg.Profile.MaxAttempts)
	assert.Equal(t, 3, cfg.Profile.BreakerThreshold)
	assert.True(t, cfg.Avatar.Enabled)
	assert.Equal(t, 320, cfg.Avatar.MaxPx)
	assert.Equal(t, "media", cfg.Blob.Dir)
	assert.Equal(t, "C", cfg.Import.DefaultTier)
	assert.Equal(t, "roster import", cfg.Import.SourceLabel)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, 1500*time.Millisecond, cfg.Profile.Throttle())
	assert.Equal(t, 10*time.Second, cfg.Profile.Timeout())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/roster
log:
  level: debug
  format: console
profile:
  throttle_ms: 250
import:
  default_tier: B
  owner: ops@example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/roster", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 250, cfg.Profile.ThrottleMs)
	assert.Equal(t, "B", cfg.Import.DefaultTier)
	assert.Equal(t, "ops@example.com", cfg.Import.Owner)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Profile.MaxAttempts)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ROSTER_STORE_DRIVER", "postgres")
	t.Setenv("ROSTER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ROSTER_PROFILE_KEY", "secret")
	t.Setenv("ROSTER_PROFILE_THROTTLE_MS", "900")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Profile.Key)
	assert.Equal(t, 900, cfg.Profile.ThrottleMs)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "roster.db"
	cfg.Store.MaxConns = 4
	cfg.Profile.BaseURL = "https://api.example.com"
	cfg.Profile.Key = "key"
	cfg.Profile.TimeoutSecs = 10
	cfg.Profile.ThrottleMs = 1500
	cfg.Profile.MaxAttempts = 3
	cfg.Profile.BreakerThreshold = 3
	cfg.Avatar.Enabled = true
	cfg.Avatar.MaxPx = 320
	cfg.Blob.Dir = "media"
	cfg.Import.DefaultTier = "C"
	return cfg
}

func TestValidateImport_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("import"))
}

func TestValidateImport_MissingProfile(t *testing.T) {
	cfg := validDefaults()
	cfg.Profile.Key = ""
	cfg.Profile.BaseURL = ""

	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile.key is required")
	assert.Contains(t, err.Error(), "profile.base_url is required")
}

func TestValidateImportOffline_IgnoresProfile(t *testing.T) {
	cfg := validDefaults()
	cfg.Profile = ProfileConfig{}
	cfg.Blob.Dir = ""

	assert.NoError(t, cfg.Validate("import-offline"))
}

func TestValidateImport_BadTier(t *testing.T) {
	cfg := validDefaults()
	cfg.Import.DefaultTier = "Z"

	err := cfg.Validate("import-offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import.default_tier")
}

func TestValidateImport_AvatarNeedsBlobDir(t *testing.T) {
	cfg := validDefaults()
	cfg.Blob.Dir = ""

	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blob.dir is required")

	cfg.Avatar.Enabled = false
	assert.NoError(t, cfg.Validate("import"))
}

func TestValidateStore(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver must be sqlite or postgres"},
		{"no url", func(c *Config) { c.Store.DatabaseURL = "" }, "store.database_url is required"},
		{"postgres without conns", func(c *Config) {
			c.Store.Driver = "postgres"
			c.Store.MaxConns = 0
		}, "store.max_conns must be > 0"},
		{"postgres ok", func(c *Config) { c.Store.Driver = "postgres" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate("migrate")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
