package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/creator-roster/internal/normalize"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Profile ProfileConfig `yaml:"profile" mapstructure:"profile"`
	Avatar  AvatarConfig  `yaml:"avatar" mapstructure:"avatar"`
	Blob    BlobConfig    `yaml:"blob" mapstructure:"blob"`
	Import  ImportConfig  `yaml:"import" mapstructure:"import"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ProfileConfig holds profile lookup API settings.
type ProfileConfig struct {
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	Key              string `yaml:"key" mapstructure:"key"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ThrottleMs       int    `yaml:"throttle_ms" mapstructure:"throttle_ms"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	BreakerThreshold int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Throttle is the minimum spacing between lookup requests.
func (p ProfileConfig) Throttle() time.Duration {
	return time.Duration(p.ThrottleMs) * time.Millisecond
}

// Timeout is the hard deadline for a single lookup attempt.
func (p ProfileConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// AvatarConfig configures avatar transfer for new identities.
type AvatarConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	MaxPx       int  `yaml:"max_px" mapstructure:"max_px"`
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BlobConfig configures the local blob store.
type BlobConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ImportConfig holds defaults applied to every import run.
type ImportConfig struct {
	DefaultTier string `yaml:"default_tier" mapstructure:"default_tier"`
	SourceLabel string `yaml:"source_label" mapstructure:"source_label"`
	Owner       string `yaml:"owner" mapstructure:"owner"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "roster.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("profile.base_url", "https://api.profilelookup.io")
	v.SetDefault("profile.key", "")
	v.SetDefault("profile.timeout_secs", 10)
	v.SetDefault("profile.throttle_ms", 1500)
	v.SetDefault("profile.max_attempts", 3)
	v.SetDefault("profile.breaker_threshold", 3)
	v.SetDefault("profile.breaker_reset_secs", 60)
	v.SetDefault("avatar.enabled", true)
	v.SetDefault("avatar.max_px", 320)
	v.SetDefault("avatar.timeout_secs", 15)
	v.SetDefault("blob.dir", "media")
	v.SetDefault("blob.base_url", "")
	v.SetDefault("import.default_tier", "C")
	v.SetDefault("import.source_label", "roster import")
	v.SetDefault("import.owner", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is one of "import",
// "import-offline" (enrichment skipped), "migrate" or "campaign".
func (c *Config) Validate(mode string) error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	storeChecks := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
		}
		require(c.Store.DatabaseURL != "", "store.database_url is required")
		if c.Store.Driver == "postgres" {
			require(c.Store.MaxConns > 0, "store.max_conns must be > 0")
		}
	}

	switch mode {
	case "migrate", "campaign":
		storeChecks()
	case "import", "import-offline":
		storeChecks()
		if _, ok := normalize.ParseTier(c.Import.DefaultTier); !ok {
			problems = append(problems, fmt.Sprintf("import.default_tier %q is not a valid tier", c.Import.DefaultTier))
		}
		if mode == "import" {
			require(c.Profile.BaseURL != "", "profile.base_url is required")
			require(c.Profile.Key != "", "profile.key is required")
			require(c.Profile.TimeoutSecs > 0, "profile.timeout_secs must be > 0")
			require(c.Profile.ThrottleMs >= 0, "profile.throttle_ms must be >= 0")
			require(c.Profile.MaxAttempts >= 1, "profile.max_attempts must be >= 1")
			require(c.Profile.BreakerThreshold >= 1, "profile.breaker_threshold must be >= 1")
			if c.Avatar.Enabled {
				require(c.Blob.Dir != "", "blob.dir is required when avatar.enabled")
				require(c.Avatar.MaxPx >= 0, "avatar.max_px must be >= 0")
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
