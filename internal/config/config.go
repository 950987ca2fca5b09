// Package config provides YAML-based configuration loading for the word
// cloud service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DefaultIdentitySecret signs participant tokens when no secret is configured.
const DefaultIdentitySecret = "wordcloud-dev-secret"

// Config is the top-level configuration, loaded from wordcloud.yaml.
type Config struct {
	Server          ServerConfig     `yaml:"server"`
	Database        DatabaseConfig   `yaml:"database"`
	Submission      SubmissionConfig `yaml:"submission"`
	Quota           QuotaConfig      `yaml:"quota"`
	SessionDefaults SessionDefaults  `yaml:"session_defaults"`
	Identity        IdentityConfig   `yaml:"identity"`
	Sweeper         SweeperConfig    `yaml:"sweeper"`
	Log             LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// DatabaseConfig selects and addresses the SQL store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"` // sqlite only
}

// SubmissionConfig configures the entry surfaces.
type SubmissionConfig struct {
	StandardMaxLen  int  `yaml:"standard_max_len"`
	CompactMaxLen   int  `yaml:"compact_max_len"`
	ProfanityFilter bool `yaml:"profanity_filter"`
}

// QuotaConfig configures the submission gate.
type QuotaConfig struct {
	// UnguardedFallback inserts entries without a quota check when the gate
	// is unavailable. Defaults to true.
	UnguardedFallback *bool         `yaml:"unguarded_fallback"`
	PruneGrace        time.Duration `yaml:"prune_grace"`
}

// FallbackEnabled reports whether the unguarded insert path is allowed.
func (q QuotaConfig) FallbackEnabled() bool {
	return q.UnguardedFallback == nil || *q.UnguardedFallback
}

// SessionDefaults are applied to sessions created without explicit limits.
type SessionDefaults struct {
	MaxEntriesPerUser int    `yaml:"max_entries_per_user"`
	CooldownMinutes   int    `yaml:"cooldown_minutes"`
	Theme             string `yaml:"theme"`
}

// IdentityConfig configures participant token signing.
type IdentityConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// UsesDefaultSecret reports whether tokens are signed with
// DefaultIdentitySecret, which anyone can read and use to forge them.
func (i IdentityConfig) UsesDefaultSecret() bool {
	return i.Secret == DefaultIdentitySecret
}

// SweeperConfig schedules background maintenance.
type SweeperConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// IsEnabled reports whether the sweeper runs. Defaults to true.
func (s SweeperConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. WCLOUD_* environment
// variables override file values.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays environment variables onto the parsed file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"WCLOUD_DB_DRIVER":       &c.Database.Driver,
		"WCLOUD_DB_HOST":         &c.Database.Host,
		"WCLOUD_DB_USER":         &c.Database.User,
		"WCLOUD_DB_PASSWORD":     &c.Database.Password,
		"WCLOUD_DB_NAME":         &c.Database.Name,
		"WCLOUD_DB_PATH":         &c.Database.Path,
		"WCLOUD_IDENTITY_SECRET": &c.Identity.Secret,
		"WCLOUD_LOG_LEVEL":       &c.Log.Level,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WCLOUD_PORT":    &c.Server.Port,
		"WCLOUD_DB_PORT": &c.Database.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a number", key, v)
		}
		*dst = n
	}
	return nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 5 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			c.Database.Path = "wordcloud.db"
		}
	case DriverMySQL:
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "wordcloud"
		}
	}
	if c.Submission.StandardMaxLen == 0 {
		c.Submission.StandardMaxLen = 25
	}
	if c.Submission.CompactMaxLen == 0 {
		c.Submission.CompactMaxLen = 10
	}
	if c.Quota.PruneGrace == 0 {
		c.Quota.PruneGrace = 24 * time.Hour
	}
	if c.SessionDefaults.MaxEntriesPerUser == 0 {
		c.SessionDefaults.MaxEntriesPerUser = 3
	}
	if c.SessionDefaults.CooldownMinutes == 0 {
		c.SessionDefaults.CooldownMinutes = 24
	}
	if c.SessionDefaults.Theme == "" {
		c.SessionDefaults.Theme = "default"
	}
	if c.Identity.Secret == "" {
		c.Identity.Secret = DefaultIdentitySecret
	}
	if c.Identity.TokenTTL == 0 {
		c.Identity.TokenTTL = 30 * 24 * time.Hour
	}
	if c.Sweeper.Schedule == "" {
		c.Sweeper.Schedule = "* * * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// validate checks that all fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be %q or %q", c.Database.Driver, DriverMySQL, DriverSQLite))
	}
	if c.Submission.StandardMaxLen < 1 {
		errs = append(errs, "submission.standard_max_len must be positive")
	}
	if c.Submission.CompactMaxLen < 1 {
		errs = append(errs, "submission.compact_max_len must be positive")
	}
	if n := c.SessionDefaults.MaxEntriesPerUser; n < 1 || n > 10 {
		errs = append(errs, "session_defaults.max_entries_per_user must be between 1 and 10")
	}
	if n := c.SessionDefaults.CooldownMinutes; n < 1 || n > 168 {
		errs = append(errs, "session_defaults.cooldown_minutes must be between 1 and 168")
	}
	if c.Quota.PruneGrace < 0 {
		errs = append(errs, "quota.prune_grace must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
