package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
server:
  port: 9090
  cors_origins: ["https://slides.example.com"]
  max_upload_bytes: 1048576

database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: cloud
  password: s3cret
  name: wordcloud_prod

submission:
  standard_max_len: 30
  compact_max_len: 12
  profanity_filter: true

quota:
  unguarded_fallback: false
  prune_grace: 2h

session_defaults:
  max_entries_per_user: 5
  cooldown_minutes: 60
  theme: dark

identity:
  secret: very-secret
  token_ttl: 48h

sweeper:
  enabled: false
  schedule: "*/5 * * * *"

log:
  level: debug
  development: true
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://slides.example.com" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.MaxUploadBytes != 1<<20 {
		t.Errorf("Server.MaxUploadBytes = %d, want %d", cfg.Server.MaxUploadBytes, 1<<20)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("Database.Driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Database.Host != "10.0.0.5" || cfg.Database.Port != 3307 {
		t.Errorf("Database addr = %s:%d, want 10.0.0.5:3307", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "cloud" || cfg.Database.Password != "s3cret" || cfg.Database.Name != "wordcloud_prod" {
		t.Errorf("Database creds = %+v", cfg.Database)
	}
	if cfg.Submission.StandardMaxLen != 30 || cfg.Submission.CompactMaxLen != 12 {
		t.Errorf("Submission = %+v", cfg.Submission)
	}
	if !cfg.Submission.ProfanityFilter {
		t.Error("Submission.ProfanityFilter = false, want true")
	}
	if cfg.Quota.FallbackEnabled() {
		t.Error("Quota.FallbackEnabled() = true, want false")
	}
	if cfg.Quota.PruneGrace != 2*time.Hour {
		t.Errorf("Quota.PruneGrace = %v, want 2h", cfg.Quota.PruneGrace)
	}
	if cfg.SessionDefaults.MaxEntriesPerUser != 5 || cfg.SessionDefaults.CooldownMinutes != 60 {
		t.Errorf("SessionDefaults = %+v", cfg.SessionDefaults)
	}
	if cfg.SessionDefaults.Theme != "dark" {
		t.Errorf("SessionDefaults.Theme = %q, want dark", cfg.SessionDefaults.Theme)
	}
	if cfg.Identity.Secret != "very-secret" || cfg.Identity.TokenTTL != 48*time.Hour {
		t.Errorf("Identity = %+v", cfg.Identity)
	}
	if cfg.Sweeper.IsEnabled() {
		t.Error("Sweeper.IsEnabled() = true, want false")
	}
	if cfg.Sweeper.Schedule != "*/5 * * * *" {
		t.Errorf("Sweeper.Schedule = %q", cfg.Sweeper.Schedule)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestParse_EmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != 5<<20 {
		t.Errorf("Server.MaxUploadBytes = %d, want 5MB", cfg.Server.MaxUploadBytes)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "wordcloud.db" {
		t.Errorf("Database.Path = %q, want wordcloud.db", cfg.Database.Path)
	}
	if cfg.Submission.StandardMaxLen != 25 {
		t.Errorf("StandardMaxLen = %d, want 25", cfg.Submission.StandardMaxLen)
	}
	if cfg.Submission.CompactMaxLen != 10 {
		t.Errorf("CompactMaxLen = %d, want 10", cfg.Submission.CompactMaxLen)
	}
	if cfg.Submission.ProfanityFilter {
		t.Error("ProfanityFilter should default to false")
	}
	if !cfg.Quota.FallbackEnabled() {
		t.Error("FallbackEnabled() should default to true")
	}
	if cfg.SessionDefaults.MaxEntriesPerUser != 3 {
		t.Errorf("MaxEntriesPerUser = %d, want 3", cfg.SessionDefaults.MaxEntriesPerUser)
	}
	if cfg.SessionDefaults.CooldownMinutes != 24 {
		t.Errorf("CooldownMinutes = %d, want 24", cfg.SessionDefaults.CooldownMinutes)
	}
	if cfg.Identity.Secret != DefaultIdentitySecret {
		t.Errorf("Identity.Secret = %q, want default", cfg.Identity.Secret)
	}
	if !cfg.Sweeper.IsEnabled() {
		t.Error("Sweeper should default to enabled")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: mysql\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != 3306 {
		t.Errorf("addr = %s:%d, want 127.0.0.1:3306", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "root" || cfg.Database.Name != "wordcloud" {
		t.Errorf("user/name = %s/%s, want root/wordcloud", cfg.Database.User, cfg.Database.Name)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad driver", "database:\n  driver: postgres\n", "database.driver"},
		{"max entries too high", "session_defaults:\n  max_entries_per_user: 11\n", "max_entries_per_user"},
		{"cooldown too long", "session_defaults:\n  cooldown_minutes: 169\n", "cooldown_minutes"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"bad log level", "log:\n  level: chatty\n", "log.level"},
		{"negative grace", "quota:\n  prune_grace: -1h\n", "prune_grace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unterminated"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: parse")
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("WCLOUD_PORT", "7070")
	t.Setenv("WCLOUD_DB_DRIVER", "mysql")
	t.Setenv("WCLOUD_DB_HOST", "db.internal")
	t.Setenv("WCLOUD_DB_PORT", "3310")
	t.Setenv("WCLOUD_IDENTITY_SECRET", "from-env")

	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 3310 {
		t.Errorf("Database addr = %s:%d, want db.internal:3310", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Identity.Secret != "from-env" {
		t.Errorf("Identity.Secret = %q, want from-env", cfg.Identity.Secret)
	}
}

func TestParse_EnvBadNumber(t *testing.T) {
	t.Setenv("WCLOUD_PORT", "eighty")
	_, err := Parse([]byte(""))
	if err == nil {
		t.Fatal("expected error for non-numeric WCLOUD_PORT")
	}
	if !strings.Contains(err.Error(), "WCLOUD_PORT") {
		t.Errorf("error = %q, want to mention WCLOUD_PORT", err.Error())
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wordcloud.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8181\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", cfg.Server.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/wordcloud.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "config: read")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WCLOUD_TEST_DOTENV=loaded\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WCLOUD_TEST_DOTENV", "")
	os.Unsetenv("WCLOUD_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("WCLOUD_TEST_DOTENV"); got != "loaded" {
		t.Errorf("WCLOUD_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestLoadDotEnv_MissingIsFine(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadDotEnv(missing) = %v, want nil", err)
	}
	if err := LoadDotEnv(""); err != nil {
		t.Errorf("LoadDotEnv(\"\") = %v, want nil", err)
	}
}

func TestIdentity_UsesDefaultSecret(t *testing.T) {
	t.Setenv("WCLOUD_IDENTITY_SECRET", "")

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.Identity.UsesDefaultSecret() {
		t.Error("empty identity.secret should fall back to the default secret")
	}

	cfg, err = Parse([]byte("identity:\n  secret: s3cret\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Identity.UsesDefaultSecret() {
		t.Error("configured secret reported as default")
	}
}
