package db

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/wordcloud/internal/config"
	"github.com/zulandar/wordcloud/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want []string
	}{
		{
			name: "default local",
			cfg:  config.DatabaseConfig{Host: "127.0.0.1", Port: 3306, User: "root", Name: "wordcloud"},
			want: []string{"root@tcp(127.0.0.1:3306)/wordcloud?", "parseTime=true", "charset=utf8mb4"},
		},
		{
			name: "with password",
			cfg:  config.DatabaseConfig{Host: "10.0.0.5", Port: 3307, User: "cloud", Password: "pw", Name: "wc"},
			want: []string{"cloud:pw@tcp(10.0.0.5:3307)/wc?"},
		},
		{
			name: "ipv6 host",
			cfg:  config.DatabaseConfig{Host: "::1", Port: 3306, User: "root", Name: "wc"},
			want: []string{"tcp([::1]:3306)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.cfg)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("DSN() = %q, want to contain %q", got, w)
				}
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn := SQLiteDSN("/tmp/wc.db")
	if !strings.HasPrefix(dsn, "/tmp/wc.db?") {
		t.Errorf("SQLiteDSN should start with the path: %s", dsn)
	}
	for _, p := range []string{"_txlock=immediate", "_busy_timeout=", "_foreign_keys=on"} {
		if !strings.Contains(dsn, p) {
			t.Errorf("SQLiteDSN missing %s: %s", p, dsn)
		}
	}
}

func TestSQLiteDSNTimeout(t *testing.T) {
	if dsn := SQLiteDSNTimeout("/tmp/wc.db", 250*time.Millisecond); !strings.Contains(dsn, "_busy_timeout=250&") {
		t.Errorf("SQLiteDSNTimeout(250ms) = %s", dsn)
	}
	if dsn := SQLiteDSN("/tmp/wc.db"); !strings.Contains(dsn, "_busy_timeout=5000&") {
		t.Errorf("SQLiteDSN default timeout = %s", dsn)
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "unsupported driver")
	}
}

func TestAllModels_Count(t *testing.T) {
	models := AllModels()
	if len(models) != 5 {
		t.Errorf("AllModels() returned %d models, want 5", len(models))
	}
}

func TestAutoMigrate_SQLite(t *testing.T) {
	gormDB, err := OpenSQLite(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	// Idempotent.
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}

	for _, m := range []interface{}{&models.Session{}, &models.Entry{}, &models.Summary{}, &models.Quota{}, &models.SessionOrder{}} {
		if !gormDB.Migrator().HasTable(m) {
			t.Errorf("table for %T not created", m)
		}
	}
	if !gormDB.Migrator().HasIndex(&models.Entry{}, "idx_entry_session_cluster") {
		t.Error("idx_entry_session_cluster not created")
	}
}
