// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/zulandar/wordcloud/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated database backed by a file in t.TempDir().
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gormDB, _ := OpenPair(t, db.DefaultBusyTimeout)
	return gormDB
}

// OpenPair returns two independent connections to one migrated database
// file. The second waits at most busy for a write lock held by the first.
func OpenPair(t testing.TB, busy time.Duration) (*gorm.DB, *gorm.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wordcloud.db")

	first, err := db.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	closeOnCleanup(t, first)
	if err := db.AutoMigrate(first); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	second, err := gorm.Open(sqlite.Open(db.SQLiteDSNTimeout(path, busy)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open second test connection: %v", err)
	}
	closeOnCleanup(t, second)
	return first, second
}

func closeOnCleanup(t testing.TB, gormDB *gorm.DB) {
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
}
