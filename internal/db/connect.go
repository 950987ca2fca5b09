// Package db opens the gorm connection for the configured SQL store and
// migrates its schema.
package db

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/zulandar/wordcloud/internal/config"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN from the database config.
func DSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// SQLiteDSN builds a SQLite DSN. Transactions take the write lock at BEGIN
// and wait on contention, so concurrent quota attempts serialise.
func SQLiteDSN(path string) string {
	return SQLiteDSNTimeout(path, DefaultBusyTimeout)
}

// DefaultBusyTimeout is how long a SQLite connection waits for a held write
// lock before failing with SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// SQLiteDSNTimeout is SQLiteDSN with an explicit busy timeout.
func SQLiteDSNTimeout(path string, busy time.Duration) string {
	return fmt.Sprintf("%s?_busy_timeout=%d&_txlock=immediate&_foreign_keys=on", path, busy.Milliseconds())
}

// Connect opens a GORM connection for the configured driver.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = gormmysql.Open(DSN(cfg))
	case config.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.Path))
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect (%s): %w", cfg.Driver, err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite database file directly.
func OpenSQLite(path string) (*gorm.DB, error) {
	return Connect(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path})
}
