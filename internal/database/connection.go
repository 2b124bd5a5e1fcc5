package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coffee_shop/internal/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// sqlitePragmas are applied to every SQLite connection.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// Initialize opens the database named by databaseURL. postgres:// and
// postgresql:// URLs select PostgreSQL; anything else is treated as a
// SQLite file path, optionally prefixed with sqlite://.
func Initialize(databaseURL string, log *slog.Logger) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:         logger.Gorm(log),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	dialector, isSQLite := dialectorFor(databaseURL)
	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		// One connection serializes writers inside the process.
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database connected", "driver", dialector.Name())
	return db, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, bool) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgres.Open(databaseURL), false
	}
	return sqlite.Open(SQLiteDSN(databaseURL)), true
}

// SQLiteDSN turns a file path into a DSN carrying the connection pragmas.
func SQLiteDSN(path string) string {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" {
		path = "coffee_shop.db"
	}
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
