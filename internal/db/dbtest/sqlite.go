// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"clinic-app-go/internal/config"
	"clinic-app-go/internal/db"
	"clinic-app-go/pkg/logger"
	"gorm.io/gorm"
)

var counter atomic.Int64

// OpenSQLite returns a migrated in-memory database that is closed when the
// test ends.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, counter.Add(1))

	conn, err := db.Open(config.DBConfig{Driver: config.DriverSQLite, DSN: dsn}, logger.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := conn.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
