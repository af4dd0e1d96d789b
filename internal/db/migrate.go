package db

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	clinicdomain "clinic-app-go/internal/domain/clinic"
	userdomain "clinic-app-go/internal/domain/user"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDirName = "migrations"

// Migrate brings the schema up to date. Postgres runs the embedded SQL
// migrations; sqlite, used for local runs and tests, is migrated from the
// gorm models, which carry the same constraints.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return AutoMigrate(db)
	}
	return migrateFS(db, migrationFiles, migrationsDirName)
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userdomain.User{},
		&clinicdomain.Client{},
		&clinicdomain.Program{},
		&clinicdomain.Enrollment{},
	)
}

func migrateFS(db *gorm.DB, fsys fs.FS, dir string) error {
	if err := ensureSchemaMigrations(db); err != nil {
		return err
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".sql") {
			files = append(files, name)
		}
	}

	sort.Strings(files)

	for _, name := range files {
		applied, err := isMigrationApplied(db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		contents, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return err
		}

		sql := strings.TrimSpace(string(contents))
		if sql == "" {
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(sql).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			return recordMigration(tx, name)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func ensureSchemaMigrations(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`).Error
}

func isMigrationApplied(db *gorm.DB, name string) (bool, error) {
	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM schema_migrations WHERE filename = ?", name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(db *gorm.DB, name string) error {
	return db.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()).Error
}
