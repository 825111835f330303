// Package dbtest opens throw-away SQLite databases for tests
package dbtest

import (
	"cms/db"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates an empty SQLite file in a temp dir and installs it as db.Instance
// for the duration of the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	file := filepath.Join(t.TempDir(), "test.db")
	tx, err := gorm.Open(sqlite.Open(file+"?_foreign_keys=on"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	old := db.Instance
	db.Instance = tx
	t.Cleanup(func() {
		db.Instance = old
		if sqlDB, err := tx.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return tx
}
