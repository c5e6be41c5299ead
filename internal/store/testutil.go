package store

import (
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB creates an in-memory SQLite database for testing
// Auto-migrates all models and registers t.Cleanup() for automatic cleanup
func TestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := OpenSQLite(SQLiteConfig{Path: MemoryPath, LogLevel: logger.Silent})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("failed to auto-migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err != nil {
			t.Logf("failed to get sql.DB for cleanup: %v", err)
			return
		}
		if err := sqlDB.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return db
}
