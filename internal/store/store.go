// Package store persists generated risk summaries in SQLite through GORM.
// It uses the pure-Go glebarez/sqlite driver, so no CGO is required.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath selects an in-memory database.
const MemoryPath = ":memory:"

// ErrEmptyPath is returned when database path is empty
var ErrEmptyPath = errors.New("database path is required")

// Database is the interface for database operations
type Database interface {
	DB() *gorm.DB
	Close() error
	AutoMigrate() error
}

// database is the concrete implementation
type database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database
func (d *database) DB() *gorm.DB {
	return d.db
}

// Close closes the database connection
func (d *database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs schema migrations
func (d *database) AutoMigrate() error {
	return AutoMigrate(d.db)
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	Path        string          // Database file path or ":memory:" (required)
	LogLevel    logger.LogLevel // GORM log level (default: Silent)
	AutoMigrate bool            // Run auto-migration on open
}

// Open opens a database connection with the given options.
func Open(opts OpenOptions) (Database, error) {
	if opts.Path == "" {
		return nil, ErrEmptyPath
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Silent
	}

	if opts.Path != MemoryPath {
		dir := filepath.Dir(opts.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := OpenSQLite(SQLiteConfig{Path: opts.Path, LogLevel: opts.LogLevel})
	if err != nil {
		return nil, err
	}

	d := &database{db: db}
	if opts.AutoMigrate {
		if err := d.AutoMigrate(); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	return d, nil
}

// SQLiteConfig holds configuration options for SQLite connection
type SQLiteConfig struct {
	Path     string          // Database file path (:memory: for in-memory)
	LogLevel logger.LogLevel // GORM log level
}

// OpenSQLite opens a SQLite database with production-optimized settings
func OpenSQLite(config SQLiteConfig) (*gorm.DB, error) {
	if config.Path == "" {
		return nil, ErrEmptyPath
	}

	db, err := gorm.Open(sqlite.Open(config.Path), &gorm.Config{
		Logger: logger.Default.LogMode(config.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps a
	// ":memory:" database alive for the life of the process.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // concurrent reads while writing
		"PRAGMA synchronous=NORMAL", // good durability with WAL
		"PRAGMA busy_timeout=5000",  // 5s lock contention timeout
		"PRAGMA cache_size=-20000",  // 20MB page cache (negative = KB)
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	return db, nil
}

// AutoMigrate runs auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&SummaryRecord{})
}
