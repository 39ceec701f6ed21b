package db

import (
	"fmt"
	"testing"

	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB holds a test database connection and cleanup function
type TestDB struct {
	DB      *gorm.DB
	Cleanup func()
}

// NewTestDB creates a new in-memory SQLite database with every management table migrated.
// Each call gets its own named database so parallel tests never share rows.
func NewTestDB(t testing.TB) (*TestDB, error) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=0", uuid.NewString())
	quiet := slogging.Discard()
	opts := gormOptions(quiet, false)
	opts.Logger = opts.Logger.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(dsn), opts)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := migrate(db, DatabaseTypeSQLite, quiet); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &TestDB{
		DB: db,
		Cleanup: func() {
			_ = sqlDB.Close()
		},
	}, nil
}

// MustCreateTestDB creates a test DB, failing the test on error. Cleanup is also
// registered with t.Cleanup so callers may skip the explicit defer.
func MustCreateTestDB(t testing.TB) *TestDB {
	t.Helper()

	tdb, err := NewTestDB(t)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(tdb.Cleanup)

	return tdb
}
