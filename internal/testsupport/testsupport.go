// Package testsupport provides shared helpers for package tests: in-memory
// databases with the full schema, a lightweight DB manager and fixtures.
package testsupport

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"peyda/internal/businesses"
	"peyda/internal/interactions"
	"peyda/internal/settings"
	"peyda/internal/users"
)

// testDBCache caches test databases by root test name so subtests and setup
// closures share one database.
var (
	testDBCache   = make(map[string]*gorm.DB)
	testDBCacheMu sync.Mutex
)

// TestDBManager satisfies the DBManager interfaces of the domain packages
// without the production busy-retry machinery.
type TestDBManager struct {
	db      *gorm.DB
	writeMu sync.Mutex
}

func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{db: db}
}

func (m *TestDBManager) GetConnection() *gorm.DB {
	return m.db
}

// PerformWrite serializes writers like the production manager does, so
// concurrent test writers cannot trip over SQLite's single-writer lock.
func (m *TestDBManager) PerformWrite(fn func(tx *gorm.DB) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.db.Transaction(fn)
}

// CheckpointWAL is a no-op shim for the in-memory database.
func (m *TestDBManager) CheckpointWAL(mode string) error {
	return m.db.Exec("PRAGMA wal_checkpoint(" + mode + ")").Error
}

var _ interactions.DBManager = (*TestDBManager)(nil)
var _ users.DBManager = (*TestDBManager)(nil)

func allModels() []any {
	return []any{
		&businesses.Business{},
		&interactions.InteractionEvent{},
		&interactions.MonthlyAnalytics{},
		&settings.Setting{},
		&users.User{},
	}
}

// SetupTestDB creates a migrated test database. Uses a named in-memory
// database with cache=shared so multiple connections within a test see the
// same data; the database is cached per root test name.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		settings.ResetCache()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test database manager plus a quiet logger.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	t.Helper()
	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// GetLogger returns a logger that discards all output.
func GetLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CleanTables deletes all rows from the given tables.
func CleanTables(db *gorm.DB, tables []string) {
	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// CreateTestBusiness creates an approved business fixture, reusing the row
// when the slug already exists.
func CreateTestBusiness(db *gorm.DB, name string) businesses.Business {
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))

	var business businesses.Business
	if db.Where("slug = ?", slug).First(&business).Error == nil {
		return business
	}

	business = businesses.Business{
		Name:   name,
		Slug:   slug,
		City:   "Tehran",
		Status: businesses.StatusApproved,
	}
	if err := businesses.CreateBusiness(db, &business); err != nil {
		panic(fmt.Sprintf("testsupport: failed to create business fixture: %v", err))
	}
	return business
}

// CreateTestAdminUser creates an admin fixture with the given credentials.
func CreateTestAdminUser(db *gorm.DB, email, password string) users.User {
	var user users.User
	if db.Where("email = ?", email).First(&user).Error == nil {
		return user
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("testsupport: failed to hash password: %v", err))
	}
	user = users.User{Email: email, EncryptedPassword: string(hashed)}
	db.Create(&user)
	return user
}

// CreateTestInteraction inserts one raw interaction event directly, bypassing
// validation and rate limiting.
func CreateTestInteraction(db *gorm.DB, businessID string, interactionType interactions.InteractionType, sourceIP string, occurredAt time.Time) interactions.InteractionEvent {
	event := interactions.InteractionEvent{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		Type:       interactionType,
		OccurredAt: occurredAt,
		SourceIP:   sourceIP,
		CreatedAt:  occurredAt,
	}
	db.Create(&event)
	return event
}
