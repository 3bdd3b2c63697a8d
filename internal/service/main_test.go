package service

import (
	"path/filepath"
	"testing"

	"bazaar/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A ":memory:" DSN gives every pooled connection its own empty database;
	// services that read outside the caller's transaction open a second
	// connection, so the database must be shared across connections. WAL mode
	// lets those reads proceed while a write transaction is open.
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.ReferralChainEntry{},
		&models.Commission{},
		&models.Wallet{},
		&models.WalletLedgerEntry{},
		&models.Withdrawal{},
		&models.Notification{},
		&models.ChatMessage{},
		&models.SystemSetting{},
		&models.AuditLog{},
	))
	return db
}

func testLogger() *zap.Logger { return zap.NewNop() }

func createUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@test.local",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
