package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bazaar/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
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

// asUser injects the auth context the way AuthRequired would.
func asUser(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
	}
}

func perform(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
