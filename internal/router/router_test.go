package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazaar/config"
	"bazaar/internal/auth"
	"bazaar/internal/models"
	"bazaar/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
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
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test", PublicURL: "http://localhost"},
		JWT: config.JWTConfig{
			AccessSecret:  "test-access",
			RefreshSecret: "test-refresh",
			AccessExpiry:  time.Hour,
			RefreshExpiry: time.Hour,
			Issuer:        "bazaar-test",
		},
	}
	holder := config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig())
	r := Setup(cfg, holder, db, &gateway.StubProvider{}, zap.NewNop())
	return r, db, cfg
}

func TestReferralRegisterRouteLinksReferrer(t *testing.T) {
	r, db, cfg := newTestRouter(t)
	code := "ANCHOR01"
	referrer := &models.User{Username: "anchor", Email: "anchor@test.local", Role: "CUSTOMER", ReferralCode: &code}
	require.NoError(t, db.Create(referrer).Error)
	joiner := &models.User{Username: "joiner", Email: "joiner@test.local", Role: "CUSTOMER"}
	require.NoError(t, db.Create(joiner).Error)
	token, err := auth.GenerateAccessToken(&cfg.JWT, joiner.ID, joiner.Email, joiner.Role)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/referral/register",
		bytes.NewBufferString(`{"code":"ANCHOR01"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, joiner.ID).Error)
	require.NotNil(t, reloaded.ReferredByUserID)
	assert.Equal(t, referrer.ID, *reloaded.ReferredByUserID)

	// the relation is write-once; a second registration conflicts
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/v1/referral/register",
		bytes.NewBufferString(`{"code":"ANCHOR01"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}
