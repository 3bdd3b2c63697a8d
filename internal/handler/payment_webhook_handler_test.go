package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"bazaar/config"
	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/service"
	"bazaar/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPaymentWebhookRouter(t *testing.T, db *gorm.DB, secret string) *gin.Engine {
	t.Helper()
	holder := config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig())
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	referralSvc := service.NewReferralService(db, repository.NewReferralRepository(db), testLogger())
	pricingSvc := service.NewPricingService(holder, userRepo, testLogger())
	commissionSvc := service.NewCommissionService(holder, referralSvc, orderRepo,
		repository.NewCommissionRepository(db), repository.NewWalletRepository(db), testLogger())
	notifSvc := service.NewNotificationService(repository.NewNotificationRepository(db), nil, testLogger())
	orderSvc := service.NewOrderService(db, orderRepo, repository.NewProductRepository(db),
		repository.NewPaymentRepository(db), userRepo, pricingSvc, commissionSvc,
		notifSvc, &gateway.StubProvider{}, "http://localhost/webhooks/payment", testLogger())
	h := NewPaymentWebhookHandler(orderSvc, repository.NewAuditLogRepository(db),
		&config.GatewayConfig{WebhookSecret: secret}, testLogger())

	r := gin.New()
	r.POST("/webhooks/payment", h.Handle)
	return r
}

func postWebhook(r *gin.Engine, path, body string) *http.Request {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPaymentWebhookAcksUnknownReference(t *testing.T) {
	db := newTestDB(t)
	r := newPaymentWebhookRouter(t, db, "")

	w := perform(r, postWebhook(r, "/webhooks/payment",
		`{"reference":"PAY-NOPE","status":"COMPLETED"}`))

	assert.Equal(t, http.StatusOK, w.Code,
		"an unknown reference is permanent; the gateway must stop retrying")
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestPaymentWebhookReturns5xxOnProcessingFailure(t *testing.T) {
	db := newTestDB(t)
	buyer := createUser(t, db, "buyer", domain.RoleCustomer)
	payment := &models.Payment{
		UserID:      buyer.ID,
		OrderID:     1,
		Amount:      decimal.RequireFromString("150.00"),
		Provider:    "stub",
		ProviderRef: "PAY-BROKEN",
		Status:      domain.PaymentStatusPending,
	}
	require.NoError(t, db.Create(payment).Error)
	// break the order transition so processing fails after the ref resolves
	require.NoError(t, db.Migrator().DropTable(&models.Order{}))
	r := newPaymentWebhookRouter(t, db, "")

	w := perform(r, postWebhook(r, "/webhooks/payment",
		`{"reference":"PAY-BROKEN","status":"COMPLETED"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code,
		"a transient failure must not be acknowledged as received")
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	db := newTestDB(t)
	r := newPaymentWebhookRouter(t, db, "topsecret")

	body := `{"reference":"PAY-1","status":"COMPLETED"}`
	req := postWebhook(r, "/webhooks/payment", body)
	req.Header.Set("X-Webhook-Signature", "deadbeef")
	w := perform(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write([]byte(body))
	req = postWebhook(r, "/webhooks/payment", body)
	req.Header.Set("X-Webhook-Signature", hex.EncodeToString(mac.Sum(nil)))
	w = perform(r, req)
	assert.Equal(t, http.StatusOK, w.Code, "a correctly signed unknown ref is acked")
}
