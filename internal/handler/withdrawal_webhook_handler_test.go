package handler

import (
	"context"
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

func newPayoutWebhookRouter(t *testing.T, db *gorm.DB) (*gin.Engine, *service.WalletService) {
	t.Helper()
	notifSvc := service.NewNotificationService(repository.NewNotificationRepository(db), nil, testLogger())
	walletSvc := service.NewWalletService(db, repository.NewWalletRepository(db),
		repository.NewWithdrawalRepository(db), repository.NewCommissionRepository(db),
		notifSvc, &gateway.StubProvider{}, "http://localhost/webhooks/payout", testLogger())
	h := NewWithdrawalWebhookHandler(walletSvc, repository.NewAuditLogRepository(db),
		&config.GatewayConfig{}, testLogger())

	r := gin.New()
	r.POST("/webhooks/payout", h.Handle)
	return r, walletSvc
}

func TestPayoutWebhookAcksUnknownRef(t *testing.T) {
	db := newTestDB(t)
	r, _ := newPayoutWebhookRouter(t, db)

	w := perform(r, postWebhook(r, "/webhooks/payout",
		`{"ref":"WDR-NOPE","status":"COMPLETED"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestPayoutWebhookReturns5xxOnProcessingFailure(t *testing.T) {
	db := newTestDB(t)
	r, walletSvc := newPayoutWebhookRouter(t, db)
	u := createUser(t, db, "earner", domain.RoleCustomer)
	_, err := repository.NewWalletRepository(db).Append(u.ID,
		decimal.RequireFromString("500.00"), domain.LedgerReasonCommission, "ORD-SEED")
	require.NoError(t, err)
	withdrawal, err := walletSvc.RequestWithdrawal(context.Background(), u.ID,
		decimal.RequireFromString("200.00"), "upi@test")
	require.NoError(t, err)
	// break the refund append so the failure webhook cannot complete
	require.NoError(t, db.Migrator().DropTable(&models.WalletLedgerEntry{}))

	w := perform(r, postWebhook(r, "/webhooks/payout",
		`{"ref":"`+withdrawal.Ref+`","status":"FAILED"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code,
		"the gateway must keep retrying until the refund lands")
}
