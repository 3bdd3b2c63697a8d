package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"bazaar/config"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WithdrawalWebhookHandler receives payout status callbacks from the gateway.
type WithdrawalWebhookHandler struct {
	walletSvc *service.WalletService
	auditRepo *repository.AuditLogRepository
	cfg       *config.GatewayConfig
	log       *zap.Logger
}

func NewWithdrawalWebhookHandler(walletSvc *service.WalletService, auditRepo *repository.AuditLogRepository, cfg *config.GatewayConfig, log *zap.Logger) *WithdrawalWebhookHandler {
	return &WithdrawalWebhookHandler{walletSvc: walletSvc, auditRepo: auditRepo, cfg: cfg, log: log}
}

// Handle expects JSON { "ref": "WDR-...", "status": "COMPLETED|FAILED" }.
// POST /webhooks/payout
func (h *WithdrawalWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.WebhookSecret != "" {
		if !verifyWebhookSignature(h.cfg.WebhookSecret, body, c.GetHeader("X-Webhook-Signature")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var payload struct {
		Ref    string `json:"ref"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ref required"})
		return
	}

	status := strings.ToUpper(payload.Status)
	switch status {
	case "COMPLETED":
		err = h.walletSvc.HandlePayoutCompleted(payload.Ref)
	case "FAILED":
		err = h.walletSvc.HandlePayoutFailed(payload.Ref)
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Unknown refs are acknowledged so the gateway stops retrying.
		h.log.Warn("payout webhook for unknown ref",
			zap.String("ref", payload.Ref),
			zap.String("status", status),
		)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err != nil {
		h.log.Error("payout webhook processing failed",
			zap.String("ref", payload.Ref),
			zap.String("status", status),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		Action:     "payout_webhook_" + strings.ToLower(status),
		Resource:   "withdrawal",
		ResourceID: payload.Ref,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}
