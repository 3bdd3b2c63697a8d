package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

// PaymentWebhookHandler receives charge status callbacks from the gateway.
// Deliveries may repeat or arrive out of order; processing is idempotent.
type PaymentWebhookHandler struct {
	orderSvc  *service.OrderService
	auditRepo *repository.AuditLogRepository
	cfg       *config.GatewayConfig
	log       *zap.Logger
}

func NewPaymentWebhookHandler(orderSvc *service.OrderService, auditRepo *repository.AuditLogRepository, cfg *config.GatewayConfig, log *zap.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{orderSvc: orderSvc, auditRepo: auditRepo, cfg: cfg, log: log}
}

// Handle expects JSON { "reference": "...", "status": "COMPLETED|FAILED|EXPIRED" }
// with an X-Webhook-Signature header (hex HMAC-SHA256 of the raw body).
// POST /webhooks/payment
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
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
		Reference string `json:"reference"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference required"})
		return
	}

	status := strings.ToUpper(payload.Status)
	switch status {
	case "COMPLETED":
		err = h.orderSvc.HandlePaymentCompleted(payload.Reference)
	case "FAILED", "EXPIRED":
		err = h.orderSvc.HandlePaymentFailed(payload.Reference, status)
	default:
		// Intermediate statuses are acknowledged and dropped.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Unknown references are acknowledged so the gateway stops retrying.
		h.log.Warn("payment webhook for unknown reference",
			zap.String("reference", payload.Reference),
			zap.String("status", status),
		)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err != nil {
		// Anything else may be transient; a 5xx keeps the gateway retrying.
		h.log.Error("payment webhook processing failed",
			zap.String("reference", payload.Reference),
			zap.String("status", status),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		Action:     "payment_webhook_" + strings.ToLower(status),
		Resource:   "payment",
		ResourceID: payload.Reference,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func verifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
