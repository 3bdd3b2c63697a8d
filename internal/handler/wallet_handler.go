package handler

import (
	"net/http"
	"strconv"

	"bazaar/internal/middleware"
	"bazaar/internal/repository"
	"bazaar/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	svc            *service.WalletService
	commissionRepo *repository.CommissionRepository
}

func NewWalletHandler(svc *service.WalletService, commissionRepo *repository.CommissionRepository) *WalletHandler {
	return &WalletHandler{svc: svc, commissionRepo: commissionRepo}
}

// Get returns the wallet balance and lifetime commission earnings.
// GET /me/wallet
func (h *WalletHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	summary, err := h.svc.Summary(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Ledger returns the user's wallet ledger, newest first.
// GET /me/wallet/ledger
func (h *WalletHandler) Ledger(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	entries, err := h.svc.Ledger(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list ledger entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Commissions lists the user's earned commissions.
// GET /me/commissions
func (h *WalletHandler) Commissions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	commissions, err := h.commissionRepo.ListByBeneficiaryID(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list commissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": commissions})
}
