package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bazaar/internal/middleware"
	"bazaar/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	svc        *service.ReferralService
	pricingSvc *service.PricingService
}

func NewReferralHandler(svc *service.ReferralService, pricingSvc *service.PricingService) *ReferralHandler {
	return &ReferralHandler{svc: svc, pricingSvc: pricingSvc}
}

// GetMyCode returns the authenticated user's referral code, issuing one on
// first request, along with whether sharing it is unlocked yet.
// GET /me/referral-code
func (h *ReferralHandler) GetMyCode(c *gin.Context) {
	userID := middleware.GetUserID(c)
	code, err := h.svc.Code(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get referral code"})
		return
	}
	quote, err := h.pricingSvc.Quote(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve tier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "unlocked": quote.Unlocked})
}

// GetMyReferrals lists the users this user referred directly, plus the full
// ancestor chain above them.
// GET /me/referrals
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	referrals, total, err := h.svc.Referrals(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list referrals"})
		return
	}
	out := make([]gin.H, 0, len(referrals))
	for _, u := range referrals {
		out = append(out, gin.H{
			"id":         u.ID,
			"username":   u.Username,
			"role":       u.Role,
			"created_at": u.CreatedAt,
		})
	}
	chain, err := h.svc.ResolveChain(userID)
	if errors.Is(err, service.ErrReferralCycle) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve chain"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referrals": out,
		"total":     total,
		"chain":     chain,
	})
}

type LinkReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

// Link attaches a referrer to the authenticated user after signup. The
// relation is write-once.
// POST /me/referral
func (h *ReferralHandler) Link(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req LinkReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	referrer, err := h.svc.Link(userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReferralCode):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSelfReferral), errors.Is(err, service.ErrReferralCycle):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyReferred):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not link referral"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"referrer": gin.H{"id": referrer.ID, "username": referrer.Username},
	})
}
