package handler

import (
	"net/http"

	"bazaar/internal/middleware"
	"bazaar/internal/repository"
	"bazaar/internal/service"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo   *repository.UserRepository
	pricingSvc *service.PricingService
}

func NewMeHandler(userRepo *repository.UserRepository, pricingSvc *service.PricingService) *MeHandler {
	return &MeHandler{userRepo: userRepo, pricingSvc: pricingSvc}
}

// Get returns the authenticated user's profile with their discount standing.
func (h *MeHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	quote, err := h.pricingSvc.Quote(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve discount tier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": user,
		"tier": quote,
	})
}

type UpdateMeRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=64"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
}

func (h *MeHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if err := h.userRepo.Update(user); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "could not update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
