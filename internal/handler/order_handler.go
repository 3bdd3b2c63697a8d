package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bazaar/internal/middleware"
	"bazaar/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	svc *service.OrderService
	log *zap.Logger
}

func NewOrderHandler(svc *service.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

type CheckoutRequest struct {
	Items []service.CheckoutItem `json:"items" binding:"required,min=1,dive"`
}

// Checkout creates a pending order and a gateway charge.
// POST /orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.svc.Checkout(c.Request.Context(), userID, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart),
			errors.Is(err, service.ErrMultipleSellers),
			errors.Is(err, service.ErrOwnProduct):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrProductUnavailable):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.log.Error("checkout failed", zap.Uint("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order":        result.Order,
		"payment_id":   result.PaymentID,
		"checkout_url": result.CheckoutURL,
		"expires_at":   result.ExpiresAt,
	})
}

// ListMine lists the buyer's orders.
// GET /orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	orders, err := h.svc.ListForBuyer(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get returns one order; the buyer and the seller can both see it.
// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.svc.Get(userID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotOrderOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ConfirmDelivery is the buyer confirming receipt; this settles the order and
// pays referral commissions.
// POST /orders/:id/confirm-delivery
func (h *OrderHandler) ConfirmDelivery(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.svc.ConfirmDelivery(userID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotOrderOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.log.Error("confirm delivery failed", zap.Uint64("order_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not confirm delivery"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListForSeller lists orders on the seller's products.
// GET /seller/orders
func (h *OrderHandler) ListForSeller(c *gin.Context) {
	sellerID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := c.Query("status")
	orders, err := h.svc.ListForSeller(sellerID, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Ship marks a paid order as shipped.
// POST /seller/orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	sellerID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.svc.MarkShipped(sellerID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotOrderSeller):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark shipped"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
