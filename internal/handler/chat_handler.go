package handler

import (
	"net/http"
	"strconv"

	"bazaar/internal/middleware"
	"bazaar/internal/repository"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatRepo  *repository.ChatRepository
	orderRepo *repository.OrderRepository
}

func NewChatHandler(chatRepo *repository.ChatRepository, orderRepo *repository.OrderRepository) *ChatHandler {
	return &ChatHandler{chatRepo: chatRepo, orderRepo: orderRepo}
}

// History returns the message history for an order's chat. Only the buyer and
// the seller of the order can read it.
// GET /orders/:id/chat
func (h *ChatHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.orderRepo.GetByID(uint(orderID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if order.UserID != userID && order.SellerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not part of this order"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	messages, err := h.chatRepo.ListByOrderID(order.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
