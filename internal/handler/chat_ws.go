package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bazaar/config"
	"bazaar/internal/auth"
	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	chatWriteWait  = 10 * time.Second
	chatPongWait   = 60 * time.Second
	chatPingPeriod = (chatPongWait * 9) / 10
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UpgradeChatWS upgrades to WebSocket for an order chat; query: token,
// order_id. The user must be the buyer or the seller, and the order must be
// paid for (no chat on pending or cancelled orders).
func UpgradeChatWS(cfg *config.JWTConfig, chatHub *ws.ChatHub, orderRepo *repository.OrderRepository, chatRepo *repository.ChatRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		orderIDStr := c.Query("order_id")
		if token == "" || orderIDStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and order_id required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		var orderID uint
		if _, err := fmt.Sscanf(orderIDStr, "%d", &orderID); err != nil || orderID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_id"})
			return
		}
		order, err := orderRepo.GetByID(orderID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if claims.UserID != order.UserID && claims.UserID != order.SellerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not part of this order"})
			return
		}
		switch order.Status {
		case domain.OrderStatusPending, domain.OrderStatusCancelled:
			c.JSON(http.StatusForbidden, gin.H{"error": "chat opens once the order is paid"})
			return
		}

		conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &ws.Client{
			UserID: claims.UserID,
			Role:   claims.Role,
			Send:   make(chan []byte, 256),
		}
		room := chatHub.GetOrCreateRoom(order.ID, order.UserID, order.SellerID)
		room.Join(client)
		defer func() {
			room.Leave(client)
			client.Close()
		}()

		conn.SetReadDeadline(time.Now().Add(chatPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(chatPongWait))
			return nil
		})
		go func() {
			ticker := time.NewTicker(chatPingPeriod)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-client.Send:
					if !ok {
						return
					}
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg struct {
				Type string `json:"type"`
				Body string `json:"body"`
			}
			if json.Unmarshal(raw, &msg) != nil || msg.Type != "message" || msg.Body == "" {
				continue
			}
			cm := &models.ChatMessage{
				OrderID:  order.ID,
				SenderID: claims.UserID,
				Body:     msg.Body,
			}
			if err := chatRepo.CreateMessage(cm); err != nil {
				continue
			}
			payload := map[string]interface{}{
				"type":       "message",
				"id":         cm.ID,
				"order_id":   cm.OrderID,
				"sender_id":  cm.SenderID,
				"body":       cm.Body,
				"created_at": cm.CreatedAt,
			}
			room.Broadcast(client, payload)
		}
	}
}
