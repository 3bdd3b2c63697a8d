package service

import (
	"encoding/json"

	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/ws"

	"go.uber.org/zap"
)

const (
	NotifyOrderPaid       = "ORDER_PAID"
	NotifyOrderShipped    = "ORDER_SHIPPED"
	NotifyOrderDelivered  = "ORDER_DELIVERED"
	NotifyCommissionPaid  = "COMMISSION_PAID"
	NotifyWithdrawal      = "WITHDRAWAL"
	NotifyReferralJoined  = "REFERRAL_JOINED"
	NotifyChatMessage     = "CHAT_MESSAGE"
)

type NotificationService struct {
	repo *repository.NotificationRepository
	hub  *ws.Hub
	log  *zap.Logger
}

func NewNotificationService(repo *repository.NotificationRepository, hub *ws.Hub, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, hub: hub, log: log}
}

// Notify persists an in-app notification. Failures are logged, not returned:
// a missed notification must never roll back the business write it follows.
func (s *NotificationService) Notify(userID uint, kind, title, body string, data map[string]interface{}) {
	payload := ""
	if data != nil {
		raw, err := json.Marshal(data)
		if err == nil {
			payload = string(raw)
		}
	}
	n := &models.Notification{
		UserID: userID,
		Type:   kind,
		Title:  title,
		Body:   body,
		Data:   payload,
	}
	if err := s.repo.Create(n); err != nil {
		s.log.Error("failed to store notification",
			zap.Uint("user_id", userID),
			zap.String("type", kind),
			zap.Error(err),
		)
		return
	}
	if s.hub != nil {
		s.hub.PushToUser(userID, map[string]interface{}{
			"type":       kind,
			"id":         n.ID,
			"title":      title,
			"body":       body,
			"data":       data,
			"created_at": n.CreatedAt,
		})
	}
}

func (s *NotificationService) List(userID uint, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListByUserID(userID, limit, offset)
}

func (s *NotificationService) MarkRead(id, userID uint) error {
	return s.repo.MarkRead(id, userID)
}
