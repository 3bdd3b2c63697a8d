package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage is one message in the buyer/seller conversation attached to an order.
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OrderID   uint           `gorm:"not null;index" json:"order_id"`
	SenderID  uint           `gorm:"not null;index" json:"sender_id"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Order  Order `gorm:"foreignKey:OrderID" json:"-"`
	Sender User  `gorm:"foreignKey:SenderID" json:"-"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
