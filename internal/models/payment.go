package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	OrderID        uint            `gorm:"not null;index" json:"order_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Currency       string          `gorm:"size:3;default:'INR'" json:"currency"`
	Provider       string          `gorm:"size:50;not null" json:"provider"`
	ProviderRef    string          `gorm:"size:255;uniqueIndex" json:"provider_ref"`
	Status         string          `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED, EXPIRED
	IdempotencyKey string          `gorm:"size:255;uniqueIndex" json:"-"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	CompletedAt    *time.Time      `json:"completed_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (Payment) TableName() string { return "payments" }
