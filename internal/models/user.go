package models

import (
	"time"

	"bazaar/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Username     string  `gorm:"uniqueIndex;size:64;not null;default:''" json:"username"`
	Email        string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string  `gorm:"size:255" json:"-"`
	Role         string  `gorm:"size:20;not null;index" json:"role"` // CUSTOMER | SELLER | ADMIN
	GoogleID     *string `gorm:"uniqueIndex;size:255" json:"-"`      // nil for email signups (avoids duplicate '' on unique index)
	Phone        string  `gorm:"size:20" json:"phone"`

	// ReferralCode is issued once on first request and never changes afterwards.
	ReferralCode *string `gorm:"uniqueIndex;size:20" json:"referral_code,omitempty"`
	// ReferredByUserID points at the referrer. The relation is set at most once
	// and must stay acyclic (no user may be its own ancestor at any depth).
	ReferredByUserID *uint `gorm:"index" json:"referred_by_user_id,omitempty"`
	// TotalPurchase accumulates settled order totals; it only ever grows.
	TotalPurchase decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_purchase"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ReferredBy *User `gorm:"foreignKey:ReferredByUserID" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsSeller() bool   { return u.Role == domain.RoleSeller }
func (u *User) IsCustomer() bool { return u.Role == domain.RoleCustomer }
func (u *User) IsAdmin() bool    { return u.Role == domain.RoleAdmin }
