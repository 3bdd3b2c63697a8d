package models

import (
	"time"
)

// ReferralChainEntry is a materialized row of the ancestor walk: ancestor is
// `level` steps above the descendant (level 1 = direct referrer, up to 8).
// Rows for a descendant are replaced wholesale whenever the registry changes;
// they are a reporting cache, the parent pointers on users stay authoritative.
type ReferralChainEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_chain_user_level,unique" json:"user_id"` // descendant
	AncestorID   uint      `gorm:"not null;index" json:"ancestor_id"`
	Level        int       `gorm:"not null;index:idx_chain_user_level,unique" json:"level"` // 1..8
	CreatedAt    time.Time `json:"created_at"`

	User     User `gorm:"foreignKey:UserID" json:"-"`
	Ancestor User `gorm:"foreignKey:AncestorID" json:"-"`
}

func (ReferralChainEntry) TableName() string { return "referral_chain_entries" }
