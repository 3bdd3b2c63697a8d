package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet caches the running balance and serves as the per-user lock anchor:
// ledger appends take a row lock on it so concurrent appends serialize.
// The ledger entries remain the source of truth for the balance.
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance"`
	Currency  string          `gorm:"size:3;default:'INR'" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string { return "wallets" }

// WalletLedgerEntry is append-only: entries are never mutated or deleted.
// Corrections append a compensating entry with the negated amount and a
// reference back to the original.
type WalletLedgerEntry struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"` // positive = credit, negative = debit
	Reason    string          `gorm:"size:30;not null;index" json:"reason"`      // COMMISSION, REVERSAL, WITHDRAWAL, WITHDRAWAL_REFUND
	Reference string          `gorm:"size:128;index" json:"reference"`           // e.g. order ref, withdrawal ref, original entry id
	CreatedAt time.Time       `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (WalletLedgerEntry) TableName() string { return "wallet_ledger_entries" }
