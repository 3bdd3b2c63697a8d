package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission is one referrer's share of a settled order. Rows are immutable:
// a wrong commission is corrected by a compensating wallet ledger entry, the
// commission row itself is never updated or deleted.
type Commission struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;index:idx_commission_order_beneficiary,unique" json:"order_id"`
	BeneficiaryID uint            `gorm:"not null;index:idx_commission_order_beneficiary,unique;index" json:"beneficiary_id"`
	Level         int             `gorm:"not null" json:"level"` // 1..8
	Rate          decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"rate"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`

	Order       Order `gorm:"foreignKey:OrderID" json:"-"`
	Beneficiary User  `gorm:"foreignKey:BeneficiaryID" json:"-"`
}

func (Commission) TableName() string { return "commissions" }
