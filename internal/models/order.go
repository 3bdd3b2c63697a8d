package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Ref      string `gorm:"size:64;uniqueIndex;not null" json:"ref"`
	UserID   uint   `gorm:"not null;index" json:"user_id"` // buyer
	SellerID uint   `gorm:"not null;index" json:"seller_id"`

	Subtotal        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"discount_amount"`
	Total           decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	CostTotal       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"-"`
	// Profit is Total minus CostTotal, fixed at checkout time. The gateway fee is
	// deducted later, when commissions are computed.
	Profit decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"-"`

	Status string `gorm:"size:20;not null;index" json:"status"` // PENDING, PAID, SHIPPED, DELIVERED, CANCELLED
	// CommissionsDistributed guards settlement: it is flipped with a conditional
	// update so commissions are written exactly once per order.
	CommissionsDistributed bool `gorm:"not null;default:false" json:"commissions_distributed"`

	PaidAt      *time.Time     `json:"paid_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User   User        `gorm:"foreignKey:UserID" json:"-"`
	Seller User        `gorm:"foreignKey:SellerID" json:"-"`
	Items  []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"-"`
	CreatedAt time.Time       `json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string { return "order_items" }
