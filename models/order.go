package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultPaymentMethod = "cash"

// Order is the canonical order header row. Amount columns carry defaults so
// they can be added to an existing legacy table in place.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         string          `gorm:"size:50;uniqueIndex:idx_orders_order_id;not null" json:"order_id"`
	CustomerName    string          `gorm:"size:100;not null;default:''" json:"customer_name"`
	CustomerEmail   string          `gorm:"size:100;not null;default:''" json:"customer_email"`
	CustomerPhone   string          `gorm:"size:20;not null;default:''" json:"customer_phone"`
	SubtotalAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal_amount"`
	DiscountApplied bool            `gorm:"not null;default:false" json:"discount_applied"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	PaymentMethod   string          `gorm:"size:50;not null;default:'cash'" json:"payment_method"`
	OrderDate       *time.Time      `json:"order_date"`
	CreatedBy       *uint           `json:"created_by"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one persisted line of an order. Name and prices are snapshots
// taken when the order was placed. OrderID references orders.order_id by value.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     string          `gorm:"size:50;index:idx_order_items_order_id;not null" json:"order_id"`
	ProductID   uint            `gorm:"not null;default:0" json:"product_id"`
	ProductName string          `gorm:"size:100;not null;default:''" json:"product_name"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_price"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
