package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCategory = "General"

// Product is a catalog entry. Quantity is a display label such as "6 pcs" or
// "500g", not a stock count. Products are deactivated, never deleted.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	QuantityLabel string          `gorm:"column:quantity;size:50;not null;default:''" json:"quantity"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Image         *string         `gorm:"size:255" json:"image"`
	ImageURL      string          `gorm:"-" json:"image_url,omitempty"`
	Category      string          `gorm:"size:50;not null;default:'General'" json:"category"`
	Active        bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
