package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sweetdelights/bakery-api/models"
)

// UnknownProductName stands in for an item row without a product name.
const UnknownProductName = "Unknown Product"

// OrderView is an order as every reader sees it, whatever layout it was
// stored in. Amounts are already resolved; readers must not recompute them.
type OrderView struct {
	ID              uint            `json:"id"`
	OrderID         string          `json:"order_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountApplied bool            `json:"discount_applied"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalTotal      decimal.Decimal `json:"final_total"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentLabel    string          `json:"payment_label"`
	OrderDate       time.Time       `json:"order_date"`
	CreatedBy       *uint           `json:"created_by,omitempty"`
	Items           []OrderItemView `json:"items,omitempty"`
}

// OrderItemView is one resolved order line.
type OrderItemView struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ShowDiscount reports whether documents should print a discount line.
func (v *OrderView) ShowDiscount() bool {
	return v.DiscountApplied && v.DiscountAmount.IsPositive()
}

// orderRow is the raw header row. Every optional column is nullable here
// because the profile may select NULL in its place.
type orderRow struct {
	ID              uint                `gorm:"column:id"`
	OrderID         string              `gorm:"column:order_id"`
	CustomerName    sql.NullString      `gorm:"column:customer_name"`
	CustomerEmail   sql.NullString      `gorm:"column:customer_email"`
	CustomerPhone   sql.NullString      `gorm:"column:customer_phone"`
	SubtotalAmount  decimal.NullDecimal `gorm:"column:subtotal_amount"`
	DiscountApplied sql.NullBool        `gorm:"column:discount_applied"`
	DiscountAmount  decimal.NullDecimal `gorm:"column:discount_amount"`
	TotalAmount     decimal.NullDecimal `gorm:"column:total_amount"`
	TotalPrice      decimal.NullDecimal `gorm:"column:total_price"`
	PaymentMethod   sql.NullString      `gorm:"column:payment_method"`
	OrderDate       sql.NullTime        `gorm:"column:order_date"`
	CreatedBy       sql.NullInt64       `gorm:"column:created_by"`
}

type itemRow struct {
	ID          uint                `gorm:"column:id"`
	OrderID     string              `gorm:"column:order_id"`
	Quantity    sql.NullInt64       `gorm:"column:quantity"`
	ProductID   sql.NullInt64       `gorm:"column:product_id"`
	ProductName sql.NullString      `gorm:"column:product_name"`
	UnitPrice   decimal.NullDecimal `gorm:"column:unit_price"`
	TotalPrice  decimal.NullDecimal `gorm:"column:total_price"`
	Price       decimal.NullDecimal `gorm:"column:price"`
}

// Totals are the resolved header amounts.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalTotal     decimal.Decimal
}

// ResolveTotals applies the fallback chains for older layouts.
// Subtotal: subtotal_amount, then total_amount, then total_price, else 0.
// Final total: total_amount, then total_price, else subtotal minus discount.
// A zero value counts as absent in both chains.
func ResolveTotals(subtotalAmount, discountAmount, totalAmount, totalPrice decimal.NullDecimal) Totals {
	discount := valueOrZero(discountAmount)

	subtotal := firstNonZero(subtotalAmount, totalAmount, totalPrice)
	final, ok := firstNonZeroOK(totalAmount, totalPrice)
	if !ok {
		final = subtotal.Sub(discount)
	}

	return Totals{Subtotal: subtotal, DiscountAmount: discount, FinalTotal: final}
}

// ResolveItemPrices prefers unit_price and total_price, falling back to the
// legacy single price column for both, else 0.
func ResolveItemPrices(unitPrice, totalPrice, price decimal.NullDecimal) (unit, line decimal.Decimal) {
	legacy := valueOrZero(price)
	unit = legacy
	line = legacy
	if unitPrice.Valid {
		unit = unitPrice.Decimal
	}
	if totalPrice.Valid {
		line = totalPrice.Decimal
	}
	return unit, line
}

// ResolveProductName substitutes the placeholder for a blank name.
func ResolveProductName(name sql.NullString) string {
	if !name.Valid || strings.TrimSpace(name.String) == "" {
		return UnknownProductName
	}
	return name.String
}

// PaymentLabel formats a stored payment method for display: "credit card"
// becomes "Credit Card".
func PaymentLabel(method string) string {
	if method == "" {
		method = models.DefaultPaymentMethod
	}
	return cases.Title(language.English).String(method)
}

func (r orderRow) toView(now time.Time) OrderView {
	totals := ResolveTotals(r.SubtotalAmount, r.DiscountAmount, r.TotalAmount, r.TotalPrice)

	payment := models.DefaultPaymentMethod
	if r.PaymentMethod.Valid && strings.TrimSpace(r.PaymentMethod.String) != "" {
		payment = r.PaymentMethod.String
	}

	// Rows without order_date only exist before migration v2; they read as the
	// caller's clock, so repeated reads agree only for the same now.
	date := now
	if r.OrderDate.Valid {
		date = r.OrderDate.Time
	}

	v := OrderView{
		ID:              r.ID,
		OrderID:         r.OrderID,
		CustomerName:    r.CustomerName.String,
		CustomerEmail:   r.CustomerEmail.String,
		CustomerPhone:   r.CustomerPhone.String,
		Subtotal:        totals.Subtotal,
		DiscountApplied: r.DiscountApplied.Valid && r.DiscountApplied.Bool,
		DiscountAmount:  totals.DiscountAmount,
		FinalTotal:      totals.FinalTotal,
		PaymentMethod:   payment,
		PaymentLabel:    PaymentLabel(payment),
		OrderDate:       date,
	}
	if r.CreatedBy.Valid {
		id := uint(r.CreatedBy.Int64)
		v.CreatedBy = &id
	}
	return v
}

func (r itemRow) toView() OrderItemView {
	unit, line := ResolveItemPrices(r.UnitPrice, r.TotalPrice, r.Price)
	v := OrderItemView{
		ProductName: ResolveProductName(r.ProductName),
		Quantity:    int(r.Quantity.Int64),
		UnitPrice:   unit,
		LineTotal:   line,
	}
	if r.ProductID.Valid {
		v.ProductID = uint(r.ProductID.Int64)
	}
	return v
}

func valueOrZero(v decimal.NullDecimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return decimal.Zero
}

func firstNonZero(values ...decimal.NullDecimal) decimal.Decimal {
	v, _ := firstNonZeroOK(values...)
	return v
}

func firstNonZeroOK(values ...decimal.NullDecimal) (decimal.Decimal, bool) {
	for _, v := range values {
		if v.Valid && !v.Decimal.IsZero() {
			return v.Decimal, true
		}
	}
	return decimal.Zero, false
}
