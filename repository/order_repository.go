package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/models"
	"github.com/sweetdelights/bakery-api/pricing"
)

// MaxOrderIDAttempts bounds how many ids are tried before giving up.
const MaxOrderIDAttempts = 5

// OrderIDGenerator returns a candidate order id for the given instant.
type OrderIDGenerator func(now time.Time) string

// RandomOrderID produces ORD-YYYYMMDD-NNNN with NNNN in 1000..9999, dated in UTC.
func RandomOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%d", now.UTC().Format("20060102"), 1000+rand.IntN(9000))
}

// CustomerInfo identifies who the order is for.
type CustomerInfo struct {
	Name  string
	Email string
	Phone string
}

// CreateOrderInput is everything needed to persist a priced order.
type CreateOrderInput struct {
	Customer      CustomerInfo
	PaymentMethod string
	Lines         []pricing.PricedLine
	Breakdown     pricing.Breakdown
	CreatedBy     *uint
}

// OrderRepository reads and writes orders using the layout fixed by its profile.
type OrderRepository struct {
	db      *gorm.DB
	profile *SchemaProfile
	newID   OrderIDGenerator
	now     func() time.Time
}

// NewOrderRepository wires a repository to db using the detected profile.
func NewOrderRepository(db *gorm.DB, profile *SchemaProfile) *OrderRepository {
	return &OrderRepository{
		db:      db,
		profile: profile,
		newID:   RandomOrderID,
		now:     time.Now,
	}
}

// WithIDGenerator replaces the order id generator.
func (r *OrderRepository) WithIDGenerator(gen OrderIDGenerator) *OrderRepository {
	r.newID = gen
	return r
}

// WithClock replaces the time source.
func (r *OrderRepository) WithClock(now func() time.Time) *OrderRepository {
	r.now = now
	return r
}

// Profile returns the schema profile the repository was built with.
func (r *OrderRepository) Profile() *SchemaProfile {
	return r.profile
}

// CreateOrder writes the header and all items in one transaction and returns
// the canonical view of the new order. A duplicate order id rolls the
// transaction back and is retried with a fresh id.
func (r *OrderRepository) CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderView, error) {
	name := strings.TrimSpace(in.Customer.Name)
	if name == "" {
		return nil, ErrMissingCustomerName
	}
	if !r.profile.IsCanonical() {
		return nil, fmt.Errorf("%w: missing %s", ErrSchemaOutdated, strings.Join(r.profile.Missing(), ", "))
	}
	if len(in.Lines) == 0 {
		return nil, pricing.ErrEmptyCart
	}

	payment := strings.TrimSpace(in.PaymentMethod)
	if payment == "" {
		payment = models.DefaultPaymentMethod
	}
	in.Customer.Name = name
	in.PaymentMethod = payment

	for attempt := 1; attempt <= MaxOrderIDAttempts; attempt++ {
		placedAt := r.now().UTC()
		orderID := r.newID(placedAt)

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Table("orders").Create(r.headerValues(orderID, placedAt, in)).Error; err != nil {
				return &headerInsertError{err: err}
			}
			for _, line := range in.Lines {
				if err := tx.Table("order_items").Create(r.itemValues(orderID, line)).Error; err != nil {
					return fmt.Errorf("failed to insert item %q: %w", line.ProductName, err)
				}
			}
			return nil
		})

		if err == nil {
			logger.Info(ctx, "order created", "order_id", orderID, "attempt", attempt,
				"final_total", in.Breakdown.FinalTotal.StringFixed(2))
			return r.GetCanonicalOrder(ctx, orderID)
		}

		var hdr *headerInsertError
		if errors.As(err, &hdr) && isUniqueViolation(hdr.err) {
			logger.Warn(ctx, "order id collision, retrying", "order_id", orderID, "attempt", attempt)
			continue
		}

		logger.Error(ctx, "order_repository.create failed", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	logger.Error(ctx, "order_repository.create exhausted order ids", "attempts", MaxOrderIDAttempts)
	return nil, ErrOrderIDExhausted
}

// headerInsertError marks a failure of the header insert, the only step
// whose unique violation means "pick another id".
type headerInsertError struct {
	err error
}

func (e *headerInsertError) Error() string {
	return "failed to insert order header: " + e.err.Error()
}

func (e *headerInsertError) Unwrap() error {
	return e.err
}

func (r *OrderRepository) headerValues(orderID string, placedAt time.Time, in CreateOrderInput) map[string]interface{} {
	b := in.Breakdown
	values := map[string]interface{}{
		"order_id":         orderID,
		"customer_name":    in.Customer.Name,
		"customer_email":   strings.TrimSpace(in.Customer.Email),
		"customer_phone":   strings.TrimSpace(in.Customer.Phone),
		"subtotal_amount":  b.Subtotal,
		"discount_applied": b.DiscountApplied,
		"discount_amount":  b.DiscountAmount,
		"total_amount":     b.FinalTotal,
		"payment_method":   in.PaymentMethod,
		"order_date":       placedAt,
		"created_by":       in.CreatedBy,
	}
	// legacy column still present alongside the canonical ones
	if r.profile.OrderColumns["total_price"] {
		values["total_price"] = b.FinalTotal
	}
	return values
}

func (r *OrderRepository) itemValues(orderID string, line pricing.PricedLine) map[string]interface{} {
	values := map[string]interface{}{
		"order_id":     orderID,
		"product_id":   line.ProductID,
		"product_name": line.ProductName,
		"quantity":     line.Quantity,
		"unit_price":   line.UnitPrice,
		"total_price":  line.LineTotal,
	}
	if r.profile.ItemColumns["price"] {
		values["price"] = line.UnitPrice
	}
	return values
}

// GetCanonicalOrder returns the order with its items, resolving amounts for
// whichever layout the row was stored in.
func (r *OrderRepository) GetCanonicalOrder(ctx context.Context, orderID string) (*OrderView, error) {
	var rows []orderRow
	res := r.db.WithContext(ctx).Raw(r.profile.OrderSelect()+" WHERE o.order_id = ?", orderID).Scan(&rows)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, res.Error)
	}
	if len(rows) == 0 {
		return nil, ErrOrderNotFound
	}

	view := rows[0].toView(r.now())
	items, err := r.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view.Items = items
	return &view, nil
}

// GetOrderItems returns the resolved items of one order in insertion order.
func (r *OrderRepository) GetOrderItems(ctx context.Context, orderID string) ([]OrderItemView, error) {
	var rows []itemRow
	if err := r.db.WithContext(ctx).Raw(r.profile.ItemSelect(), orderID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load items for order %s: %w", orderID, err)
	}
	items := make([]OrderItemView, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toView())
	}
	return items, nil
}

// ListOrders returns every order header, newest first, without items.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]OrderView, error) {
	var rows []orderRow
	if err := r.db.WithContext(ctx).Raw(r.profile.OrderSelect() + " ORDER BY o.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	now := r.now()
	views := make([]OrderView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.toView(now))
	}
	return views, nil
}
