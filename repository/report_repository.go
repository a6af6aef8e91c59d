package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardStats are the figures shown on the admin dashboard.
type DashboardStats struct {
	ProductCount int64           `json:"product_count"`
	OrderCount   int64           `json:"order_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	UserCount    int64           `json:"user_count"`
	TodaySales   decimal.Decimal `json:"today_sales"`
	TodayOrders  int64           `json:"today_orders"`
}

// ReportLine is one order in the all-orders report.
type ReportLine struct {
	Order         OrderView
	ItemCount     int64
	TotalQuantity int64
}

// OrdersReport is the all-orders report with its summary.
type OrdersReport struct {
	GeneratedAt   time.Time
	Lines         []ReportLine
	TotalRevenue  decimal.Decimal
	TotalOrders   int
	TotalItems    int64
	TotalDiscount decimal.Decimal
}

// ReportRepository aggregates orders through their canonical views, so every
// figure follows the same total resolution as invoices.
type ReportRepository struct {
	db       *gorm.DB
	orders   *OrderRepository
	products *ProductRepository
	users    *UserRepository
}

func NewReportRepository(db *gorm.DB, orders *OrderRepository) *ReportRepository {
	return &ReportRepository{
		db:       db,
		orders:   orders,
		products: NewProductRepository(db),
		users:    NewUserRepository(db),
	}
}

// Dashboard computes catalog, order and revenue figures. "Today" starts at
// midnight in now's location.
func (r *ReportRepository) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{TotalRevenue: decimal.Zero, TodaySales: decimal.Zero}

	var err error
	if stats.ProductCount, err = r.products.CountActive(ctx); err != nil {
		return nil, err
	}
	if stats.UserCount, err = r.users.Count(ctx); err != nil {
		return nil, err
	}

	orders, err := r.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	stats.OrderCount = int64(len(orders))
	for _, o := range orders {
		stats.TotalRevenue = stats.TotalRevenue.Add(o.FinalTotal)
		if !o.OrderDate.Before(midnight) {
			stats.TodaySales = stats.TodaySales.Add(o.FinalTotal)
			stats.TodayOrders++
		}
	}
	return stats, nil
}

type itemAggregate struct {
	OrderID       string `gorm:"column:order_id"`
	ItemCount     int64  `gorm:"column:item_count"`
	TotalQuantity int64  `gorm:"column:total_quantity"`
}

// OrdersReport lists every order with item counts, newest first.
func (r *ReportRepository) OrdersReport(ctx context.Context, now time.Time) (*OrdersReport, error) {
	orders, err := r.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	var aggs []itemAggregate
	err = r.db.WithContext(ctx).Raw(
		"SELECT order_id, COUNT(*) AS item_count, COALESCE(SUM(quantity), 0) AS total_quantity FROM order_items GROUP BY order_id",
	).Scan(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order items: %w", err)
	}
	byOrder := make(map[string]itemAggregate, len(aggs))
	for _, a := range aggs {
		byOrder[a.OrderID] = a
	}

	report := &OrdersReport{
		GeneratedAt:   now,
		Lines:         make([]ReportLine, 0, len(orders)),
		TotalRevenue:  decimal.Zero,
		TotalOrders:   len(orders),
		TotalDiscount: decimal.Zero,
	}
	for _, o := range orders {
		a := byOrder[o.OrderID]
		report.Lines = append(report.Lines, ReportLine{Order: o, ItemCount: a.ItemCount, TotalQuantity: a.TotalQuantity})
		report.TotalRevenue = report.TotalRevenue.Add(o.FinalTotal)
		report.TotalItems += a.TotalQuantity
		if o.ShowDiscount() {
			report.TotalDiscount = report.TotalDiscount.Add(o.DiscountAmount)
		}
	}
	return report, nil
}
