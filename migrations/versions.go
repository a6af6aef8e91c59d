package migrations

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-api/models"
)

// indexes are the named indexes that must exist even on tables created
// before they were declared
var baselineModels = []struct {
	model   interface{}
	indexes []string
}{
	{&models.User{}, []string{"idx_users_username"}},
	{&models.Product{}, nil},
	{&models.Order{}, []string{"idx_orders_order_id"}},
	{&models.OrderItem{}, []string{"idx_order_items_order_id"}},
}

// baseline creates missing tables and adds missing canonical columns to
// existing ones. Existing columns are left as they are, so a legacy table
// keeps its data and its extra columns.
func baseline(tx *gorm.DB) error {
	m := tx.Migrator()
	for _, bm := range baselineModels {
		model := bm.model
		if !m.HasTable(model) {
			if err := m.CreateTable(model); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
			continue
		}

		stmt := &gorm.Statement{DB: tx}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("failed to parse %T: %w", model, err)
		}
		existing, err := columnNames(tx, stmt.Schema.Table)
		if err != nil {
			return err
		}
		for _, dbName := range stmt.Schema.DBNames {
			field := stmt.Schema.LookUpField(dbName)
			if field == nil || field.PrimaryKey || field.IgnoreMigration {
				continue
			}
			if existing[dbName] {
				continue
			}
			if err := m.AddColumn(model, dbName); err != nil {
				return fmt.Errorf("failed to add %s.%s: %w", stmt.Schema.Table, dbName, err)
			}
		}

		for _, idx := range bm.indexes {
			if m.HasIndex(model, idx) {
				continue
			}
			if err := m.CreateIndex(model, idx); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx, err)
			}
		}
	}
	return nil
}

// legacyBackfill copies amounts from the legacy columns into the canonical
// ones using the same fallbacks readers apply, then drops the legacy columns.
// On a fresh database there is nothing to copy and no column to drop.
func legacyBackfill(tx *gorm.DB) error {
	orderCols, err := columnNames(tx, "orders")
	if err != nil {
		return err
	}
	itemCols, err := columnNames(tx, "order_items")
	if err != nil {
		return err
	}
	hasOrderTotalPrice := orderCols["total_price"]
	hasItemPrice := itemCols["price"]

	totalPrice := "0"
	if hasOrderTotalPrice {
		totalPrice = "COALESCE(total_price, 0)"
	}
	// subtotal_amount, then total_amount, then total_price
	subtotal := fmt.Sprintf(
		"CASE WHEN COALESCE(subtotal_amount, 0) <> 0 THEN subtotal_amount "+
			"WHEN COALESCE(total_amount, 0) <> 0 THEN total_amount "+
			"ELSE %s END", totalPrice)
	// total_amount, then total_price, then subtotal minus discount
	final := fmt.Sprintf(
		"CASE WHEN COALESCE(total_amount, 0) <> 0 THEN total_amount "+
			"WHEN %[1]s <> 0 THEN %[1]s "+
			"ELSE (%[2]s) - COALESCE(discount_amount, 0) END", totalPrice, subtotal)

	if err := tx.Exec(
		"UPDATE orders SET subtotal_amount = " + subtotal + ", total_amount = " + final +
			" WHERE COALESCE(subtotal_amount, 0) = 0 OR COALESCE(total_amount, 0) = 0",
	).Error; err != nil {
		return fmt.Errorf("failed to back-fill order totals: %w", err)
	}

	if err := tx.Exec(
		"UPDATE orders SET payment_method = ? WHERE payment_method IS NULL OR payment_method = ''",
		models.DefaultPaymentMethod,
	).Error; err != nil {
		return fmt.Errorf("failed to back-fill payment methods: %w", err)
	}

	if hasItemPrice {
		if err := tx.Exec(
			"UPDATE order_items SET " +
				"unit_price = CASE WHEN COALESCE(unit_price, 0) = 0 THEN COALESCE(price, 0) ELSE unit_price END, " +
				"total_price = CASE WHEN COALESCE(total_price, 0) = 0 THEN COALESCE(price, 0) ELSE total_price END",
		).Error; err != nil {
			return fmt.Errorf("failed to back-fill item prices: %w", err)
		}
	}

	if err := tx.Exec(
		"UPDATE order_items SET product_name = ? WHERE product_name IS NULL OR TRIM(product_name) = ''",
		"Unknown Product",
	).Error; err != nil {
		return fmt.Errorf("failed to back-fill product names: %w", err)
	}

	if hasOrderTotalPrice {
		if err := tx.Exec("ALTER TABLE orders DROP COLUMN total_price").Error; err != nil {
			return fmt.Errorf("failed to drop orders.total_price: %w", err)
		}
	}
	if hasItemPrice {
		if err := tx.Exec("ALTER TABLE order_items DROP COLUMN price").Error; err != nil {
			return fmt.Errorf("failed to drop order_items.price: %w", err)
		}
	}
	return nil
}

// columnNames reads exact column names. Migrator.HasColumn on sqlite matches
// the table DDL with LIKE, so "price" would also match "unit_price".
func columnNames(tx *gorm.DB, table string) (map[string]bool, error) {
	types, err := tx.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	names := make(map[string]bool, len(types))
	for _, ct := range types {
		names[strings.ToLower(ct.Name())] = true
	}
	return names, nil
}
