package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Optional order header columns. Their absence marks an older layout.
var orderOptionalColumns = []string{
	"customer_email",
	"customer_phone",
	"subtotal_amount",
	"discount_applied",
	"discount_amount",
	"total_amount",
	"total_price",
	"payment_method",
	"order_date",
	"created_by",
}

var itemOptionalColumns = []string{
	"product_id",
	"product_name",
	"unit_price",
	"total_price",
	"price",
}

// canonical columns that must be present before orders can be written
var (
	canonicalOrderColumns = []string{
		"customer_email", "customer_phone", "subtotal_amount", "discount_applied",
		"discount_amount", "total_amount", "payment_method", "order_date", "created_by",
	}
	canonicalItemColumns = []string{"product_id", "product_name", "unit_price", "total_price"}
)

// SchemaProfile records which optional columns exist on the order tables.
// It is built once by DetectSchema and fixes the statements used afterwards.
type SchemaProfile struct {
	OrderColumns map[string]bool
	ItemColumns  map[string]bool

	orderSelect string
	itemSelect  string
}

// DetectSchema reads column metadata for orders and order_items and builds
// the read statements for the layout it finds.
func DetectSchema(db *gorm.DB) (*SchemaProfile, error) {
	orderCols, err := columnSet(db, "orders")
	if err != nil {
		return nil, err
	}
	itemCols, err := columnSet(db, "order_items")
	if err != nil {
		return nil, err
	}
	return NewSchemaProfile(orderCols, itemCols), nil
}

// NewSchemaProfile builds a profile from known column names.
func NewSchemaProfile(orderCols, itemCols map[string]bool) *SchemaProfile {
	p := &SchemaProfile{
		OrderColumns: map[string]bool{},
		ItemColumns:  map[string]bool{},
	}
	for _, c := range orderOptionalColumns {
		p.OrderColumns[c] = orderCols[c]
	}
	for _, c := range itemOptionalColumns {
		p.ItemColumns[c] = itemCols[c]
	}
	p.orderSelect = p.buildOrderSelect()
	p.itemSelect = p.buildItemSelect()
	return p
}

// IsCanonical reports whether every canonical column is present.
func (p *SchemaProfile) IsCanonical() bool {
	for _, c := range canonicalOrderColumns {
		if !p.OrderColumns[c] {
			return false
		}
	}
	for _, c := range canonicalItemColumns {
		if !p.ItemColumns[c] {
			return false
		}
	}
	return true
}

// Missing lists the canonical columns absent from the detected layout.
func (p *SchemaProfile) Missing() []string {
	var out []string
	for _, c := range canonicalOrderColumns {
		if !p.OrderColumns[c] {
			out = append(out, "orders."+c)
		}
	}
	for _, c := range canonicalItemColumns {
		if !p.ItemColumns[c] {
			out = append(out, "order_items."+c)
		}
	}
	return out
}

// OrderSelect is the header SELECT, without WHERE or ORDER BY.
func (p *SchemaProfile) OrderSelect() string {
	return p.orderSelect
}

// ItemSelect is the item SELECT for one order id, parameterised on order_id.
func (p *SchemaProfile) ItemSelect() string {
	return p.itemSelect
}

func (p *SchemaProfile) buildOrderSelect() string {
	cols := []string{"o.id", "o.order_id", "o.customer_name"}
	for _, c := range orderOptionalColumns {
		cols = append(cols, optional("o", c, p.OrderColumns[c]))
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM orders o"
}

func (p *SchemaProfile) buildItemSelect() string {
	cols := []string{"i.id", "i.order_id", "i.quantity"}
	for _, c := range itemOptionalColumns {
		cols = append(cols, optional("i", c, p.ItemColumns[c]))
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM order_items i WHERE i.order_id = ? ORDER BY i.id"
}

func optional(alias, column string, present bool) string {
	if present {
		return alias + "." + column
	}
	return "NULL AS " + column
}

func columnSet(db *gorm.DB, table string) (map[string]bool, error) {
	if !db.Migrator().HasTable(table) {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	types, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	set := make(map[string]bool, len(types))
	for _, ct := range types {
		set[strings.ToLower(ct.Name())] = true
	}
	return set, nil
}
