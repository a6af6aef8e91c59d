// Package pricing validates a submitted cart and computes its subtotal,
// discount and final total. It has no side effects.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// DiscountThreshold is the subtotal at or above which the flat discount applies.
	DiscountThreshold = decimal.RequireFromString("150.00")
	// DiscountRate is the flat discount rate.
	DiscountRate = decimal.RequireFromString("0.04")
	// Tolerance is the largest accepted difference between a client figure
	// and the server's own computation.
	Tolerance = decimal.RequireFromString("0.01")
)

// Error codes returned in PricingError.Code
const (
	CodeEmptyCart          = "EMPTY_CART"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidUnitPrice   = "INVALID_UNIT_PRICE"
	CodeIneligibleDiscount = "INELIGIBLE_DISCOUNT"
	CodeDiscountMismatch   = "DISCOUNT_MISMATCH"
	CodeSubtotalMismatch   = "SUBTOTAL_MISMATCH"
)

// PricingError is a client-input error. Nothing is persisted when one is returned.
type PricingError struct {
	Code    string
	Message string
}

func (e *PricingError) Error() string {
	return e.Message
}

// Is matches on Code so callers can use errors.Is with the sentinels below.
func (e *PricingError) Is(target error) bool {
	t, ok := target.(*PricingError)
	return ok && t.Code == e.Code
}

var (
	ErrEmptyCart          = &PricingError{Code: CodeEmptyCart, Message: "Cart is empty"}
	ErrInvalidQuantity    = &PricingError{Code: CodeInvalidQuantity, Message: "Quantity must be at least 1"}
	ErrInvalidUnitPrice   = &PricingError{Code: CodeInvalidUnitPrice, Message: "Unit price must not be negative"}
	ErrIneligibleDiscount = &PricingError{Code: CodeIneligibleDiscount, Message: "Discount requires a subtotal of at least 150.00"}
	ErrDiscountMismatch   = &PricingError{Code: CodeDiscountMismatch, Message: "Discount amount does not match 4% of the subtotal"}
	ErrSubtotalMismatch   = &PricingError{Code: CodeSubtotalMismatch, Message: "Subtotal does not match the cart contents"}
)

// LineItem is one submitted cart line. Name and unit price are the values the
// client saw when the cart was built.
type LineItem struct {
	ProductID   uint
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// PricedLine is a LineItem with its line total fixed.
type PricedLine struct {
	LineItem
	LineTotal decimal.Decimal
}

// Claim carries the figures the client computed. Subtotal is optional.
type Claim struct {
	DiscountApplied bool
	DiscountAmount  decimal.Decimal
	Subtotal        *decimal.Decimal
}

// Breakdown is the accepted set of order amounts.
// FinalTotal always equals Subtotal minus DiscountAmount.
type Breakdown struct {
	Subtotal        decimal.Decimal
	DiscountApplied bool
	DiscountAmount  decimal.Decimal
	FinalTotal      decimal.Decimal
}

// Quote is the result of pricing a cart.
type Quote struct {
	Lines     []PricedLine
	Breakdown Breakdown
}

// PriceCart validates items and the client's claim and returns the
// server-computed amounts.
func PriceCart(items []LineItem, claim Claim) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]PricedLine, 0, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, withDetail(ErrInvalidQuantity, "line %d (%s): quantity %d", i+1, item.ProductName, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return nil, withDetail(ErrInvalidUnitPrice, "line %d (%s): unit price %s", i+1, item.ProductName, item.UnitPrice.StringFixed(2))
		}
		exact := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, PricedLine{LineItem: item, LineTotal: exact.Round(2)})
		subtotal = subtotal.Add(exact)
	}
	// rounded once over the exact sum; per-line rounding can cross the discount threshold
	subtotal = subtotal.Round(2)

	if claim.Subtotal != nil && !withinTolerance(*claim.Subtotal, subtotal) {
		return nil, withDetail(ErrSubtotalMismatch, "expected %s, got %s", subtotal.StringFixed(2), claim.Subtotal.StringFixed(2))
	}

	discount := decimal.Zero
	if claim.DiscountApplied {
		if subtotal.LessThan(DiscountThreshold) {
			return nil, withDetail(ErrIneligibleDiscount, "subtotal is %s", subtotal.StringFixed(2))
		}
		expected := ExpectedDiscount(subtotal)
		if !withinTolerance(claim.DiscountAmount, expected) {
			return nil, withDetail(ErrDiscountMismatch, "expected %s, got %s", expected.StringFixed(2), claim.DiscountAmount.StringFixed(2))
		}
		discount = expected
	}

	return &Quote{
		Lines: lines,
		Breakdown: Breakdown{
			Subtotal:        subtotal,
			DiscountApplied: claim.DiscountApplied,
			DiscountAmount:  discount,
			FinalTotal:      subtotal.Sub(discount),
		},
	}, nil
}

// ExpectedDiscount is the discount for subtotal, rounded to cents.
func ExpectedDiscount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(DiscountRate).Round(2)
}

// Eligible reports whether subtotal qualifies for the discount.
func Eligible(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(DiscountThreshold)
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

func withDetail(base *PricingError, format string, args ...any) *PricingError {
	return &PricingError{
		Code:    base.Code,
		Message: fmt.Sprintf("%s: %s", base.Message, fmt.Sprintf(format, args...)),
	}
}
