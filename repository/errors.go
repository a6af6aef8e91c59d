package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrMissingCustomerName = errors.New("customer name is required")
	ErrOrderIDExhausted    = errors.New("could not allocate a unique order id")
	ErrOrderCreationFailed = errors.New("order creation failed")
	ErrSchemaOutdated      = errors.New("order tables are not on the current schema; run migrations")
)

// isUniqueViolation recognises duplicate-key failures from both drivers. With
// TranslateError enabled gorm reports gorm.ErrDuplicatedKey; the string checks
// cover handles opened without it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
