package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/repository"
)

var (
	schemaProfile   *repository.SchemaProfile
	schemaProfileMu sync.RWMutex

	// now is the handlers' clock
	now = time.Now
)

// SetSchemaProfile records the order table layout detected at startup.
func SetSchemaProfile(profile *repository.SchemaProfile) {
	schemaProfileMu.Lock()
	schemaProfile = profile
	schemaProfileMu.Unlock()
}

// currentProfile returns the startup profile, detecting it on first use
// when none was set.
func currentProfile() (*repository.SchemaProfile, error) {
	schemaProfileMu.RLock()
	p := schemaProfile
	schemaProfileMu.RUnlock()
	if p != nil {
		return p, nil
	}

	p, err := repository.DetectSchema(config.GetDB())
	if err != nil {
		return nil, err
	}
	SetSchemaProfile(p)
	return p, nil
}

func orderRepository() (*repository.OrderRepository, error) {
	profile, err := currentProfile()
	if err != nil {
		return nil, err
	}
	return repository.NewOrderRepository(config.GetDB(), profile), nil
}

func productRepository() *repository.ProductRepository {
	return repository.NewProductRepository(config.GetDB())
}

func userRepository() *repository.UserRepository {
	return repository.NewUserRepository(config.GetDB())
}

// requestContext tags the request context with the route for logging.
func requestContext(c *gin.Context) context.Context {
	return logger.WithFields(c.Request.Context(), "method", c.Request.Method, "path", c.FullPath())
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondErrorDetails(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// money renders an amount with exactly two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
