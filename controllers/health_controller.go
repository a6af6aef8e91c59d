package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/migrations"
)

// HealthCheck handles GET /api/v1/health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Bakery API is running",
	})
}

// DatabaseStatus checks database connectivity and returns table and schema information
func DatabaseStatus(c *gin.Context) {
	ctx := requestContext(c)
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to get database instance")
		return
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error(ctx, "database ping failed", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_CONNECTION_ERROR", "Database connection failed")
		return
	}

	tables, err := db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_QUERY_ERROR", "Failed to query tables")
		return
	}

	version, err := migrations.CurrentVersion(db)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_QUERY_ERROR", "Failed to read schema version")
		return
	}

	data := gin.H{
		"tables":         tables,
		"schema_version": version,
		"latest_version": migrations.Latest(),
	}
	if profile, err := currentProfile(); err == nil {
		data["order_schema_canonical"] = profile.IsCanonical()
		if missing := profile.Missing(); len(missing) > 0 {
			data["order_schema_missing"] = missing
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"data":    data,
	})
}
