package controllers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/documents"
	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/repository"
)

type dashboardResponse struct {
	ProductCount int64  `json:"product_count"`
	OrderCount   int64  `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
	UserCount    int64  `json:"user_count"`
	TodaySales   string `json:"today_sales"`
	TodayOrders  int64  `json:"today_orders"`
}

func reportRepository() (*repository.ReportRepository, error) {
	orders, err := orderRepository()
	if err != nil {
		return nil, err
	}
	return repository.NewReportRepository(config.GetDB(), orders), nil
}

// GetDashboard handles GET /api/v1/reports/dashboard
func GetDashboard(c *gin.Context) {
	ctx := requestContext(c)

	repo, err := reportRepository()
	if err == nil {
		var stats *repository.DashboardStats
		if stats, err = repo.Dashboard(ctx, now()); err == nil {
			respondData(c, http.StatusOK, dashboardResponse{
				ProductCount: stats.ProductCount,
				OrderCount:   stats.OrderCount,
				TotalRevenue: money(stats.TotalRevenue),
				UserCount:    stats.UserCount,
				TodaySales:   money(stats.TodaySales),
				TodayOrders:  stats.TodayOrders,
			})
			return
		}
	}

	logger.Error(ctx, "failed to build dashboard", "error", err)
	respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load dashboard")
}

// GetOrdersReport handles GET /api/v1/reports/orders - all orders as a PDF
func GetOrdersReport(c *gin.Context) {
	ctx := requestContext(c)

	repo, err := reportRepository()
	if err != nil {
		logger.Error(ctx, "failed to detect order schema", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build report")
		return
	}

	report, err := repo.OrdersReport(ctx, now())
	if err != nil {
		logger.Error(ctx, "failed to build orders report", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build report")
		return
	}

	var buf bytes.Buffer
	if err := newRenderer().RenderOrdersReport(&buf, report); err != nil {
		logger.Error(ctx, "failed to render orders report", "error", err)
		respondError(c, http.StatusInternalServerError, "DOCUMENT_ERROR", "Failed to generate report")
		return
	}

	sendPDF(c, documents.ReportFilename(report.GeneratedAt), &buf)
}
