package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/controllers"
	"github.com/sweetdelights/bakery-api/middleware"
	"github.com/sweetdelights/bakery-api/models"
)

const defaultOrigin = "http://localhost:3000"

// Setup builds the gin engine with every /api/v1 route registered.
func Setup(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	// Multipart bodies above this spill to disk; the handlers enforce the real limit.
	router.MaxMultipartMemory = 8 << 20

	v1 := router.Group("/api/v1")
	authenticated := middleware.EnsureValidToken(cfg)
	admin := middleware.RequireRole(models.RoleAdmin)

	HealthRoute(v1)
	AuthRoute(v1)
	UserRoute(v1, authenticated, admin)
	ProductRoute(v1, authenticated, admin)
	OrderRoute(v1, authenticated, admin)
	ReportRoute(v1, authenticated, admin)
	UploadRoute(v1)

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{defaultOrigin}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// HealthRoute sets up liveness and database status.
func HealthRoute(rg *gin.RouterGroup) {
	rg.GET("/health", controllers.HealthCheck)
	rg.GET("/database/status", controllers.DatabaseStatus)
}

// AuthRoute sets up login and logout. Login is rate limited per client IP.
func AuthRoute(rg *gin.RouterGroup) {
	authRoutes := rg.Group("/auth")
	{
		authRoutes.POST("/login",
			middleware.RateLimit(config.RedisClient, "login", middleware.LoginRateLimit, middleware.LoginRateWindow),
			controllers.Login)
		authRoutes.POST("/logout", controllers.Logout)
	}
}

// UserRoute sets up the routes for staff accounts.
func UserRoute(rg *gin.RouterGroup, authenticated, admin gin.HandlerFunc) {
	userRoutes := rg.Group("/users", authenticated)
	{
		userRoutes.GET("/me", controllers.GetMyProfile)
		userRoutes.POST("", admin, controllers.CreateUser)
	}
}

// ProductRoute sets up the routes for the product catalog.
func ProductRoute(rg *gin.RouterGroup, authenticated, admin gin.HandlerFunc) {
	productRoutes := rg.Group("/products", authenticated)
	{
		productRoutes.GET("", controllers.GetProducts)
		productRoutes.GET("/:id", controllers.GetProduct)
		productRoutes.POST("", admin, controllers.CreateProduct)
		productRoutes.PUT("/:id", admin, controllers.UpdateProduct)
		productRoutes.DELETE("/:id", admin, controllers.DeleteProduct)
	}
}

// OrderRoute sets up the routes for placing and viewing orders.
func OrderRoute(rg *gin.RouterGroup, authenticated, admin gin.HandlerFunc) {
	orderRoutes := rg.Group("/orders", authenticated)
	{
		orderRoutes.POST("", controllers.CreateOrder)
		orderRoutes.GET("", admin, controllers.GetOrders)
		orderRoutes.GET("/:order_id", controllers.GetOrder)
		orderRoutes.GET("/:order_id/invoice", controllers.GetOrderInvoice)
		orderRoutes.GET("/:order_id/receipt", controllers.GetOrderReceipt)
	}
}

// ReportRoute sets up the admin dashboard and PDF report.
func ReportRoute(rg *gin.RouterGroup, authenticated, admin gin.HandlerFunc) {
	reportRoutes := rg.Group("/reports", authenticated, admin)
	{
		reportRoutes.GET("/dashboard", controllers.GetDashboard)
		reportRoutes.GET("/orders", controllers.GetOrdersReport)
	}
}

// UploadRoute serves locally stored product images.
func UploadRoute(rg *gin.RouterGroup) {
	rg.GET("/uploads/:filename", controllers.GetUploadedImage)
}
