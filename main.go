package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/controllers"
	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/migrations"
	"github.com/sweetdelights/bakery-api/repository"
	"github.com/sweetdelights/bakery-api/routes"
	"github.com/sweetdelights/bakery-api/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		FilePath: cfg.LogFile,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	logger.Info(ctx, "starting bakery API server", "env", cfg.GoEnv)

	router, err := bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	addr := ":" + cfg.Port
	logger.Info(ctx, "server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// bootstrap connects and migrates the database, seeds the admin account,
// wires redis and image storage, and returns the configured router.
func bootstrap(ctx context.Context, cfg *config.Config) (*gin.Engine, error) {
	config.SetConfig(cfg)
	if err := config.ConnectDatabase(cfg); err != nil {
		return nil, err
	}
	db := config.GetDB()

	if err := migrations.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	profile, err := repository.DetectSchema(db)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect order schema: %w", err)
	}
	if !profile.IsCanonical() {
		logger.Warn(ctx, "order tables use a legacy layout; writes are disabled", "missing", profile.Missing())
	}
	controllers.SetSchemaProfile(profile)

	if _, err := repository.NewUserRepository(db).EnsureDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to create default admin: %w", err)
	}

	config.InitRedis(cfg)

	if _, err := services.InitImageService(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}

	return routes.Setup(cfg), nil
}
