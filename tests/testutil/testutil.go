package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/controllers"
	"github.com/sweetdelights/bakery-api/migrations"
	"github.com/sweetdelights/bakery-api/models"
	"github.com/sweetdelights/bakery-api/repository"
	"github.com/sweetdelights/bakery-api/routes"
	"github.com/sweetdelights/bakery-api/services"
)

const (
	AdminUsername   = "owner"
	AdminPassword   = "owner-secret"
	ManagerUsername = "frontdesk"
	ManagerPassword = "frontdesk-secret"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	RequireTestEnvironment(t)
}

// Config returns a test configuration backed by a sqlite file and an
// upload directory under t.TempDir().
func Config(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DatabaseURL:       "sqlite://" + filepath.Join(dir, "bakery_test.db"),
		Port:              "8080",
		GoEnv:             "test",
		JWTSecret:         "integration-test-secret",
		JWTIssuer:         "sweet-delights-bakery",
		JWTAudience:       "bakery-staff",
		SessionCookieName: "bakery_session",
		SessionTTLHours:   12,
		UploadDir:         filepath.Join(dir, "uploads"),
		CORSOrigins:       []string{"http://localhost:3000"},
		BusinessName:      "Sweet Delights Bakery",
		LogLevel:          "error",
	}
}

// App is a fully wired application for end-to-end tests.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Admin  *models.User
	Staff  *models.User
}

// NewApp connects and migrates a fresh database, seeds an admin and a
// manager, installs local image storage and builds the real router.
func NewApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	cfg := Config(t)
	config.SetConfig(cfg)
	require.NoError(t, config.ConnectDatabase(cfg))
	db := config.GetDB()
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, migrations.Migrate(ctx, db))
	profile, err := repository.DetectSchema(db)
	require.NoError(t, err)
	controllers.SetSchemaProfile(profile)
	t.Cleanup(func() { controllers.SetSchemaProfile(nil) })

	users := repository.NewUserRepository(db).WithHashCost(bcrypt.MinCost)
	admin, err := users.Create(ctx, AdminUsername, AdminPassword, models.RoleAdmin)
	require.NoError(t, err)
	staff, err := users.Create(ctx, ManagerUsername, ManagerPassword, models.RoleManager)
	require.NoError(t, err)

	config.SetRedisClient(nil)
	prevImages := services.GetImageService()
	_, err = services.InitImageService(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { services.SetImageService(prevImages) })

	return &App{
		Config: cfg,
		DB:     db,
		Router: routes.Setup(cfg),
		Admin:  admin,
		Staff:  staff,
	}
}
