package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/models"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		JWTIssuer:         "sweet-delights-bakery",
		JWTAudience:       "bakery-staff",
		SessionCookieName: "bakery_session",
		SessionTTLHours:   12,
	}
}

func protectedRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", EnsureValidToken(cfg), func(c *gin.Context) {
		id, err := GetUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		custom, err := GetCustomClaims(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "role": custom.Role, "username": custom.Username})
	})
	router.GET("/admin", EnsureValidToken(cfg), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func issue(t *testing.T, cfg *config.Config, user *models.User, now time.Time) string {
	t.Helper()
	token, expires, err := IssueToken(cfg, user, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(12*time.Hour), expires)
	return token
}

func TestEnsureValidToken(t *testing.T) {
	cfg := testConfig()
	router := protectedRouter(cfg)
	admin := &models.User{ID: 7, Username: "baker", Role: models.RoleAdmin}
	valid := issue(t, cfg, admin, time.Now())

	otherCfg := testConfig()
	otherCfg.JWTSecret = "another-secret"
	forged := issue(t, otherCfg, admin, time.Now())

	wrongAudience := testConfig()
	wrongAudience.JWTAudience = "someone-else"
	misdirected := issue(t, wrongAudience, admin, time.Now())

	expired := issue(t, cfg, admin, time.Now().Add(-13*time.Hour))

	tests := []struct {
		name       string
		setup      func(*http.Request)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "bearer header",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "session cookie",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "bakery_session", Value: valid}) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "no credentials",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "wrong signing secret",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+forged) },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_TOKEN",
		},
		{
			name:       "wrong audience",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+misdirected) },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_TOKEN",
		},
		{
			name:       "expired",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_TOKEN",
		},
		{
			name:       "garbage",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.jwt") },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_TOKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantCode != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.wantCode, body["error"].(map[string]interface{})["code"])
				return
			}
			assert.Equal(t, float64(7), body["id"])
			assert.Equal(t, "admin", body["role"])
			assert.Equal(t, "baker", body["username"])
		})
	}
}

func TestEnsureValidTokenRejectsUnknownRole(t *testing.T) {
	cfg := testConfig()
	token := issue(t, cfg, &models.User{ID: 1, Username: "x", Role: "owner"}, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedRouter(cfg).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleThroughRouter(t *testing.T) {
	cfg := testConfig()
	router := protectedRouter(cfg)

	tests := []struct {
		role       string
		wantStatus int
	}{
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleManager, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			token := issue(t, cfg, &models.User{ID: 2, Username: "u", Role: tt.role}, time.Now())
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantID    uint
		wantErr   bool
	}{
		{
			name: "successfully extracts user ID",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", uint(42))
			},
			wantID: 42,
		},
		{
			name:      "user ID not found in context",
			setupFunc: func(c *gin.Context) {},
			wantErr:   true,
		},
		{
			name: "user ID is not a uint",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", "42")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			gotID, err := GetUserID(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Zero(t, gotID)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, gotID)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantErr   bool
	}{
		{
			name: "successfully extracts claims",
			setupFunc: func(c *gin.Context) {
				c.Set("validated_claims", &validator.ValidatedClaims{
					RegisteredClaims: validator.RegisteredClaims{Subject: "3"},
					CustomClaims:     &CustomClaims{Role: models.RoleManager},
				})
			},
		},
		{
			name:      "claims not found in context",
			setupFunc: func(c *gin.Context) {},
			wantErr:   true,
		},
		{
			name: "claims are not the expected type",
			setupFunc: func(c *gin.Context) {
				c.Set("validated_claims", "invalid")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			claims, err := GetClaims(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		setupFunc      func(*gin.Context)
		wantStatusCode int
		wantAborted    bool
	}{
		{
			name: "has required role",
			setupFunc: func(c *gin.Context) {
				c.Set("validated_claims", &validator.ValidatedClaims{CustomClaims: &CustomClaims{Role: models.RoleAdmin}})
			},
		},
		{
			name: "manager is forbidden",
			setupFunc: func(c *gin.Context) {
				c.Set("validated_claims", &validator.ValidatedClaims{CustomClaims: &CustomClaims{Role: models.RoleManager}})
			},
			wantStatusCode: http.StatusForbidden,
			wantAborted:    true,
		},
		{
			name:           "claims not in context",
			setupFunc:      func(c *gin.Context) {},
			wantStatusCode: http.StatusUnauthorized,
			wantAborted:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			tt.setupFunc(c)
			RequireRole(models.RoleAdmin)(c)

			if tt.wantAborted {
				assert.True(t, c.IsAborted())
				assert.Equal(t, tt.wantStatusCode, w.Code)
			} else {
				assert.False(t, c.IsAborted())
			}
		})
	}
}

func TestCustomClaimsValidate(t *testing.T) {
	assert.NoError(t, CustomClaims{Role: models.RoleAdmin}.Validate(context.Background()))
	assert.NoError(t, CustomClaims{Role: models.RoleManager}.Validate(context.Background()))
	assert.Error(t, CustomClaims{Role: ""}.Validate(context.Background()))
	assert.True(t, CustomClaims{Role: models.RoleAdmin}.IsAdmin())
}

func TestAuthError(t *testing.T) {
	err := &AuthError{Code: "TEST_ERROR", Message: "This is a test error"}
	assert.Equal(t, "This is a test error", err.Error())
}
