package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-api/models"
	"github.com/sweetdelights/bakery-api/repository"
	"github.com/sweetdelights/bakery-api/services"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func productRouter(role string) *gin.Engine {
	router := setupTestRouter()
	auth := router.Group("/", mockAuthMiddleware(1, role))
	auth.GET("/products", GetProducts)
	auth.GET("/products/:id", GetProduct)
	auth.POST("/products", CreateProduct)
	auth.PUT("/products/:id", UpdateProduct)
	auth.DELETE("/products/:id", DeleteProduct)
	return router
}

func setupMockImages(t *testing.T) *services.MockImageService {
	t.Helper()
	mock := services.NewMockImageService()
	prev := services.GetImageService()
	mock.SetAsMockForTesting()
	t.Cleanup(func() { services.SetImageService(prev) })
	return mock
}

func seedProduct(t *testing.T, db *gorm.DB, name, category, price string) *models.Product {
	t.Helper()
	p, err := repository.NewProductRepository(db).Create(context.Background(), repository.ProductInput{
		Name:          name,
		QuantityLabel: "1 pc",
		Price:         decimal.RequireFromString(price),
		Category:      category,
	})
	require.NoError(t, err)
	return p
}

// multipartRequest builds a product form, attaching an image when filename is set.
func multipartRequest(t *testing.T, method, path string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetProducts(t *testing.T) {
	db := setupTestDB(t)
	setupMockImages(t)
	seedProduct(t, db, "Sourdough", "Bread", "6.5")
	seedProduct(t, db, "Eclair", "Pastry", "3.25")
	retired := seedProduct(t, db, "Old Loaf", "Bread", "2")
	require.NoError(t, repository.NewProductRepository(db).Deactivate(context.Background(), retired.ID))

	tests := []struct {
		name      string
		role      string
		query     string
		wantNames []string
		wantCode  string
	}{
		{name: "active only", role: models.RoleManager, query: "", wantNames: []string{"Sourdough", "Eclair"}},
		{name: "by category", role: models.RoleManager, query: "?category=Pastry", wantNames: []string{"Eclair"}},
		{name: "admin sees inactive", role: models.RoleAdmin, query: "?include_inactive=true", wantNames: []string{"Old Loaf", "Sourdough", "Eclair"}},
		{name: "manager cannot see inactive", role: models.RoleManager, query: "?include_inactive=true", wantCode: "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(productRouter(tt.role), httptest.NewRequest(http.MethodGet, "/products"+tt.query, nil))
			if tt.wantCode != "" {
				assert.Equal(t, http.StatusForbidden, w.Code)
				assert.Equal(t, tt.wantCode, errorCode(t, w))
				return
			}
			require.Equal(t, http.StatusOK, w.Code)

			var names []string
			for _, p := range decode(t, w)["data"].([]interface{}) {
				names = append(names, p.(map[string]interface{})["name"].(string))
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestGetProduct(t *testing.T) {
	db := setupTestDB(t)
	setupMockImages(t)
	p := seedProduct(t, db, "Sourdough", "Bread", "6.5")
	router := productRouter(models.RoleManager)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/products/"+itoa(p.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Sourdough", data["name"])
	assert.Equal(t, "6.50", data["price"])
	assert.Equal(t, "1 pc", data["quantity"])

	w = serve(router, httptest.NewRequest(http.MethodGet, "/products/9999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, w))

	w = serve(router, httptest.NewRequest(http.MethodGet, "/products/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PRODUCT_ID", errorCode(t, w))
}

func TestCreateProduct(t *testing.T) {
	tests := []struct {
		name         string
		fields       map[string]string
		filename     string
		content      []byte
		wantStatus   int
		wantCode     string
		wantCategory string
		wantImage    bool
	}{
		{
			name:         "with image",
			fields:       map[string]string{"name": "Croissant", "quantity": "1 pc", "price": "2.5", "category": "Pastry"},
			filename:     "croissant.png",
			content:      pngBytes,
			wantStatus:   http.StatusCreated,
			wantCategory: "Pastry",
			wantImage:    true,
		},
		{
			name:         "custom category",
			fields:       map[string]string{"name": "Kouign-amann", "price": "4", "category": "custom", "custom_category": "Breton"},
			wantStatus:   http.StatusCreated,
			wantCategory: "Breton",
		},
		{
			name:         "empty category falls back",
			fields:       map[string]string{"name": "Bun", "price": "1"},
			wantStatus:   http.StatusCreated,
			wantCategory: models.DefaultCategory,
		},
		{
			name:       "missing name",
			fields:     map[string]string{"price": "1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "negative price",
			fields:     map[string]string{"name": "Bun", "price": "-1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "price not a number",
			fields:     map[string]string{"name": "Bun", "price": "cheap"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "unsupported image",
			fields:     map[string]string{"name": "Bun", "price": "1"},
			filename:   "bun.bmp",
			content:    []byte("BM"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_FILE_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			images := setupMockImages(t)
			router := productRouter(models.RoleAdmin)

			w := serve(router, multipartRequest(t, http.MethodPost, "/products", tt.fields, tt.filename, tt.content))
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
				var n int64
				require.NoError(t, db.Model(&models.Product{}).Count(&n).Error)
				assert.Zero(t, n)
				assert.Empty(t, images.GetUploadedImages())
				return
			}

			data := decode(t, w)["data"].(map[string]interface{})
			assert.Equal(t, tt.wantCategory, data["category"])
			assert.Equal(t, true, data["active"])
			if tt.wantImage {
				key := data["image"].(string)
				assert.True(t, images.ImageExists(key))
				assert.Contains(t, data["image_url"], key)
			} else {
				assert.Nil(t, data["image"])
			}
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	db := setupTestDB(t)
	images := setupMockImages(t)
	router := productRouter(models.RoleAdmin)

	w := serve(router, multipartRequest(t, http.MethodPost, "/products",
		map[string]string{"name": "Croissant", "price": "2.5"}, "old.png", pngBytes))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)["data"].(map[string]interface{})
	id := uint(created["id"].(float64))
	oldKey := created["image"].(string)

	// without a new file the image is kept
	w = serve(router, multipartRequest(t, http.MethodPut, "/products/"+itoa(id),
		map[string]string{"name": "Butter Croissant", "price": "2.75", "category": "Pastry"}, "", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Butter Croissant", data["name"])
	assert.Equal(t, "2.75", data["price"])
	assert.Equal(t, oldKey, data["image"])

	// a new file replaces and removes the old one
	w = serve(router, multipartRequest(t, http.MethodPut, "/products/"+itoa(id),
		map[string]string{"name": "Butter Croissant", "price": "2.75"}, "new.png", pngBytes))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "mock_new.png", data["image"])
	assert.False(t, images.ImageExists(oldKey))
	assert.True(t, images.ImageExists("mock_new.png"))

	w = serve(router, multipartRequest(t, http.MethodPut, "/products/9999",
		map[string]string{"name": "Ghost", "price": "1"}, "", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var stored models.Product
	require.NoError(t, db.First(&stored, id).Error)
	assert.Equal(t, "2.75", stored.Price.StringFixed(2))
}

func TestDeleteProduct(t *testing.T) {
	db := setupTestDB(t)
	setupMockImages(t)
	p := seedProduct(t, db, "Sourdough", "Bread", "6.5")
	router := productRouter(models.RoleAdmin)

	w := serve(router, httptest.NewRequest(http.MethodDelete, "/products/"+itoa(p.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Product deleted successfully", decode(t, w)["message"])

	// soft delete: the row stays, inactive
	var stored models.Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	assert.False(t, stored.Active)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Empty(t, decode(t, w)["data"])

	w = serve(router, httptest.NewRequest(http.MethodDelete, "/products/9999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveCategory(t *testing.T) {
	assert.Equal(t, "Cakes", resolveCategory(" Cakes ", ""))
	assert.Equal(t, "Seasonal", resolveCategory("custom", "Seasonal"))
	assert.Equal(t, "Seasonal", resolveCategory("Custom", " Seasonal "))
	assert.Equal(t, models.DefaultCategory, resolveCategory("custom", ""))
	assert.Equal(t, models.DefaultCategory, resolveCategory("", ""))
}
