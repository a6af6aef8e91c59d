package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/middleware"
	"github.com/sweetdelights/bakery-api/models"
	"github.com/sweetdelights/bakery-api/repository"
	"github.com/sweetdelights/bakery-api/services"
	"github.com/sweetdelights/bakery-api/utils"
)

// CustomCategory is the form value that selects the free-text category field.
const CustomCategory = "custom"

type productResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Quantity  string    `json:"quantity"`
	Price     string    `json:"price"`
	Image     *string   `json:"image"`
	ImageURL  string    `json:"image_url,omitempty"`
	Category  string    `json:"category"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newProductResponse(c *gin.Context, p *models.Product) productResponse {
	resp := productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Quantity:  p.QuantityLabel,
		Price:     money(p.Price),
		Image:     p.Image,
		Category:  p.Category,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Image != nil && *p.Image != "" {
		resp.ImageURL = imageURL(c, *p.Image)
	}
	return resp
}

// imageURL resolves a stored key; a failure leaves the product without a URL.
func imageURL(c *gin.Context, key string) string {
	svc := services.GetImageService()
	if svc == nil {
		return utils.GetImageURL(key)
	}
	url, err := svc.GetImageURL(c.Request.Context(), key)
	if err != nil {
		logger.Warn(c.Request.Context(), "failed to resolve product image", "key", key, "error", err)
		return ""
	}
	return url
}

// productForm is the multipart body of product create and update.
type productForm struct {
	Name           string `form:"name"`
	Quantity       string `form:"quantity"`
	Price          string `form:"price"`
	Category       string `form:"category"`
	CustomCategory string `form:"custom_category"`
}

func (f productForm) input() (repository.ProductInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		return repository.ProductInput{}, errors.New("price must be a number")
	}
	return repository.ProductInput{
		Name:          f.Name,
		QuantityLabel: f.Quantity,
		Price:         price,
		Category:      resolveCategory(f.Category, f.CustomCategory),
	}, nil
}

// resolveCategory applies the "custom" convention of the product form.
func resolveCategory(category, custom string) string {
	if strings.EqualFold(strings.TrimSpace(category), CustomCategory) {
		return repository.NormalizeCategory(custom)
	}
	return repository.NormalizeCategory(category)
}

func productID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_PRODUCT_ID", "Product ID must be a positive number")
		return 0, false
	}
	return uint(id), true
}

// uploadProductImage stores the optional "image" form file. It returns a nil
// key when no file was sent, and writes the error response on failure.
func uploadProductImage(c *gin.Context) (*string, bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid image upload", err.Error())
		return nil, false
	}
	return storeImage(c, fileHeader)
}

func storeImage(c *gin.Context, fileHeader *multipart.FileHeader) (*string, bool) {
	ctx := requestContext(c)
	svc := services.GetImageService()
	if svc == nil {
		respondError(c, http.StatusServiceUnavailable, "IMAGE_STORAGE_UNAVAILABLE", "Image storage is not configured")
		return nil, false
	}

	key, err := svc.UploadImage(ctx, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return nil, false
		}
		logger.Error(ctx, "failed to store product image", "filename", fileHeader.Filename, "error", err)
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store image")
		return nil, false
	}
	return &key, true
}

// discardImage removes an image that no product references any more.
func discardImage(c *gin.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	svc := services.GetImageService()
	if svc == nil {
		return
	}
	if err := svc.DeleteImage(c.Request.Context(), *key); err != nil {
		logger.Warn(c.Request.Context(), "failed to delete product image", "key", *key, "error", err)
	}
}

// GetProducts handles GET /api/v1/products - the catalog, optionally by category
func GetProducts(c *gin.Context) {
	ctx := requestContext(c)

	filter := repository.ProductFilter{Category: c.Query("category")}
	if c.Query("include_inactive") == "true" {
		claims, err := middleware.GetCustomClaims(c)
		if err != nil || !claims.IsAdmin() {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "Only admins can list inactive products")
			return
		}
		filter.IncludeInactive = true
	}

	products, err := productRepository().List(ctx, filter)
	if err != nil {
		logger.Error(ctx, "failed to list products", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve products")
		return
	}

	resp := make([]productResponse, 0, len(products))
	for i := range products {
		resp = append(resp, newProductResponse(c, &products[i]))
	}
	respondData(c, http.StatusOK, resp)
}

// GetProduct handles GET /api/v1/products/:id
func GetProduct(c *gin.Context) {
	ctx := requestContext(c)
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := productRepository().Get(ctx, id)
	if err != nil {
		respondProductError(c, err, "Failed to retrieve product")
		return
	}
	respondData(c, http.StatusOK, newProductResponse(c, product))
}

// CreateProduct handles POST /api/v1/products - multipart form with optional image
func CreateProduct(c *gin.Context) {
	ctx := requestContext(c)

	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}
	in, err := form.input()
	if err == nil {
		err = in.Validate()
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	image, ok := uploadProductImage(c)
	if !ok {
		return
	}
	in.Image = image

	product, err := productRepository().Create(ctx, in)
	if err != nil {
		discardImage(c, image)
		logger.Error(ctx, "failed to create product", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product")
		return
	}

	logger.Info(ctx, "product created", "product_id", product.ID, "name", product.Name)
	respondData(c, http.StatusCreated, newProductResponse(c, product))
}

// UpdateProduct handles PUT /api/v1/products/:id - a new image replaces the old one
func UpdateProduct(c *gin.Context) {
	ctx := requestContext(c)
	id, ok := productID(c)
	if !ok {
		return
	}

	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}
	in, err := form.input()
	if err == nil {
		err = in.Validate()
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	repo := productRepository()
	existing, err := repo.Get(ctx, id)
	if err != nil {
		respondProductError(c, err, "Failed to update product")
		return
	}

	image, ok := uploadProductImage(c)
	if !ok {
		return
	}
	in.Image = image

	product, err := repo.Update(ctx, id, in)
	if err != nil {
		discardImage(c, image)
		respondProductError(c, err, "Failed to update product")
		return
	}
	if image != nil {
		discardImage(c, existing.Image)
	}

	logger.Info(ctx, "product updated", "product_id", product.ID)
	respondData(c, http.StatusOK, newProductResponse(c, product))
}

// DeleteProduct handles DELETE /api/v1/products/:id - deactivates the product
func DeleteProduct(c *gin.Context) {
	ctx := requestContext(c)
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := productRepository().Deactivate(ctx, id); err != nil {
		respondProductError(c, err, "Failed to delete product")
		return
	}

	logger.Info(ctx, "product deactivated", "product_id", id)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product deleted successfully",
	})
}

func respondProductError(c *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		return
	}
	logger.Error(requestContext(c), message, "error", err)
	respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", message)
}
