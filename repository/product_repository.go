package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-api/models"
)

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category        string
	IncludeInactive bool
}

// ProductInput holds the editable fields of a product.
type ProductInput struct {
	Name          string
	QuantityLabel string
	Price         decimal.Decimal
	Category      string
	Image         *string
}

// Validate checks the fields every write needs.
func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("product name is required")
	}
	if in.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	return nil
}

// ProductRepository is the catalog store.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns products ordered by category then name.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if !f.IncludeInactive {
		q = q.Where("active = ?", true)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("category = ?", c)
	}

	var products []models.Product
	if err := q.Order("category").Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Get returns one product, active or not.
func (r *ProductRepository) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return &p, nil
}

// Categories lists the distinct categories of active products.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("active = ?", true).
		Distinct().Order("category").Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create inserts a new active product.
func (r *ProductRepository) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := models.Product{
		Name:          strings.TrimSpace(in.Name),
		QuantityLabel: strings.TrimSpace(in.QuantityLabel),
		Price:         in.Price.Round(2),
		Category:      NormalizeCategory(in.Category),
		Image:         in.Image,
		Active:        true,
	}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

// Update overwrites the editable fields. A nil Image keeps the current image.
func (r *ProductRepository) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":     strings.TrimSpace(in.Name),
		"quantity": strings.TrimSpace(in.QuantityLabel),
		"price":    in.Price.Round(2),
		"category": NormalizeCategory(in.Category),
	}
	if in.Image != nil {
		updates["image"] = *in.Image
	}
	if err := r.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return r.Get(ctx, id)
}

// Deactivate hides the product from the catalog. The row and its image stay
// so past orders keep resolving.
func (r *ProductRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CountActive returns the number of active products.
func (r *ProductRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("active = ?", true).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// NormalizeCategory trims the category and falls back to the default.
func NormalizeCategory(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return models.DefaultCategory
}
