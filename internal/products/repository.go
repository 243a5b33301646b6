package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/bazaar-backend/internal/repo"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"gorm.io/gorm"
)

var sortColumns = map[string]string{
	"price":     "price",
	"createdAt": "created_at",
	"name":      "name",
	"stock":     "stock",
}

// Repository persists products and their image rows.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

func withImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", orderedImages)
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Scopes(withImages).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Omit("Images").Create(product).Error
}

// Update applies column updates. Map updates keep zero values such as stock 0.
func (r *Repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.DB(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) error {
	return r.DB(ctx).Create(image).Error
}

func (r *Repository) ListImages(ctx context.Context, productID uint) ([]models.ProductImage, error) {
	var rows []models.ProductImage
	if err := r.DB(ctx).Scopes(orderedImages).Where("product_id = ?", productID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) DeleteImages(ctx context.Context, productID uint) error {
	return r.DB(ctx).Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error
}

// ImageURLs returns every image url still referenced by a product.
func (r *Repository) ImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.DB(ctx).Model(&models.ProductImage{}).Pluck("image_url", &urls).Error; err != nil {
		return nil, err
	}
	return urls, nil
}

// PrincipalExists reports whether a principal with id holds role.
func (r *Repository) PrincipalExists(ctx context.Context, role enums.Role, id uint) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Principal{}).Where("id = ? AND role = ?", id, role).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns one filtered page of products with their images.
func (r *Repository) List(ctx context.Context, input ListInput) ([]models.Product, int64, error) {
	query := applyFilters(r.DB(ctx).Model(&models.Product{}), input.Filters)
	query = query.Order(orderClause(input.Filters))

	var rows []models.Product
	total, err := repo.Paginate(query, input.Pagination, &rows, withImages)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyFilters(query *gorm.DB, f ListFilters) *gorm.DB {
	if search := strings.TrimSpace(f.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.SallerID != nil {
		query = query.Where("saller_id = ?", *f.SallerID)
	}
	if region := strings.TrimSpace(f.Region); region != "" {
		query = query.Where("LOWER(region) = ?", strings.ToLower(region))
	}
	if f.DeliveryService != nil {
		query = query.Where("delivery_service = ?", *f.DeliveryService)
	}
	if f.MinHeight != nil {
		query = query.Where("height >= ?", *f.MinHeight)
	}
	if f.MaxHeight != nil {
		query = query.Where("height <= ?", *f.MaxHeight)
	}
	if f.MinAge != nil {
		query = query.Where("age >= ?", *f.MinAge)
	}
	if f.MaxAge != nil {
		query = query.Where("age <= ?", *f.MaxAge)
	}
	return query
}

func orderClause(f ListFilters) string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "desc"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "asc"
	}
	return fmt.Sprintf("%s %s, id %s", column, direction, direction)
}
