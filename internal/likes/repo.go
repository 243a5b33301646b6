package likes

import (
	"context"

	"github.com/angelmondragon/bazaar-backend/internal/repo"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository encapsulates like persistence.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) ProductExists(ctx context.Context, productID uint) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}

// Remove deletes the like and reports whether one existed.
func (r *Repository) Remove(ctx context.Context, userID, productID uint) (bool, error) {
	res := r.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Like{})
	return res.RowsAffected > 0, res.Error
}

// Add inserts the like. A concurrent duplicate is ignored.
func (r *Repository) Add(ctx context.Context, userID, productID uint) error {
	return r.DB(ctx).
		Omit("Product").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{UserID: userID, ProductID: productID}).Error
}

// ListProducts returns the liked products of a user, most recently liked first.
func (r *Repository) ListProducts(ctx context.Context, userID uint, params pagination.Params) ([]models.Product, int64, error) {
	query := r.DB(ctx).
		Model(&models.Like{}).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc")

	var rows []models.Like
	total, err := repo.Paginate(query, params, &rows, withProduct)
	if err != nil {
		return nil, 0, err
	}
	products := make([]models.Product, 0, len(rows))
	for _, like := range rows {
		if like.Product != nil {
			products = append(products, *like.Product)
		}
	}
	return products, total, nil
}

func withProduct(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Product").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") })
}
