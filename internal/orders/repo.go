package orders

import (
	"context"

	"github.com/angelmondragon/bazaar-backend/internal/repo"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists orders and performs the stock reservation statements.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// ListScope narrows a listing to what an actor may see. Zero fields mean no restriction.
type ListScope struct {
	UserID   uint
	SallerID uint
	Status   enums.OrderStatus
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Preload("Product").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) UserExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Principal{}).Where("id = ? AND role = ?", id, enums.RoleUser).Count(&count).Error
	return count > 0, err
}

// ReserveStock decrements stock only when enough is left, in a single statement.
// It reports false when the product had fewer than qty units.
func (r *Repository) ReserveStock(ctx context.Context, productID uint, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseStock puts qty units back on the product.
func (r *Repository) ReleaseStock(ctx context.Context, productID uint, qty int) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("Product").Create(order).Error
}

// TransitionStatus moves an order from one status to another. It reports false
// when the order was no longer in from, so concurrent transitions apply once.
func (r *Repository) TransitionStatus(ctx context.Context, id uint, from, to enums.OrderStatus) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteInStatus removes the order only while it is still in status. It reports
// false when the order moved on, so a concurrent transition keeps its effects.
func (r *Repository) DeleteInStatus(ctx context.Context, id uint, status enums.OrderStatus) (bool, error) {
	res := r.DB(ctx).
		Where("id = ? AND status = ?", id, status).
		Delete(&models.Order{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.DB(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of orders, newest first.
func (r *Repository) List(ctx context.Context, scope ListScope, params pagination.Params) ([]models.Order, int64, error) {
	query := r.DB(ctx).Model(&models.Order{})
	if scope.UserID != 0 {
		query = query.Where("orders.user_id = ?", scope.UserID)
	}
	if scope.SallerID != 0 {
		query = query.Where("orders.product_id IN (?)",
			r.DB(ctx).Model(&models.Product{}).Select("id").Where("saller_id = ?", scope.SallerID))
	}
	if scope.Status != "" {
		query = query.Where("orders.status = ?", scope.Status)
	}
	query = query.Order("orders.created_at desc, orders.id desc")

	var rows []models.Order
	total, err := repo.Paginate(query, params, &rows, func(db *gorm.DB) *gorm.DB { return db.Preload("Product") })
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
