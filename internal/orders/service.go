package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bazaar-backend/pkg/auth"
	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/angelmondragon/bazaar-backend/pkg/logger"
	"github.com/angelmondragon/bazaar-backend/pkg/metrics"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const outcomeInsufficientStock = "insufficient_stock"

// Service places and manages orders. Stock is reserved when an order is
// created and released again only when it is cancelled.
type Service interface {
	CreateOrder(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*OrderDTO, error)
	UpdateOrderStatus(ctx context.Context, actor auth.Actor, id uint, status enums.OrderStatus) (*OrderDTO, error)
	GetOrder(ctx context.Context, actor auth.Actor, id uint) (*OrderDTO, error)
	ListOrders(ctx context.Context, actor auth.Actor, status enums.OrderStatus, params pagination.Params) (pagination.Page[OrderDTO], error)
	DeleteOrder(ctx context.Context, actor auth.Actor, id uint) error
}

type orderStore interface {
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindProduct(ctx context.Context, id uint) (*models.Product, error)
	UserExists(ctx context.Context, id uint) (bool, error)
	ReserveStock(ctx context.Context, productID uint, qty int) (bool, error)
	ReleaseStock(ctx context.Context, productID uint, qty int) error
	Create(ctx context.Context, order *models.Order) error
	TransitionStatus(ctx context.Context, id uint, from, to enums.OrderStatus) (bool, error)
	DeleteInStatus(ctx context.Context, id uint, status enums.OrderStatus) (bool, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, scope ListScope, params pagination.Params) ([]models.Order, int64, error)
}

type ServiceParams struct {
	DB      db.TxRunner
	Repo    *Repository
	Metrics *metrics.DomainMetrics
	Logger  *logger.Logger
}

type service struct {
	db      db.TxRunner
	repo    orderStore
	repoFor func(tx *gorm.DB) orderStore
	metrics *metrics.DomainMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	repo := params.Repo
	return &service{
		db:      params.DB,
		repo:    repo,
		repoFor: func(tx *gorm.DB) orderStore { return repo.WithTx(tx) },
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*OrderDTO, error) {
	userID, err := resolveBuyer(actor, input.UserID)
	if err != nil {
		return nil, err
	}
	if input.ProductID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	var orderID uint
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFor(tx)

		product, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			return mapLookup(err, "product not found")
		}
		ok, err := repo.UserExists(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "check user")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}

		reserved, err := repo.ReserveStock(ctx, product.ID, input.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "reserve stock")
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for this product").
				WithDetails(map[string]any{
					"product_id": product.ID,
					"requested":  input.Quantity,
				})
		}

		order := &models.Order{
			UserID:     userID,
			ProductID:  product.ID,
			Quantity:   input.Quantity,
			TotalPrice: product.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
			Status:     enums.OrderStatusPending,
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "insert order")
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		s.recordPlacement(err)
		return nil, err
	}
	s.metrics.OrderPlaced(metrics.OutcomeSuccess)

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookup(err, "order not found")
	}
	return NewOrderDTO(order), nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, actor auth.Actor, id uint, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be pending, completed or cancelled")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFor(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLookup(err, "order not found")
		}
		if err := authorizeTransition(actor, order, status); err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return stateConflict(order.Status, status)
		}

		moved, err := repo.TransitionStatus(ctx, id, order.Status, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "update order status")
		}
		if !moved {
			return stateConflict(order.Status, status)
		}
		if status == enums.OrderStatusCancelled {
			if err := repo.ReleaseStock(ctx, order.ProductID, order.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "release stock")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookup(err, "order not found")
	}
	return NewOrderDTO(order), nil
}

func (s *service) GetOrder(ctx context.Context, actor auth.Actor, id uint) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookup(err, "order not found")
	}
	if !canView(actor, order) {
		// Hide orders the actor cannot see.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, actor auth.Actor, status enums.OrderStatus, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if status != "" && !status.IsValid() {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	scope := ListScope{Status: status}
	switch actor.Role {
	case enums.RoleAdmin:
	case enums.RoleUser:
		scope.UserID = actor.PrincipalID
	case enums.RoleSaller:
		scope.SallerID = actor.PrincipalID
	default:
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeForbidden, "orders are not available for this role")
	}

	rows, total, err := s.repo.List(ctx, scope, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := pagination.NewPage(rows, params, total)
	return pagination.Map(page, func(o models.Order) OrderDTO { return *NewOrderDTO(&o) }), nil
}

// DeleteOrder removes an order. Deleting a still-pending order gives its
// reservation back; the status guard makes that happen at most once.
func (s *service) DeleteOrder(ctx context.Context, actor auth.Actor, id uint) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins delete orders")
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoFor(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLookup(err, "order not found")
		}
		if order.Status == enums.OrderStatusPending {
			deleted, err := repo.DeleteInStatus(ctx, id, enums.OrderStatusPending)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "delete order")
			}
			if deleted {
				if err := repo.ReleaseStock(ctx, order.ProductID, order.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "release stock")
				}
				return nil
			}
			// Cancelled or confirmed since the read; that path settled the stock.
		}
		if err := repo.Delete(ctx, id); err != nil {
			return mapLookup(err, "order not found")
		}
		return nil
	})
}

func (s *service) recordPlacement(err error) {
	if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		s.metrics.OrderPlaced(outcomeInsufficientStock)
		return
	}
	s.metrics.OrderPlaced(metrics.OutcomeFailure)
}

func resolveBuyer(actor auth.Actor, requested uint) (uint, error) {
	switch actor.Role {
	case enums.RoleUser:
		if requested != 0 && requested != actor.PrincipalID {
			return 0, pkgerrors.New(pkgerrors.CodeForbidden, "users can only order for themselves")
		}
		return actor.PrincipalID, nil
	case enums.RoleAdmin:
		if requested == 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
		}
		return requested, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "only users and admins place orders")
	}
}

// authorizeTransition: admins move any order, the owning saller may complete
// or cancel, the buyer may only cancel.
func authorizeTransition(actor auth.Actor, order *models.Order, next enums.OrderStatus) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.Role == enums.RoleSaller && order.Product != nil && order.Product.SallerID == actor.PrincipalID:
		if next == enums.OrderStatusCompleted || next == enums.OrderStatusCancelled {
			return nil
		}
	case actor.Role == enums.RoleUser && order.UserID == actor.PrincipalID:
		if next == enums.OrderStatusCancelled {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to change this order")
}

func canView(actor auth.Actor, order *models.Order) bool {
	switch actor.Role {
	case enums.RoleAdmin:
		return true
	case enums.RoleUser:
		return order.UserID == actor.PrincipalID
	case enums.RoleSaller:
		return order.Product != nil && order.Product.SallerID == actor.PrincipalID
	}
	return false
}

func stateConflict(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func mapLookup(err error, notFound string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Passthrough(pkgerrors.CodeTransaction, err, "order lookup")
}
