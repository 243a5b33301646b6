package likes

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bazaar-backend/internal/products"
	"github.com/angelmondragon/bazaar-backend/pkg/auth"
	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes the like toggle and the liked products listing.
type Service interface {
	Toggle(ctx context.Context, actor auth.Actor, productID uint) (bool, error)
	List(ctx context.Context, actor auth.Actor, userID uint, params pagination.Params) (pagination.Page[products.ProductDTO], error)
}

type ServiceParams struct {
	DB   db.TxRunner
	Repo *Repository
}

type service struct {
	db   db.TxRunner
	repo *Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("like repository required")
	}
	return &service{db: params.DB, repo: params.Repo}, nil
}

// Toggle likes the product, or unlikes it when already liked. It returns the new state.
func (s *service) Toggle(ctx context.Context, actor auth.Actor, productID uint) (bool, error) {
	if actor.Role != enums.RoleUser {
		return false, pkgerrors.New(pkgerrors.CodeForbidden, "only users like products")
	}
	if productID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var liked bool
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		removed, err := repo.Remove(ctx, actor.PrincipalID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "remove like")
		}
		if removed {
			liked = false
			return nil
		}

		ok, err := repo.ProductExists(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "check product")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err := repo.Add(ctx, actor.PrincipalID, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "insert like")
		}
		liked = true
		return nil
	})
	return liked, err
}

func (s *service) List(ctx context.Context, actor auth.Actor, userID uint, params pagination.Params) (pagination.Page[products.ProductDTO], error) {
	if userID == 0 {
		userID = actor.PrincipalID
	}
	if !actor.Owns(enums.RoleUser, userID) {
		return pagination.Page[products.ProductDTO]{}, pkgerrors.New(pkgerrors.CodeForbidden, "likes are private")
	}
	rows, total, err := s.repo.ListProducts(ctx, userID, params)
	if err != nil {
		return pagination.Page[products.ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list likes")
	}
	page := pagination.NewPage(rows, params, total)
	return pagination.Map(page, func(p models.Product) products.ProductDTO { return *products.NewProductDTO(&p) }), nil
}
