package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/bazaar-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
)

// Service manages product categories. Writes are admin only; the router enforces that.
type Service interface {
	Create(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	Get(ctx context.Context, id uint) (*CategoryDTO, error)
	List(ctx context.Context) ([]CategoryDTO, error)
	Update(ctx context.Context, id uint, input CategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("categories repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	category, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, mapWriteError(err)
	}
	dto := FromModel(category, 0)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uint) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapWriteError(err)
	}
	counts, err := s.repo.ProductCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	dto := FromModel(category, counts[category.ID])
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	counts, err := s.repo.ProductCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i], counts[rows[i].ID]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uint, input CategoryInput) (*CategoryDTO, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, id, name); err != nil {
		return nil, mapWriteError(err)
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func normalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	return trimmed, nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsNotFound(err):
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "category write")
	}
}
