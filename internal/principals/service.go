package principals

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
)

// Service covers profile reads and edits plus the admin management of principals.
type Service interface {
	Get(ctx context.Context, role enums.Role, id uint) (*PrincipalDTO, error)
	List(ctx context.Context, role enums.Role, params pagination.Params) (pagination.Page[PrincipalDTO], error)
	UpdateProfile(ctx context.Context, role enums.Role, id uint, input UpdateProfileInput) (*PrincipalDTO, error)
	Delete(ctx context.Context, role enums.Role, id uint) error
}

type repository interface {
	FindByID(ctx context.Context, role enums.Role, id uint) (*models.Principal, error)
	ExistsByPhone(ctx context.Context, role enums.Role, phone string, excludeID uint) (bool, error)
	UpdateProfile(ctx context.Context, role enums.Role, id uint, input UpdateProfileInput) error
	List(ctx context.Context, role enums.Role, params pagination.Params) ([]models.Principal, int64, error)
	Delete(ctx context.Context, role enums.Role, id uint) error
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("principals repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, role enums.Role, id uint) (*PrincipalDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	principal, err := s.repo.FindByID(ctx, role, id)
	if err != nil {
		return nil, mapLookupError(err, role)
	}
	return FromModel(principal), nil
}

func (s *service) List(ctx context.Context, role enums.Role, params pagination.Params) (pagination.Page[PrincipalDTO], error) {
	if !role.IsValid() {
		return pagination.Page[PrincipalDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	rows, total, err := s.repo.List(ctx, role, params)
	if err != nil {
		return pagination.Page[PrincipalDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list principals")
	}
	page := pagination.NewPage(rows, params, total)
	return pagination.Map(page, func(p models.Principal) PrincipalDTO { return *FromModel(&p) }), nil
}

func (s *service) UpdateProfile(ctx context.Context, role enums.Role, id uint, input UpdateProfileInput) (*PrincipalDTO, error) {
	if phone := NormalizePhone(input.Phone); phone != nil {
		taken, err := s.repo.ExistsByPhone(ctx, role, *phone, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
		}
	}
	if err := s.repo.UpdateProfile(ctx, role, id, input); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
		}
		return nil, mapLookupError(err, role)
	}
	return s.Get(ctx, role, id)
}

func (s *service) Delete(ctx context.Context, role enums.Role, id uint) error {
	if role == enums.RoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be deleted")
	}
	if err := s.repo.Delete(ctx, role, id); err != nil {
		return mapLookupError(err, role)
	}
	return nil
}

func mapLookupError(err error, role enums.Role) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", role))
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load principal")
}
