package principals

import (
	"context"
	"errors"

	"github.com/angelmondragon/bazaar-backend/internal/repo"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/angelmondragon/bazaar-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes principal persistence for every role.
type Repository struct {
	repo.Base
}

// NewRepository constructs a principals repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, dto CreatePrincipalDTO) (*models.Principal, error) {
	principal := dto.ToModel()
	if err := r.DB(ctx).Create(principal).Error; err != nil {
		return nil, err
	}
	return principal, nil
}

// FindByEmail looks the principal up by normalized email within a role.
func (r *Repository) FindByEmail(ctx context.Context, role enums.Role, email string) (*models.Principal, error) {
	var principal models.Principal
	err := r.DB(ctx).
		Where("role = ? AND email = ?", role, NormalizeEmail(email)).
		First(&principal).Error
	if err != nil {
		return nil, err
	}
	return &principal, nil
}

func (r *Repository) FindByID(ctx context.Context, role enums.Role, id uint) (*models.Principal, error) {
	var principal models.Principal
	if err := r.DB(ctx).Where("role = ?", role).First(&principal, id).Error; err != nil {
		return nil, err
	}
	return &principal, nil
}

// ExistsByPhone reports whether another principal of the role already uses phone.
// excludeID skips the caller's own row when non-zero.
func (r *Repository) ExistsByPhone(ctx context.Context, role enums.Role, phone string, excludeID uint) (bool, error) {
	query := r.DB(ctx).Model(&models.Principal{}).Where("role = ? AND phone = ?", role, phone)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkVerified flips an unverified principal to verified. It reports false when
// the row was already verified, so the transition happens at most once.
func (r *Repository) MarkVerified(ctx context.Context, role enums.Role, id uint) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Principal{}).
		Where("id = ? AND role = ? AND account_status = ?", id, role, enums.AccountStatusUnverified).
		Update("account_status", enums.AccountStatusVerified)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, role enums.Role, id uint, hash string) error {
	res := r.DB(ctx).
		Model(&models.Principal{}).
		Where("id = ? AND role = ?", id, role).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProfile applies the non-nil fields of input.
func (r *Repository) UpdateProfile(ctx context.Context, role enums.Role, id uint, input UpdateProfileInput) error {
	updates := map[string]any{}
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
	}
	if input.Phone != nil {
		updates["phone"] = NormalizePhone(input.Phone)
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.DB(ctx).Model(&models.Principal{}).Where("id = ? AND role = ?", id, role).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of principals of a role, newest first.
func (r *Repository) List(ctx context.Context, role enums.Role, params pagination.Params) ([]models.Principal, int64, error) {
	var rows []models.Principal
	query := r.DB(ctx).Model(&models.Principal{}).Where("role = ?", role).Order("created_at desc, id desc")
	total, err := repo.Paginate(query, params, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) Delete(ctx context.Context, role enums.Role, id uint) error {
	res := r.DB(ctx).Where("role = ?", role).Delete(&models.Principal{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Upsert creates the principal keyed by (role, email) or refreshes its hash and status.
func (r *Repository) Upsert(ctx context.Context, dto CreatePrincipalDTO) (*models.Principal, bool, error) {
	existing, err := r.FindByEmail(ctx, dto.Role, dto.Email)
	switch {
	case err == nil:
		updates := map[string]any{"password_hash": dto.PasswordHash}
		if dto.AccountStatus != "" {
			updates["account_status"] = dto.AccountStatus
		}
		if err := r.DB(ctx).Model(existing).Updates(updates).Error; err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, err := r.Create(ctx, dto)
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	default:
		return nil, false, err
	}
}
