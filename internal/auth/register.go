package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/bazaar-backend/internal/principals"
	"github.com/angelmondragon/bazaar-backend/pkg/config"
	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"gorm.io/gorm"
)

// Register creates an unverified user or saller and mails a confirmation code.
// The row is rolled back if the code cannot be issued or delivered.
func (s *service) Register(ctx context.Context, role enums.Role, req RegisterRequest) (*RegisterResponse, error) {
	if !role.SelfRegistrable() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot self register")
	}
	principal, err := s.create(ctx, role, req)
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{
		Principal: principals.FromModel(principal),
		Message:   otpSentMessage,
	}, nil
}

// AdminCreate is Register on behalf of an admin. Admin accounts are only seeded.
func (s *service) AdminCreate(ctx context.Context, role enums.Role, req RegisterRequest) (*principals.PrincipalDTO, error) {
	if !role.SelfRegistrable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only users and sallers can be created")
	}
	principal, err := s.create(ctx, role, req)
	if err != nil {
		return nil, err
	}
	return principals.FromModel(principal), nil
}

func (s *service) create(ctx context.Context, role enums.Role, req RegisterRequest) (*models.Principal, error) {
	emailAddr := principals.NormalizeEmail(req.Email)
	if emailAddr == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}

	var created *models.Principal
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.principals(tx)

		if _, err := repo.FindByEmail(ctx, role, emailAddr); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}

		if phone := principals.NormalizePhone(req.Phone); phone != nil {
			taken, err := repo.ExistsByPhone(ctx, role, *phone, 0)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check phone")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
			}
		}

		principal, err := repo.Create(ctx, principals.CreatePrincipalDTO{
			Role:          role,
			Email:         emailAddr,
			Phone:         req.Phone,
			FullName:      req.FullName,
			PasswordHash:  passwordHash,
			AccountStatus: enums.AccountStatusUnverified,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email or phone already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create principal")
		}

		if err := s.sendCode(ctx, principal, enums.OTPPurposeConfirmSignin, "Confirm your account"); err != nil {
			return err
		}
		created = principal
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithPrincipal(ctx, created.ID, role.String()), "principal registered")
	}
	return created, nil
}

// SeedAdmin ensures the configured admin exists, is verified and uses the configured password.
func (s *service) SeedAdmin(ctx context.Context, cfg config.AdminSeedConfig) error {
	if principals.NormalizeEmail(cfg.Email) == "" || cfg.Password == "" {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "admin seed email and password are required")
	}
	hash, err := s.hasher.Hash(cfg.Password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}

	var (
		admin   *models.Principal
		created bool
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		admin, created, err = s.principals(tx).Upsert(ctx, principals.CreatePrincipalDTO{
			Role:          enums.RoleAdmin,
			Email:         cfg.Email,
			FullName:      "Administrator",
			PasswordHash:  hash,
			AccountStatus: enums.AccountStatusVerified,
		})
		return err
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"principal_id": admin.ID, "created": created})
		s.logg.Info(ctx, "admin seeded")
	}
	return nil
}
