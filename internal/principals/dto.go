package principals

import (
	"strings"
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
)

// PrincipalDTO is the transport shape that omits credentials.
type PrincipalDTO struct {
	ID            uint                `json:"id"`
	Role          enums.Role          `json:"role"`
	Email         string              `json:"email"`
	Phone         *string             `json:"phone,omitempty"`
	FullName      string              `json:"full_name"`
	AccountStatus enums.AccountStatus `json:"account_status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CreatePrincipalDTO holds what the repo needs to persist a new principal.
type CreatePrincipalDTO struct {
	Role          enums.Role
	Email         string
	Phone         *string
	FullName      string
	PasswordHash  string
	AccountStatus enums.AccountStatus
}

// UpdateProfileInput patches the editable profile fields. Nil fields are left untouched.
type UpdateProfileInput struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=120"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=6,max=32"`
}

func FromModel(p *models.Principal) *PrincipalDTO {
	if p == nil {
		return nil
	}
	return &PrincipalDTO{
		ID:            p.ID,
		Role:          p.Role,
		Email:         p.Email,
		Phone:         p.Phone,
		FullName:      p.FullName,
		AccountStatus: p.AccountStatus,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (c CreatePrincipalDTO) ToModel() *models.Principal {
	status := c.AccountStatus
	if status == "" {
		status = enums.AccountStatusUnverified
	}
	return &models.Principal{
		Role:          c.Role,
		Email:         NormalizeEmail(c.Email),
		Phone:         NormalizePhone(c.Phone),
		FullName:      strings.TrimSpace(c.FullName),
		PasswordHash:  c.PasswordHash,
		AccountStatus: status,
	}
}

// NormalizeEmail trims and lowercases an address. Every lookup and write goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone trims the value and maps blanks to nil.
func NormalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
