package models

import (
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/enums"
)

// Principal is any account that can authenticate. Role is data, not a separate table.
type Principal struct {
	ID            uint                `gorm:"column:id;primaryKey;autoIncrement"`
	Role          enums.Role          `gorm:"column:role;type:varchar(16);not null;uniqueIndex:idx_principals_role_email,priority:1;uniqueIndex:idx_principals_role_phone,priority:1"`
	Email         string              `gorm:"column:email;type:varchar(320);not null;uniqueIndex:idx_principals_role_email,priority:2"`
	Phone         *string             `gorm:"column:phone;type:varchar(32);uniqueIndex:idx_principals_role_phone,priority:2"`
	FullName      string              `gorm:"column:full_name;not null;default:''"`
	PasswordHash  string              `gorm:"column:password_hash;not null"`
	AccountStatus enums.AccountStatus `gorm:"column:account_status;type:varchar(16);not null;default:unverified"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Principal) TableName() string { return "principals" }

// IsVerified reports whether the principal completed OTP confirmation.
func (p Principal) IsVerified() bool {
	return p.AccountStatus == enums.AccountStatusVerified
}
