package auth

import (
	"github.com/angelmondragon/bazaar-backend/internal/principals"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
)

// RegisterRequest is the sign-up payload shared by users and sallers.
type RegisterRequest struct {
	FullName string  `json:"full_name" validate:"required,min=1,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,max=128"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=6,max=32"`
}

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmSigninRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

type ResetWithTokenRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// LoginResponse carries a session token, or only a message when the account
// still needs OTP confirmation.
type LoginResponse struct {
	AccessToken          string     `json:"access_token,omitempty"`
	PrincipalID          uint       `json:"user_id"`
	Email                string     `json:"email"`
	Role                 enums.Role `json:"role"`
	VerificationRequired bool       `json:"verification_required,omitempty"`
	Message              string     `json:"message,omitempty"`
}

type RegisterResponse struct {
	Principal *principals.PrincipalDTO `json:"principal"`
	Message   string                   `json:"message"`
}

// MessageResponse is returned by the OTP delivery endpoints. OTP is only
// populated in the dev environment.
type MessageResponse struct {
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}
