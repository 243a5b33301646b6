package auth

import (
	"context"

	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/email"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
)

const resetSentMessage = "if the account exists, password reset instructions were sent to its email"

// ForgotPassword mails a short-lived reset code. Unknown emails get the same
// answer so the endpoint cannot be used to enumerate accounts.
func (s *service) ForgotPassword(ctx context.Context, role enums.Role, req EmailRequest) (*MessageResponse, error) {
	principal, err := s.principals(nil).FindByEmail(ctx, role, req.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return &MessageResponse{Message: resetSentMessage}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup principal")
	}

	issued, err := s.otp.Issue(ctx, principal.ID, role, enums.OTPPurposePasswordReset)
	if err != nil {
		return nil, err
	}
	if err := s.deliver(ctx, email.OTPMessage(principal.Email, "Password reset", issued.Code)); err != nil {
		return nil, err
	}

	resp := &MessageResponse{Message: resetSentMessage}
	if s.exposeOTP {
		resp.OTP = issued.Code
	}
	return resp, nil
}

func (s *service) ResetPassword(ctx context.Context, role enums.Role, req ResetPasswordRequest) error {
	repo := s.principals(nil)
	principal, err := repo.FindByEmail(ctx, role, req.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeInvalidOTP, "invalid or expired otp")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup principal")
	}
	if err := s.otp.Validate(ctx, principal.ID, role, enums.OTPPurposePasswordReset, req.OTP); err != nil {
		return err
	}
	return s.setPassword(ctx, role, principal.ID, req.NewPassword)
}

// RequestResetLink mails <reset url>?token=<signed token>.
func (s *service) RequestResetLink(ctx context.Context, role enums.Role, req EmailRequest) (*MessageResponse, error) {
	principal, err := s.principals(nil).FindByEmail(ctx, role, req.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return &MessageResponse{Message: resetSentMessage}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup principal")
	}

	issued, err := s.otp.Issue(ctx, principal.ID, role, enums.OTPPurposeResetLink)
	if err != nil {
		return nil, err
	}
	if err := s.deliver(ctx, email.ResetLinkMessage(principal.Email, s.resetURL, issued.Token)); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: resetSentMessage}, nil
}

// ResetPasswordWithToken accepts a reset link token. Tokens are stateless and
// stay usable until they expire.
func (s *service) ResetPasswordWithToken(ctx context.Context, req ResetWithTokenRequest) error {
	claims, err := s.otp.ValidateResetToken(ctx, req.Token)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, claims.Role, claims.PrincipalID, req.NewPassword)
}

func (s *service) setPassword(ctx context.Context, role enums.Role, id uint, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}
	if err := s.principals(nil).UpdatePassword(ctx, role, id, hash); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithPrincipal(ctx, id, role.String()), "password updated")
	}
	return nil
}
