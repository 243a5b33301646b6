package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/bazaar-backend/internal/otp"
	"github.com/angelmondragon/bazaar-backend/internal/principals"
	pkgAuth "github.com/angelmondragon/bazaar-backend/pkg/auth"
	"github.com/angelmondragon/bazaar-backend/pkg/config"
	"github.com/angelmondragon/bazaar-backend/pkg/db"
	"github.com/angelmondragon/bazaar-backend/pkg/db/models"
	"github.com/angelmondragon/bazaar-backend/pkg/email"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/angelmondragon/bazaar-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage   = "invalid credentials"
	verificationRequiredMessage = "account is not verified; confirm the code sent to your email"
	otpSentMessage              = "a verification code was sent to your email"
)

// Service is the single authentication flow for every role.
type Service interface {
	Register(ctx context.Context, role enums.Role, req RegisterRequest) (*RegisterResponse, error)
	AdminCreate(ctx context.Context, role enums.Role, req RegisterRequest) (*principals.PrincipalDTO, error)
	Login(ctx context.Context, role enums.Role, req LoginRequest) (*LoginResponse, error)
	RequestOTP(ctx context.Context, role enums.Role, req EmailRequest) (*MessageResponse, error)
	ConfirmSignin(ctx context.Context, role enums.Role, req ConfirmSigninRequest) (*LoginResponse, error)
	ForgotPassword(ctx context.Context, role enums.Role, req EmailRequest) (*MessageResponse, error)
	ResetPassword(ctx context.Context, role enums.Role, req ResetPasswordRequest) error
	RequestResetLink(ctx context.Context, role enums.Role, req EmailRequest) (*MessageResponse, error)
	ResetPasswordWithToken(ctx context.Context, req ResetWithTokenRequest) error
	SeedAdmin(ctx context.Context, cfg config.AdminSeedConfig) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	BurnCycles(password string)
}

// ServiceParams bundles the dependencies required to build the auth service.
type ServiceParams struct {
	DB       *db.Client
	OTP      otp.Service
	Mailer   email.Sender
	Hasher   passwordHasher
	JWT      config.JWTConfig
	ResetURL string
	// ExposeOTP echoes password reset codes in responses; only set in dev.
	ExposeOTP bool
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	db        *db.Client
	otp       otp.Service
	mailer    email.Sender
	hasher    passwordHasher
	jwtCfg    config.JWTConfig
	resetURL  string
	exposeOTP bool
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.OTP == nil {
		return nil, fmt.Errorf("otp service is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:        params.DB,
		otp:       params.OTP,
		mailer:    params.Mailer,
		hasher:    params.Hasher,
		jwtCfg:    params.JWT,
		resetURL:  params.ResetURL,
		exposeOTP: params.ExposeOTP,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) principals(tx *gorm.DB) *principals.Repository {
	if tx == nil {
		return principals.NewRepository(s.db.DB())
	}
	return principals.NewRepository(tx)
}

func (s *service) Login(ctx context.Context, role enums.Role, req LoginRequest) (*LoginResponse, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	principal, err := s.principals(nil).FindByEmail(ctx, role, req.Email)
	if err != nil {
		if db.IsNotFound(err) {
			s.hasher.BurnCycles(req.Password)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup principal")
	}

	valid, err := s.hasher.Verify(req.Password, principal.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if !principal.IsVerified() {
		return &LoginResponse{
			PrincipalID:          principal.ID,
			Email:                principal.Email,
			Role:                 principal.Role,
			VerificationRequired: true,
			Message:              verificationRequiredMessage,
		}, nil
	}
	return s.session(principal)
}

func (s *service) ConfirmSignin(ctx context.Context, role enums.Role, req ConfirmSigninRequest) (*LoginResponse, error) {
	repo := s.principals(nil)
	principal, err := repo.FindByEmail(ctx, role, req.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidOTP, "invalid or expired otp")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup principal")
	}

	if err := s.otp.Validate(ctx, principal.ID, role, enums.OTPPurposeConfirmSignin, req.OTP); err != nil {
		return nil, err
	}

	changed, err := repo.MarkVerified(ctx, role, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark verified")
	}
	principal.AccountStatus = enums.AccountStatusVerified
	if changed && s.logg != nil {
		s.logg.Info(s.logg.WithPrincipal(ctx, principal.ID, role.String()), "account verified")
	}

	resp, err := s.session(principal)
	if err != nil {
		return nil, err
	}
	resp.Message = "account verified"
	return resp, nil
}

func (s *service) RequestOTP(ctx context.Context, role enums.Role, req EmailRequest) (*MessageResponse, error) {
	principal, err := s.principals(nil).FindByEmail(ctx, role, req.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return &MessageResponse{Message: otpSentMessage}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup principal")
	}
	if principal.IsVerified() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "account is already verified")
	}
	if err := s.sendCode(ctx, principal, enums.OTPPurposeConfirmSignin, "Confirm your account"); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: otpSentMessage}, nil
}

func (s *service) session(principal *models.Principal) (*LoginResponse, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		PrincipalID: principal.ID,
		Email:       principal.Email,
		Role:        principal.Role,
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &LoginResponse{
		AccessToken: token,
		PrincipalID: principal.ID,
		Email:       principal.Email,
		Role:        principal.Role,
	}, nil
}

// sendCode issues a numeric code for purpose and mails it. Delivery failures
// fail the caller.
func (s *service) sendCode(ctx context.Context, principal *models.Principal, purpose enums.OTPPurpose, subject string) error {
	issued, err := s.otp.Issue(ctx, principal.ID, principal.Role, purpose)
	if err != nil {
		return err
	}
	return s.deliver(ctx, email.OTPMessage(principal.Email, subject, issued.Code))
}

func (s *service) deliver(ctx context.Context, msg email.Message) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "mail delivery failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send email")
	}
	return nil
}
