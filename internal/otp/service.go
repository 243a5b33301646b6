package otp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/auth"
	"github.com/angelmondragon/bazaar-backend/pkg/config"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/angelmondragon/bazaar-backend/pkg/security"
)

// Issued is what the caller delivers to the principal out of band.
// Exactly one of Code or Token is set depending on the purpose.
type Issued struct {
	Purpose   enums.OTPPurpose
	Code      string
	Token     string
	ExpiresAt time.Time
}

// ResetClaims identifies the principal a reset token was minted for.
type ResetClaims struct {
	PrincipalID uint
	Role        enums.Role
}

// Service issues and validates one-time codes and reset tokens.
type Service interface {
	Issue(ctx context.Context, principalID uint, role enums.Role, purpose enums.OTPPurpose) (Issued, error)
	Validate(ctx context.Context, principalID uint, role enums.Role, purpose enums.OTPPurpose, code string) error
	ValidateResetToken(ctx context.Context, token string) (ResetClaims, error)
}

type eventRecorder interface {
	OTPIssued(purpose string)
	OTPValidated(purpose string, ok bool)
}

type ServiceParams struct {
	Store   Store
	OTP     config.OTPConfig
	Reset   config.ResetConfig
	Metrics eventRecorder
	Now     func() time.Time
	// Generate overrides code generation in tests.
	Generate func() (string, error)
}

type service struct {
	store    Store
	secret   []byte
	ttls     map[enums.OTPPurpose]time.Duration
	reset    config.ResetConfig
	metrics  eventRecorder
	now      func() time.Time
	generate func() (string, error)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if params.OTP.ConfirmTTL <= 0 || params.OTP.ResetTTL <= 0 {
		return nil, fmt.Errorf("otp ttls must be positive")
	}
	if params.OTP.Secret == "" {
		return nil, fmt.Errorf("otp secret required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	generate := params.Generate
	if generate == nil {
		generate = security.GenerateNumericCode
	}
	return &service{
		store:  params.Store,
		secret: []byte(params.OTP.Secret),
		ttls: map[enums.OTPPurpose]time.Duration{
			enums.OTPPurposeConfirmSignin: params.OTP.ConfirmTTL,
			enums.OTPPurposePasswordReset: params.OTP.ResetTTL,
		},
		reset:    params.Reset,
		metrics:  params.Metrics,
		now:      now,
		generate: generate,
	}, nil
}

func (s *service) Issue(ctx context.Context, principalID uint, role enums.Role, purpose enums.OTPPurpose) (Issued, error) {
	if principalID == 0 || !role.IsValid() {
		return Issued{}, pkgerrors.New(pkgerrors.CodeValidation, "principal id and role are required")
	}

	now := s.now()
	switch purpose {
	case enums.OTPPurposeConfirmSignin, enums.OTPPurposePasswordReset:
		code, err := s.generate()
		if err != nil {
			return Issued{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
		}
		ttl := s.ttls[purpose]
		key := Key{PrincipalID: principalID, Role: role, Purpose: purpose}
		if err := s.store.Put(ctx, key, s.digest(key, code), ttl); err != nil {
			return Issued{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
		}
		s.recordIssue(purpose)
		return Issued{Purpose: purpose, Code: code, ExpiresAt: now.Add(ttl)}, nil

	case enums.OTPPurposeResetLink:
		token, err := auth.MintResetToken(s.reset, now, principalID, role)
		if err != nil {
			return Issued{}, pkgerrors.Passthrough(pkgerrors.CodeConfiguration, err, "sign reset token")
		}
		s.recordIssue(purpose)
		return Issued{Purpose: purpose, Token: token, ExpiresAt: now.Add(s.reset.TTL)}, nil

	default:
		return Issued{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown otp purpose %q", purpose))
	}
}

// Validate consumes the live code of purpose. Reset links are validated
// through ValidateResetToken instead.
func (s *service) Validate(ctx context.Context, principalID uint, role enums.Role, purpose enums.OTPPurpose, code string) error {
	if _, coded := s.ttls[purpose]; !coded {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("otp purpose %q has no code", purpose))
	}
	key := Key{PrincipalID: principalID, Role: role, Purpose: purpose}
	ok, err := s.store.Consume(ctx, key, s.digest(key, code))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
	}
	if s.metrics != nil {
		s.metrics.OTPValidated(purpose.String(), ok)
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInvalidOTP, "invalid or expired otp")
	}
	return nil
}

func (s *service) ValidateResetToken(_ context.Context, token string) (ResetClaims, error) {
	claims, err := auth.ParseResetToken(s.reset, token)
	if s.metrics != nil {
		s.metrics.OTPValidated(enums.OTPPurposeResetLink.String(), err == nil)
	}
	if err != nil {
		return ResetClaims{}, err
	}
	return ResetClaims{PrincipalID: claims.PrincipalID, Role: claims.Role}, nil
}

// digest is what the store keeps instead of the code: an HMAC bound to the slot.
func (s *service) digest(key Key, code string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%d|%s", key.Role, key.Purpose, key.PrincipalID, code)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *service) recordIssue(purpose enums.OTPPurpose) {
	if s.metrics != nil {
		s.metrics.OTPIssued(purpose.String())
	}
}
