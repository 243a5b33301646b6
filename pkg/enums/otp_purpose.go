package enums

import "fmt"

// OTPPurpose selects what kind of one-time credential is issued.
type OTPPurpose string

const (
	// OTPPurposeConfirmSignin is a 6-digit code that verifies a new account.
	OTPPurposeConfirmSignin OTPPurpose = "confirm_signin"
	// OTPPurposePasswordReset is a short-lived 6-digit code that authorizes a password change.
	OTPPurposePasswordReset OTPPurpose = "password_reset"
	// OTPPurposeResetLink is a signed stateless token embedded in a reset link.
	OTPPurposeResetLink OTPPurpose = "reset_link"
)

var validOTPPurposes = []OTPPurpose{
	OTPPurposeConfirmSignin,
	OTPPurposePasswordReset,
	OTPPurposeResetLink,
}

// String implements fmt.Stringer.
func (p OTPPurpose) String() string {
	return string(p)
}

// IsValid reports whether the value is a known OTPPurpose.
func (p OTPPurpose) IsValid() bool {
	for _, candidate := range validOTPPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseOTPPurpose converts raw input into an OTPPurpose.
func ParseOTPPurpose(value string) (OTPPurpose, error) {
	for _, candidate := range validOTPPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid otp purpose %q", value)
}
