package enums

import "fmt"

// AccountStatus tracks whether a principal has confirmed ownership of its email.
type AccountStatus string

const (
	AccountStatusUnverified AccountStatus = "unverified"
	AccountStatusVerified   AccountStatus = "verified"
)

var validAccountStatuses = []AccountStatus{
	AccountStatusUnverified,
	AccountStatusVerified,
}

// String implements fmt.Stringer.
func (s AccountStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AccountStatus.
func (s AccountStatus) IsValid() bool {
	for _, candidate := range validAccountStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAccountStatus converts raw input into an AccountStatus.
func ParseAccountStatus(value string) (AccountStatus, error) {
	for _, candidate := range validAccountStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account status %q", value)
}
