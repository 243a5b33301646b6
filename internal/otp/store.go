package otp

import (
	"context"
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/enums"
)

// Key identifies an OTP slot. A principal owns one slot per purpose, so a
// code issued for one purpose never satisfies another.
type Key struct {
	PrincipalID uint
	Role        enums.Role
	Purpose     enums.OTPPurpose
}

// Store holds outstanding codes as opaque digests. At most one live code
// exists per Key.
type Store interface {
	// Put replaces any code held for key.
	Put(ctx context.Context, key Key, code string, ttl time.Duration) error
	// Consume removes the code iff it matches and has not expired.
	// Concurrent consumers of the same code see exactly one true.
	Consume(ctx context.Context, key Key, code string) (bool, error)
}
