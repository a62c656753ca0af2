package domain

import (
	"context"
	"time"
)

// VerificationLocker serializes verification of one reference across
// processes. ok is false when another holder owns the key.
type VerificationLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}
