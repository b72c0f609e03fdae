package codestore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Purpose names what a one-time code proves. It is part of the storage key,
// so codes for different purposes never collide for the same email.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify_email"
	PurposeResetPassword Purpose = "reset_password"
)

// Store is a key/value store with per-key expiry. Expiry is enforced by the
// store itself: a Get past the TTL behaves exactly like a Get on an absent
// key. Set on an existing key replaces both value and TTL.
//
// CompareAndDelete removes the key only when the stored value equals the
// supplied one, as a single atomic step; it reports whether the key was
// consumed. A mismatch leaves the stored value in place.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

func Key(purpose Purpose, email string) string {
	return fmt.Sprintf("%s:%s", purpose, email)
}

var codeSpace = big.NewInt(1_000_000)

// GenerateCode draws a 6-digit numeric code from crypto/rand, zero-padded.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
