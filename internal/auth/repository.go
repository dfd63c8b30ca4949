package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already exists")
	ErrNameTaken  = errors.New("user name already exists")
)

// Repository persists user records. Every mutation is scoped to a single row;
// SaveOTP and ConsumeOTP each write the OTP pair as a unit so the digest and
// the expiry can never drift apart.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByName(ctx context.Context, name string) (*User, error)

	// SaveOTP replaces any pending OTP pair on the user with the given digest
	// and expiry. Only one OTP can be pending per user at a time.
	SaveOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error

	// ConsumeOTP atomically clears the OTP pair and marks the user verified,
	// but only while the stored digest still equals otpHash and the user is
	// still unverified. It reports whether this call won the update, so two
	// concurrent verifications of the same code cannot both succeed.
	ConsumeOTP(ctx context.Context, userID, otpHash string) (bool, error)

	// EnsureAdmin creates a verified admin account unless one already exists.
	// It reports whether a new account was created.
	EnsureAdmin(ctx context.Context, admin *User) (bool, error)
}
