package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// DefaultOTPTTL bounds the brute-force window of the 6-digit code space.
const DefaultOTPTTL = 60 * time.Second

var (
	ErrOTPNotFound = errors.New("otp not found or already used")
	ErrOTPExpired  = errors.New("otp expired")
	ErrOTPMismatch = errors.New("invalid otp")
)

// GenerateOTP returns a 6-digit code drawn uniformly from [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// HashOTP returns the hex SHA-256 digest stored in place of the plaintext
// code. A fast digest is enough here: codes live for a minute and are
// consumed at most once.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// OTPService mints, stores and checks one-time codes against user records.
type OTPService struct {
	Users Repository
	TTL   time.Duration

	now func() time.Time
}

func NewOTPService(users Repository, ttl time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPService{Users: users, TTL: ttl, now: time.Now}
}

// Issue mints a fresh code for the user, stores its digest alongside an
// expiry, and returns the plaintext for out-of-band delivery. Any previously
// pending code is overwritten, so a resent code invalidates the old one.
func (s *OTPService) Issue(ctx context.Context, userID string) (string, error) {
	code, err := GenerateOTP()
	if err != nil {
		return "", err
	}
	if err := s.Users.SaveOTP(ctx, userID, HashOTP(code), s.now().Add(s.TTL)); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the supplied code against the user's pending one and, on a
// match, consumes it: the OTP pair is cleared and the user marked verified in
// a single conditional update, so a code can be spent at most once even under
// concurrent attempts.
func (s *OTPService) Verify(ctx context.Context, user *User, code string) error {
	if user.OTP == nil {
		return ErrOTPNotFound
	}
	if !s.now().Before(user.OTP.ExpiresAt) {
		return ErrOTPExpired
	}
	if HashOTP(code) != user.OTP.Hash {
		return ErrOTPMismatch
	}

	consumed, err := s.Users.ConsumeOTP(ctx, user.ID, user.OTP.Hash)
	if err != nil {
		return err
	}
	if !consumed {
		// Lost the race to a concurrent verify, or the code was replaced by a
		// resend between read and update.
		return ErrOTPNotFound
	}
	return nil
}
