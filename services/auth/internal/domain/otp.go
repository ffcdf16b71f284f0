package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// OTPChallenge is one issued code. The plain code is never stored.
type OTPChallenge struct {
	ID           int64
	MobileNumber string
	CodeHash     string
	Verified     bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// IsExpired reports whether the challenge is past its expiry at now.
// A challenge is still valid at exactly ExpiresAt.
func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Usable reports whether the challenge can still be consumed at now.
func (c *OTPChallenge) Usable(now time.Time) bool {
	return !c.Verified && !c.IsExpired(now)
}

const (
	otpMin = 100000
	otpMax = 999999
)

// GenerateOTP returns a uniformly random code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// HashOTP returns the hex SHA-256 of code, used as the stored lookup key.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
