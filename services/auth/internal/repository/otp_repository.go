package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propertyapp/property-listing/services/auth/internal/domain"
)

type OTPRepository interface {
	Create(ctx context.Context, c *domain.OTPChallenge) error
	// Consume marks the newest unverified, unexpired challenge matching
	// mobile and codeHash as verified. It reports false when none matched.
	Consume(ctx context.Context, mobile, codeHash string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) OTPRepository {
	return &otpRepository{pool: pool}
}

func (r *otpRepository) Create(ctx context.Context, c *domain.OTPChallenge) error {
	const q = `
		INSERT INTO otp_challenges (mobile_number, code_hash, verified, created_at, expires_at, updated_at)
		VALUES ($1, $2, FALSE, $3, $4, $3)
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.pool.QueryRow(ctx, q, c.MobileNumber, c.CodeHash, c.CreatedAt, c.ExpiresAt).Scan(&c.ID)
}

func (r *otpRepository) Consume(ctx context.Context, mobile, codeHash string, now time.Time) (bool, error) {
	// The outer predicate on verified is re-checked under the row lock, so two
	// concurrent logins with the same code cannot both succeed.
	const q = `
		WITH candidate AS (
			SELECT id, expires_at
			FROM otp_challenges
			WHERE mobile_number = $1
			  AND code_hash = $2
			  AND verified = FALSE
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		UPDATE otp_challenges o
		SET verified = TRUE, verified_at = $3, updated_at = $3
		FROM candidate c
		WHERE o.id = c.id
		  AND o.verified = FALSE
		  AND c.expires_at >= $3
		RETURNING o.id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err := r.pool.QueryRow(ctx, q, mobile, codeHash, now).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *otpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM otp_challenges WHERE expires_at < $1 AND verified = FALSE`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
