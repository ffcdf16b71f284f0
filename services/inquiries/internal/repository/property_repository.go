package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propertyapp/property-listing/services/inquiries/internal/domain"
)

type PropertyRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Property, error)
}

type propertyRepository struct {
	pool *pgxpool.Pool
}

func NewPropertyRepository(pool *pgxpool.Pool) PropertyRepository {
	return &propertyRepository{pool: pool}
}

func (r *propertyRepository) FindByID(ctx context.Context, id int64) (*domain.Property, error) {
	const q = `SELECT id, seller_id, title, is_active, created_at FROM properties WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Property
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.SellerID, &p.Title, &p.IsActive, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
