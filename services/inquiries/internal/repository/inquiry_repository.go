package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propertyapp/property-listing/services/inquiries/internal/domain"
)

type InquiryRepository interface {
	Create(ctx context.Context, inq *domain.Inquiry) (*domain.Inquiry, error)
	GetByID(ctx context.Context, id int64) (*domain.Inquiry, error)
	ListByCustomer(ctx context.Context, customerID int64, f domain.InquiryFilter) ([]domain.Inquiry, error)
	ListBySeller(ctx context.Context, sellerID int64, f domain.InquiryFilter) ([]domain.Inquiry, error)
	ListByProperty(ctx context.Context, propertyID int64, f domain.InquiryFilter) ([]domain.Inquiry, error)
	CountOpenBySeller(ctx context.Context, sellerID int64) (int64, error)
	CountByCustomer(ctx context.Context, customerID int64) (int64, error)
	// Close moves an OPEN inquiry to CLOSED. It returns nil when the inquiry
	// was no longer OPEN at write time.
	Close(ctx context.Context, id int64, closedAt time.Time, reason string) (*domain.Inquiry, error)
	// ExpireOverdue moves every OPEN inquiry with expiry_date < now to EXPIRED.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	// StatusReport counts inquiries per customer and status. Customers
	// without inquiries are included with zero counts.
	StatusReport(ctx context.Context) ([]domain.CustomerStatusReport, error)
	// ClosedReport lists every customer with their closed inquiries.
	ClosedReport(ctx context.Context) ([]domain.CustomerClosedReport, error)
}

type inquiryRepository struct {
	pool *pgxpool.Pool
}

func NewInquiryRepository(pool *pgxpool.Pool) InquiryRepository {
	return &inquiryRepository{pool: pool}
}

const inquiryCols = `id, property_id, customer_id, seller_id, description, status,
terms_accepted, inquiry_date, expiry_date, closed_date, closing_reason,
created_at, updated_at`

func scanInquiry(row pgx.Row) (*domain.Inquiry, error) {
	var i domain.Inquiry
	err := row.Scan(
		&i.ID, &i.PropertyID, &i.CustomerID, &i.SellerID, &i.Description, &i.Status,
		&i.TermsAccepted, &i.InquiryDate, &i.ExpiryDate, &i.ClosedDate, &i.ClosingReason,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *inquiryRepository) Create(ctx context.Context, inq *domain.Inquiry) (*domain.Inquiry, error) {
	const q = `INSERT INTO inquiries (
		property_id, customer_id, seller_id, description, status,
		terms_accepted, inquiry_date, expiry_date, created_at, updated_at
	) VALUES ($1,$2,$3,$4,'OPEN',$5,$6,$7,$6,$6)
	RETURNING ` + inquiryCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanInquiry(r.pool.QueryRow(ctx, q,
		inq.PropertyID, inq.CustomerID, inq.SellerID, inq.Description,
		inq.TermsAccepted, inq.InquiryDate, inq.ExpiryDate,
	))
}

func (r *inquiryRepository) GetByID(ctx context.Context, id int64) (*domain.Inquiry, error) {
	const q = `SELECT ` + inquiryCols + ` FROM inquiries WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	inq, err := scanInquiry(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inq, err
}

func (r *inquiryRepository) ListByCustomer(ctx context.Context, customerID int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	return r.listBy(ctx, "customer_id", customerID, f)
}

func (r *inquiryRepository) ListBySeller(ctx context.Context, sellerID int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	return r.listBy(ctx, "seller_id", sellerID, f)
}

func (r *inquiryRepository) ListByProperty(ctx context.Context, propertyID int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	return r.listBy(ctx, "property_id", propertyID, f)
}

// listBy is only called with fixed column names.
func (r *inquiryRepository) listBy(ctx context.Context, column string, id int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	limit, offset := f.Page()

	q := fmt.Sprintf(`SELECT %s FROM inquiries WHERE %s=$1`, inquiryCols, column)
	args := []any{id}
	if f.Status != nil {
		args = append(args, *f.Status)
		q += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	if f.PartyID != nil {
		args = append(args, *f.PartyID)
		q += fmt.Sprintf(` AND (seller_id=$%d OR customer_id=$%d)`, len(args), len(args))
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inquiries := []domain.Inquiry{}
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		inquiries = append(inquiries, *inq)
	}
	return inquiries, rows.Err()
}

func (r *inquiryRepository) CountOpenBySeller(ctx context.Context, sellerID int64) (int64, error) {
	const q = `SELECT count(*) FROM inquiries WHERE seller_id=$1 AND status='OPEN'`
	return r.count(ctx, q, sellerID)
}

func (r *inquiryRepository) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	const q = `SELECT count(*) FROM inquiries WHERE customer_id=$1`
	return r.count(ctx, q, customerID)
}

func (r *inquiryRepository) count(ctx context.Context, q string, id int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int64
	err := r.pool.QueryRow(ctx, q, id).Scan(&n)
	return n, err
}

func (r *inquiryRepository) Close(ctx context.Context, id int64, closedAt time.Time, reason string) (*domain.Inquiry, error) {
	const q = `
		UPDATE inquiries
		SET status='CLOSED', closed_date=$2, closing_reason=$3, updated_at=$2
		WHERE id=$1 AND status='OPEN'
		RETURNING ` + inquiryCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	inq, err := scanInquiry(r.pool.QueryRow(ctx, q, id, closedAt, reason))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inq, err
}

func (r *inquiryRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE inquiries SET status='EXPIRED', updated_at=$1 WHERE status='OPEN' AND expiry_date < $1`

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *inquiryRepository) StatusReport(ctx context.Context) ([]domain.CustomerStatusReport, error) {
	const q = `
		SELECT u.id, u.full_name, u.mobile_number, COALESCE(u.address, ''), i.status, count(i.id)
		FROM users u
		LEFT JOIN inquiries i ON i.customer_id = u.id
		WHERE u.user_type = 'CUSTOMER'
		GROUP BY u.id, u.full_name, u.mobile_number, u.address, i.status
		ORDER BY u.id`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.CustomerStatusReport{}
	for rows.Next() {
		var (
			rep    domain.CustomerStatusReport
			status *string
			n      int64
		)
		if err := rows.Scan(&rep.CustomerID, &rep.FullName, &rep.ContactNo, &rep.Address, &status, &n); err != nil {
			return nil, err
		}
		if len(reports) == 0 || reports[len(reports)-1].CustomerID != rep.CustomerID {
			reports = append(reports, rep)
		}
		if status != nil {
			reports[len(reports)-1].Add(domain.InquiryStatus(*status), n)
		}
	}
	return reports, rows.Err()
}

func (r *inquiryRepository) ClosedReport(ctx context.Context) ([]domain.CustomerClosedReport, error) {
	const q = `
		SELECT u.id, u.full_name, u.mobile_number, COALESCE(u.address, ''),
		       i.id, p.title, i.closing_reason, i.closed_date
		FROM users u
		LEFT JOIN inquiries i ON i.customer_id = u.id AND i.status = 'CLOSED'
		LEFT JOIN properties p ON p.id = i.property_id
		WHERE u.user_type = 'CUSTOMER'
		ORDER BY u.id, i.closed_date DESC NULLS LAST, i.id DESC`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.CustomerClosedReport{}
	for rows.Next() {
		var (
			rep       domain.CustomerClosedReport
			inquiryID *int64
			title     *string
			reason    *string
			closedAt  *time.Time
		)
		if err := rows.Scan(&rep.CustomerID, &rep.FullName, &rep.ContactNo, &rep.Address,
			&inquiryID, &title, &reason, &closedAt); err != nil {
			return nil, err
		}
		if len(reports) == 0 || reports[len(reports)-1].CustomerID != rep.CustomerID {
			rep.ClosedInquiries = []domain.ClosedInquiry{}
			reports = append(reports, rep)
		}
		if inquiryID == nil {
			continue
		}
		c := domain.ClosedInquiry{InquiryID: *inquiryID}
		if title != nil {
			c.PropertyTitle = *title
		}
		if reason != nil {
			c.ClosingReason = *reason
		}
		if closedAt != nil {
			c.ClosedDate = *closedAt
		}
		last := &reports[len(reports)-1]
		last.ClosedInquiries = append(last.ClosedInquiries, c)
	}
	return reports, rows.Err()
}
