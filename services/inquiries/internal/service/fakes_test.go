package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/propertyapp/property-listing/pkg/notify"
	"github.com/propertyapp/property-listing/services/inquiries/internal/domain"
)

type memoryInquiryRepo struct {
	mu        sync.Mutex
	inquiries map[int64]*domain.Inquiry
	nextID    int64
	failWrite error
	failRead  error

	// users and properties back the report joins.
	users      memoryUserRepo
	properties memoryPropertyRepo
}

func newMemoryInquiryRepo() *memoryInquiryRepo {
	return &memoryInquiryRepo{inquiries: map[int64]*domain.Inquiry{}}
}

func (r *memoryInquiryRepo) Create(_ context.Context, inq *domain.Inquiry) (*domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return nil, r.failWrite
	}
	r.nextID++
	cp := *inq
	cp.ID = r.nextID
	cp.Status = domain.InquiryOpen
	cp.CreatedAt = inq.InquiryDate
	cp.UpdatedAt = inq.InquiryDate
	r.inquiries[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memoryInquiryRepo) GetByID(_ context.Context, id int64) (*domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inq, ok := r.inquiries[id]
	if !ok {
		return nil, nil
	}
	cp := *inq
	return &cp, nil
}

func (r *memoryInquiryRepo) list(match func(*domain.Inquiry) bool, f domain.InquiryFilter) []domain.Inquiry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Inquiry{}
	for _, inq := range r.inquiries {
		if !match(inq) || (f.Status != nil && inq.Status != *f.Status) {
			continue
		}
		if f.PartyID != nil && inq.SellerID != *f.PartyID && inq.CustomerID != *f.PartyID {
			continue
		}
		out = append(out, *inq)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	limit, offset := f.Page()
	if offset >= len(out) {
		return []domain.Inquiry{}
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// count ignores paging.
func (r *memoryInquiryRepo) count(match func(*domain.Inquiry) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, inq := range r.inquiries {
		if match(inq) {
			n++
		}
	}
	return n
}

func (r *memoryInquiryRepo) ListByCustomer(_ context.Context, id int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	return r.list(func(i *domain.Inquiry) bool { return i.CustomerID == id }, f), nil
}

func (r *memoryInquiryRepo) ListBySeller(_ context.Context, id int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	return r.list(func(i *domain.Inquiry) bool { return i.SellerID == id }, f), nil
}

func (r *memoryInquiryRepo) ListByProperty(_ context.Context, id int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	return r.list(func(i *domain.Inquiry) bool { return i.PropertyID == id }, f), nil
}

func (r *memoryInquiryRepo) CountOpenBySeller(_ context.Context, id int64) (int64, error) {
	return r.count(func(i *domain.Inquiry) bool { return i.SellerID == id && i.Status == domain.InquiryOpen }), nil
}

func (r *memoryInquiryRepo) CountByCustomer(_ context.Context, id int64) (int64, error) {
	return r.count(func(i *domain.Inquiry) bool { return i.CustomerID == id }), nil
}

func (r *memoryInquiryRepo) customers() []*domain.User {
	var out []*domain.User
	for _, u := range r.users {
		if u.UserType == domain.UserCustomer {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryInquiryRepo) StatusReport(_ context.Context) ([]domain.CustomerStatusReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRead != nil {
		return nil, r.failRead
	}
	reports := []domain.CustomerStatusReport{}
	for _, u := range r.customers() {
		rep := domain.CustomerStatusReport{CustomerID: u.ID, FullName: u.FullName, ContactNo: u.MobileNumber}
		for _, inq := range r.inquiries {
			if inq.CustomerID == u.ID {
				rep.Add(inq.Status, 1)
			}
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (r *memoryInquiryRepo) ClosedReport(_ context.Context) ([]domain.CustomerClosedReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRead != nil {
		return nil, r.failRead
	}
	reports := []domain.CustomerClosedReport{}
	for _, u := range r.customers() {
		rep := domain.CustomerClosedReport{CustomerID: u.ID, FullName: u.FullName, ContactNo: u.MobileNumber, ClosedInquiries: []domain.ClosedInquiry{}}
		for _, inq := range r.inquiries {
			if inq.CustomerID != u.ID || inq.Status != domain.InquiryClosed {
				continue
			}
			c := domain.ClosedInquiry{InquiryID: inq.ID, ClosedDate: *inq.ClosedDate, ClosingReason: *inq.ClosingReason}
			if p := r.properties[inq.PropertyID]; p != nil {
				c.PropertyTitle = p.Title
			}
			rep.ClosedInquiries = append(rep.ClosedInquiries, c)
		}
		sort.Slice(rep.ClosedInquiries, func(i, j int) bool {
			a, b := rep.ClosedInquiries[i], rep.ClosedInquiries[j]
			if a.ClosedDate.Equal(b.ClosedDate) {
				return a.InquiryID > b.InquiryID
			}
			return a.ClosedDate.After(b.ClosedDate)
		})
		reports = append(reports, rep)
	}
	return reports, nil
}

func (r *memoryInquiryRepo) Close(_ context.Context, id int64, closedAt time.Time, reason string) (*domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return nil, r.failWrite
	}
	inq, ok := r.inquiries[id]
	if !ok || inq.Status != domain.InquiryOpen {
		return nil, nil
	}
	inq.Status = domain.InquiryClosed
	inq.ClosedDate = &closedAt
	inq.ClosingReason = &reason
	inq.UpdatedAt = closedAt
	cp := *inq
	return &cp, nil
}

func (r *memoryInquiryRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return 0, r.failWrite
	}
	var n int64
	for _, inq := range r.inquiries {
		if inq.IsOverdue(now) {
			inq.Status = domain.InquiryExpired
			inq.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// set overwrites a stored inquiry, for arranging state.
func (r *memoryInquiryRepo) set(inq domain.Inquiry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inquiries[inq.ID] = &inq
	if inq.ID > r.nextID {
		r.nextID = inq.ID
	}
}

type memoryUserRepo map[int64]*domain.User

func (r memoryUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return r[id], nil
}

type memoryPropertyRepo map[int64]*domain.Property

func (r memoryPropertyRepo) FindByID(_ context.Context, id int64) (*domain.Property, error) {
	return r[id], nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n notify.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

func (d *recordingDispatcher) notifications() []notify.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Notification(nil), d.sent...)
}

type published struct {
	subject string
	data    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{subject, data})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var errStoreDown = errors.New("connection refused")
