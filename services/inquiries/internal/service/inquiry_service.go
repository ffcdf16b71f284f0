package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/propertyapp/property-listing/pkg/apperr"
	"github.com/propertyapp/property-listing/pkg/events"
	"github.com/propertyapp/property-listing/pkg/logger"
	"github.com/propertyapp/property-listing/pkg/metrics"
	"github.com/propertyapp/property-listing/pkg/notify"
	"github.com/propertyapp/property-listing/services/inquiries/internal/domain"
	"github.com/propertyapp/property-listing/services/inquiries/internal/repository"
)

type InquiryService interface {
	CreateInquiry(ctx context.Context, customerID, propertyID int64, description string, termsAccepted bool) (*domain.Inquiry, error)
	UpdateStatus(ctx context.Context, inquiryID, sellerID int64, status domain.InquiryStatus, closingReason string) (*domain.Inquiry, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	GetInquiry(ctx context.Context, id int64) (*domain.Inquiry, error)
	ListByCustomer(ctx context.Context, customerID int64, f domain.InquiryFilter) ([]domain.Inquiry, error)
	ListBySeller(ctx context.Context, sellerID int64, f domain.InquiryFilter) ([]domain.Inquiry, error)
	ListByProperty(ctx context.Context, propertyID int64, f domain.InquiryFilter) ([]domain.Inquiry, error)
	CountOpenBySeller(ctx context.Context, sellerID int64) (int64, error)
	CountByCustomer(ctx context.Context, customerID int64) (int64, error)
	StatusReport(ctx context.Context) ([]domain.CustomerStatusReport, error)
	ClosedReport(ctx context.Context) ([]domain.CustomerClosedReport, error)
}

type Option func(*inquiryService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *inquiryService) { s.now = now }
}

// WithPublisher publishes lifecycle events after each committed change.
func WithPublisher(p events.Publisher) Option {
	return func(s *inquiryService) { s.publisher = p }
}

type inquiryService struct {
	inquiryRepo    repository.InquiryRepository
	userRepo       repository.UserRepository
	propertyRepo   repository.PropertyRepository
	dispatcher     notify.Dispatcher
	publisher      events.Publisher
	validityMonths int
	now            func() time.Time
}

func NewInquiryService(
	inquiryRepo repository.InquiryRepository,
	userRepo repository.UserRepository,
	propertyRepo repository.PropertyRepository,
	dispatcher notify.Dispatcher,
	validityMonths int,
	opts ...Option,
) InquiryService {
	if validityMonths <= 0 {
		validityMonths = domain.DefaultValidityMonths
	}
	s := &inquiryService{
		inquiryRepo:    inquiryRepo,
		userRepo:       userRepo,
		propertyRepo:   propertyRepo,
		dispatcher:     dispatcher,
		validityMonths: validityMonths,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *inquiryService) CreateInquiry(ctx context.Context, customerID, propertyID int64, description string, termsAccepted bool) (*domain.Inquiry, error) {
	customer, err := s.userRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, apperr.Store(err, "find customer")
	}
	if customer == nil {
		return nil, apperr.NotFound("Customer not found with ID: %d", customerID)
	}
	if customer.UserType != domain.UserCustomer {
		return nil, apperr.Unauthorized("Only customers can create inquiries")
	}

	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		return nil, apperr.Store(err, "find property")
	}
	if property == nil {
		return nil, apperr.NotFound("Property not found with ID: %d", propertyID)
	}

	if !termsAccepted {
		return nil, apperr.InvalidState("Terms and conditions must be accepted to create an inquiry")
	}

	now := s.now()
	inquiry, err := s.inquiryRepo.Create(ctx, &domain.Inquiry{
		PropertyID:    property.ID,
		CustomerID:    customer.ID,
		SellerID:      property.SellerID,
		Description:   description,
		Status:        domain.InquiryOpen,
		TermsAccepted: true,
		InquiryDate:   now,
		ExpiryDate:    domain.ExpiryFor(now, s.validityMonths),
	})
	if err != nil {
		return nil, apperr.Store(err, "create inquiry")
	}

	metrics.InquiryTransitions.WithLabelValues(string(domain.InquiryOpen)).Inc()
	logger.InfoContext(ctx, "Inquiry created", "inquiry_id", inquiry.ID, "property_id", property.ID, "seller_id", property.SellerID)

	s.notifySeller(ctx, inquiry, property, customer)
	s.publish(ctx, events.InquiryCreated, events.InquiryCreatedEvent{
		InquiryID:  inquiry.ID,
		PropertyID: inquiry.PropertyID,
		CustomerID: inquiry.CustomerID,
		SellerID:   inquiry.SellerID,
		ExpiryDate: inquiry.ExpiryDate,
		CreatedAt:  inquiry.CreatedAt,
	}, inquiry.ID)

	return inquiry, nil
}

func (s *inquiryService) UpdateStatus(ctx context.Context, inquiryID, sellerID int64, status domain.InquiryStatus, closingReason string) (*domain.Inquiry, error) {
	if len(closingReason) > domain.MaxClosingReasonLen {
		return nil, apperr.Validation("closingReason must be at most %d characters", domain.MaxClosingReasonLen)
	}

	inquiry, err := s.inquiryRepo.GetByID(ctx, inquiryID)
	if err != nil {
		return nil, apperr.Store(err, "get inquiry")
	}
	if inquiry == nil {
		return nil, apperr.NotFound("Inquiry not found with ID: %d", inquiryID)
	}
	if inquiry.SellerID != sellerID {
		return nil, apperr.Unauthorized("Only the seller can update inquiry status")
	}
	if inquiry.Status.IsTerminal() {
		return nil, apperr.InvalidState("Inquiry is already %s", strings.ToLower(string(inquiry.Status)))
	}
	if !domain.CanTransition(inquiry.Status, status, domain.BySeller) {
		return nil, apperr.InvalidState("Cannot change inquiry status from %s to %s", inquiry.Status, status)
	}

	// Close is conditional on OPEN; a concurrent sweep or close wins the race.
	updated, err := s.inquiryRepo.Close(ctx, inquiry.ID, s.now(), closingReason)
	if err != nil {
		return nil, apperr.Store(err, "close inquiry")
	}
	if updated == nil {
		return nil, apperr.InvalidState("Inquiry %d is no longer open", inquiryID)
	}

	metrics.InquiryTransitions.WithLabelValues(string(domain.InquiryClosed)).Inc()
	logger.InfoContext(ctx, "Inquiry closed", "inquiry_id", updated.ID, "seller_id", sellerID)

	s.notifyCustomer(ctx, updated)
	s.publish(ctx, events.InquiryClosed, events.InquiryClosedEvent{
		InquiryID:     updated.ID,
		CustomerID:    updated.CustomerID,
		SellerID:      updated.SellerID,
		ClosingReason: closingReason,
		ClosedAt:      *updated.ClosedDate,
	}, updated.ID)

	return updated, nil
}

// SweepExpired expires every OPEN inquiry past its expiry date. Expired
// inquiries are not notified.
func (s *inquiryService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.inquiryRepo.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, apperr.Store(err, "expire overdue inquiries")
	}
	if n > 0 {
		metrics.InquiryTransitions.WithLabelValues(string(domain.InquiryExpired)).Add(float64(n))
		s.publish(ctx, events.InquiryExpired, events.InquiriesExpiredEvent{Count: n, SweptAt: now}, 0)
	}
	return n, nil
}

func (s *inquiryService) GetInquiry(ctx context.Context, id int64) (*domain.Inquiry, error) {
	inquiry, err := s.inquiryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Store(err, "get inquiry")
	}
	if inquiry == nil {
		return nil, apperr.NotFound("Inquiry not found with ID: %d", id)
	}
	return inquiry, nil
}

func (s *inquiryService) ListByCustomer(ctx context.Context, customerID int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	list, err := s.inquiryRepo.ListByCustomer(ctx, customerID, f)
	if err != nil {
		return nil, apperr.Store(err, "list inquiries by customer")
	}
	return list, nil
}

func (s *inquiryService) ListBySeller(ctx context.Context, sellerID int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	list, err := s.inquiryRepo.ListBySeller(ctx, sellerID, f)
	if err != nil {
		return nil, apperr.Store(err, "list inquiries by seller")
	}
	return list, nil
}

func (s *inquiryService) ListByProperty(ctx context.Context, propertyID int64, f domain.InquiryFilter) ([]domain.Inquiry, error) {
	list, err := s.inquiryRepo.ListByProperty(ctx, propertyID, f)
	if err != nil {
		return nil, apperr.Store(err, "list inquiries by property")
	}
	return list, nil
}

func (s *inquiryService) CountOpenBySeller(ctx context.Context, sellerID int64) (int64, error) {
	if err := s.requireUser(ctx, sellerID, "Seller"); err != nil {
		return 0, err
	}
	n, err := s.inquiryRepo.CountOpenBySeller(ctx, sellerID)
	if err != nil {
		return 0, apperr.Store(err, "count open inquiries")
	}
	return n, nil
}

func (s *inquiryService) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	if err := s.requireUser(ctx, customerID, "Customer"); err != nil {
		return 0, err
	}
	n, err := s.inquiryRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return 0, apperr.Store(err, "count customer inquiries")
	}
	return n, nil
}

// StatusReport returns per-customer inquiry counts for administrators.
func (s *inquiryService) StatusReport(ctx context.Context) ([]domain.CustomerStatusReport, error) {
	reports, err := s.inquiryRepo.StatusReport(ctx)
	if err != nil {
		return nil, apperr.Store(err, "inquiry status report")
	}
	for i := range reports {
		reports[i].Address = orNotAvailable(reports[i].Address)
	}
	return reports, nil
}

// ClosedReport returns every customer's closed inquiries for administrators.
func (s *inquiryService) ClosedReport(ctx context.Context) ([]domain.CustomerClosedReport, error) {
	reports, err := s.inquiryRepo.ClosedReport(ctx)
	if err != nil {
		return nil, apperr.Store(err, "closed inquiry report")
	}
	for i := range reports {
		reports[i].Address = orNotAvailable(reports[i].Address)
		for j := range reports[i].ClosedInquiries {
			c := &reports[i].ClosedInquiries[j]
			c.ClosingReason = orNotAvailable(c.ClosingReason)
		}
	}
	return reports, nil
}

func orNotAvailable(v string) string {
	if strings.TrimSpace(v) == "" {
		return domain.NotAvailable
	}
	return v
}

func (s *inquiryService) requireUser(ctx context.Context, id int64, label string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return apperr.Store(err, "find user")
	}
	if user == nil {
		return apperr.NotFound("%s not found with ID: %d", label, id)
	}
	return nil
}

func (s *inquiryService) notifySeller(ctx context.Context, inquiry *domain.Inquiry, property *domain.Property, customer *domain.User) {
	seller, err := s.userRepo.FindByID(ctx, property.SellerID)
	if err != nil || seller == nil {
		logger.WarnContext(ctx, "Seller not resolvable for notification", "error", err, "inquiry_id", inquiry.ID, "seller_id", property.SellerID)
		return
	}
	s.dispatch(ctx, notify.New(notify.KindInquiryCreated, seller.MobileNumber, SellerMessage(property.Title, customer), inquiry.ID))
}

func (s *inquiryService) notifyCustomer(ctx context.Context, inquiry *domain.Inquiry) {
	customer, err := s.userRepo.FindByID(ctx, inquiry.CustomerID)
	if err != nil || customer == nil {
		logger.WarnContext(ctx, "Customer not resolvable for notification", "error", err, "inquiry_id", inquiry.ID)
		return
	}
	property, err := s.propertyRepo.FindByID(ctx, inquiry.PropertyID)
	if err != nil || property == nil {
		logger.WarnContext(ctx, "Property not resolvable for notification", "error", err, "inquiry_id", inquiry.ID)
		return
	}
	reason := ""
	if inquiry.ClosingReason != nil {
		reason = *inquiry.ClosingReason
	}
	s.dispatch(ctx, notify.New(notify.KindInquiryStatus, customer.MobileNumber, CustomerMessage(property.Title, inquiry.Status, reason), inquiry.ID))
}

// dispatch hands n off without waiting for delivery. Failures are logged only.
func (s *inquiryService) dispatch(ctx context.Context, n notify.Notification) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		logger.ErrorContext(ctx, "Failed to dispatch notification", "error", err, "inquiry_id", n.InquiryID, "kind", n.Kind)
	}
}

func (s *inquiryService) publish(ctx context.Context, subject string, event any, inquiryID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish inquiry event", "error", err, "subject", subject, "inquiry_id", inquiryID)
	}
}

// SellerMessage is the text sent to a seller when an inquiry arrives.
func SellerMessage(title string, customer *domain.User) string {
	return fmt.Sprintf("New inquiry received for your property: %s. Customer: %s (%s)", title, customer.FullName, customer.MobileNumber)
}

// CustomerMessage is the text sent to a customer when their inquiry changes status.
func CustomerMessage(title string, status domain.InquiryStatus, reason string) string {
	msg := fmt.Sprintf("Your inquiry for property '%s' has been %s.", title, strings.ToLower(string(status)))
	if reason != "" {
		msg += " Reason: " + reason
	}
	return msg
}
