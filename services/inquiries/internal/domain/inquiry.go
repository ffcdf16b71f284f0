package domain

import "time"

type InquiryStatus string

const (
	InquiryOpen    InquiryStatus = "OPEN"
	InquiryClosed  InquiryStatus = "CLOSED"
	InquiryExpired InquiryStatus = "EXPIRED"
)

func ParseInquiryStatus(s string) (InquiryStatus, bool) {
	switch InquiryStatus(s) {
	case InquiryOpen, InquiryClosed, InquiryExpired:
		return InquiryStatus(s), true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s InquiryStatus) IsTerminal() bool {
	return s == InquiryClosed || s == InquiryExpired
}

// Trigger identifies who is asking for a transition.
type Trigger int

const (
	BySeller Trigger = iota
	BySweep
)

// CanTransition reports whether from -> to is legal for trigger. Sellers may
// only close, the sweep may only expire, and both require OPEN.
func CanTransition(from, to InquiryStatus, by Trigger) bool {
	if from != InquiryOpen {
		return false
	}
	switch to {
	case InquiryClosed:
		return by == BySeller
	case InquiryExpired:
		return by == BySweep
	default:
		return false
	}
}

const (
	DefaultValidityMonths = 3
	MaxClosingReasonLen   = 500
	DefaultDescription    = "I am interested in this property. Please contact me."
)

type Inquiry struct {
	ID            int64         `json:"inquiryId"`
	PropertyID    int64         `json:"propertyId"`
	CustomerID    int64         `json:"customerId"`
	SellerID      int64         `json:"sellerId"`
	Description   string        `json:"inquiryDescription"`
	Status        InquiryStatus `json:"status"`
	TermsAccepted bool          `json:"termsAccepted"`
	InquiryDate   time.Time     `json:"inquiryDate"`
	ExpiryDate    time.Time     `json:"expiryDate"`
	ClosedDate    *time.Time    `json:"closedDate"`
	ClosingReason *string       `json:"closingReason"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// ExpiryFor returns the expiry date of an inquiry created at t.
func ExpiryFor(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// IsOverdue reports whether an OPEN inquiry should be swept at now.
func (i *Inquiry) IsOverdue(now time.Time) bool {
	return i.Status == InquiryOpen && i.ExpiryDate.Before(now)
}

// CreateInquiryRequest is the body of POST /inquiries/create/{customerId}.
type CreateInquiryRequest struct {
	PropertyID    int64  `json:"propertyId" validate:"required,gt=0"`
	Description   string `json:"inquiryDescription" validate:"max=2000"`
	TermsAccepted bool   `json:"termsAccepted"`
}

type UpdateStatusRequest struct {
	Status        string `json:"status" validate:"required"`
	ClosingReason string `json:"closingReason" validate:"max=500"`
}

// InquiryFilter narrows list queries.
type InquiryFilter struct {
	Status *InquiryStatus
	// PartyID keeps only inquiries where this user is the seller or the customer.
	PartyID *int64
	Limit   int
	Offset  int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page returns the effective limit and offset.
func (f InquiryFilter) Page() (limit, offset int) {
	limit, offset = f.Limit, f.Offset
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
