package domain

import "time"

// NotAvailable fills report fields that have no stored value.
const NotAvailable = "N/A"

// CustomerStatusReport counts one customer's inquiries by status.
type CustomerStatusReport struct {
	CustomerID       int64  `json:"customerId"`
	FullName         string `json:"fullName"`
	ContactNo        string `json:"contactNo"`
	Address          string `json:"address"`
	TotalInquiries   int64  `json:"totalInquiries"`
	OpenInquiries    int64  `json:"openInquiries"`
	ClosedInquiries  int64  `json:"closedInquiries"`
	ExpiredInquiries int64  `json:"expiredInquiries"`
}

// Add counts n inquiries with status st.
func (r *CustomerStatusReport) Add(st InquiryStatus, n int64) {
	switch st {
	case InquiryOpen:
		r.OpenInquiries += n
	case InquiryClosed:
		r.ClosedInquiries += n
	case InquiryExpired:
		r.ExpiredInquiries += n
	default:
		return
	}
	r.TotalInquiries += n
}

type ClosedInquiry struct {
	InquiryID     int64     `json:"inquiryId"`
	PropertyTitle string    `json:"propertyTitle"`
	ClosingReason string    `json:"closingReason"`
	ClosedDate    time.Time `json:"closedDate"`
}

// CustomerClosedReport lists one customer's closed inquiries, most recently closed first.
type CustomerClosedReport struct {
	CustomerID      int64           `json:"customerId"`
	FullName        string          `json:"fullName"`
	ContactNo       string          `json:"contactNo"`
	Address         string          `json:"address"`
	ClosedInquiries []ClosedInquiry `json:"closedInquiries"`
}
