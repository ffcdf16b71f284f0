package handlers

import (
	"net/http"
	"strings"

	"github.com/propertyapp/property-listing/pkg/auth"
	"github.com/propertyapp/property-listing/pkg/httpx"
	"github.com/propertyapp/property-listing/services/inquiries/internal/domain"
)

type countResponse struct {
	Count int64 `json:"count"`
}

// CreateInquiry handles POST /inquiries/create/{customerId}
func (h *Handlers) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathActor(w, r, "customerId")
	if !ok {
		return
	}

	var req domain.CreateInquiryRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		req.Description = domain.DefaultDescription
	}

	inquiry, err := h.inquiryService.CreateInquiry(r.Context(), customerID, req.PropertyID, req.Description, req.TermsAccepted)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.OK(w, http.StatusCreated, "Inquiry created successfully", inquiry)
}

// GetInquiry handles GET /inquiries/{inquiryId}
func (h *Handlers) GetInquiry(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "inquiryId")
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}

	inquiry, err := h.inquiryService.GetInquiry(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if !actingAs(r, inquiry.CustomerID) && !actingAs(r, inquiry.SellerID) {
		httpx.Forbidden(w, "You can only access your own inquiries")
		return
	}

	httpx.OK(w, http.StatusOK, "Inquiry retrieved successfully", inquiry)
}

// ListByCustomer handles GET /inquiries/customer/{customerId}
func (h *Handlers) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathActor(w, r, "customerId")
	if !ok {
		return
	}
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}

	list, err := h.inquiryService.ListByCustomer(r.Context(), customerID, f)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Inquiries retrieved successfully", list)
}

// ListBySeller handles GET /inquiries/seller/{sellerId}
func (h *Handlers) ListBySeller(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := pathActor(w, r, "sellerId")
	if !ok {
		return
	}
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}

	list, err := h.inquiryService.ListBySeller(r.Context(), sellerID, f)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Inquiries retrieved successfully", list)
}

// ListByProperty handles GET /inquiries/property/{propertyId}. Non-admin
// callers only see inquiries they are a party to.
func (h *Handlers) ListByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := httpx.PathID(r, "propertyId")
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}

	if claims := auth.ClaimsFrom(r.Context()); claims == nil || claims.Role != auth.RoleAdmin {
		var party int64
		if claims != nil {
			party = claims.Sub
		}
		f.PartyID = &party
	}

	list, err := h.inquiryService.ListByProperty(r.Context(), propertyID, f)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Inquiries retrieved successfully", list)
}

// UpdateStatus handles PUT /inquiries/update-status/{inquiryId}/{sellerId}?status=CLOSED&closingReason=...
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	inquiryID, err := httpx.PathID(r, "inquiryId")
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	sellerID, ok := pathActor(w, r, "sellerId")
	if !ok {
		return
	}

	req := domain.UpdateStatusRequest{
		Status:        r.URL.Query().Get("status"),
		ClosingReason: r.URL.Query().Get("closingReason"),
	}
	if err := httpx.Validate(&req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	status, ok := domain.ParseInquiryStatus(strings.ToUpper(req.Status))
	if !ok {
		httpx.BadRequest(w, "Invalid status: "+req.Status)
		return
	}

	inquiry, err := h.inquiryService.UpdateStatus(r.Context(), inquiryID, sellerID, status, req.ClosingReason)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Inquiry status updated successfully", inquiry)
}

// CountOpenBySeller handles GET /inquiries/count/open/{sellerId}
func (h *Handlers) CountOpenBySeller(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := pathActor(w, r, "sellerId")
	if !ok {
		return
	}

	n, err := h.inquiryService.CountOpenBySeller(r.Context(), sellerID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Open inquiry count retrieved successfully", countResponse{Count: n})
}

// CountByCustomer handles GET /inquiries/count/customer/{customerId}
func (h *Handlers) CountByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathActor(w, r, "customerId")
	if !ok {
		return
	}

	n, err := h.inquiryService.CountByCustomer(r.Context(), customerID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Inquiry count retrieved successfully", countResponse{Count: n})
}
