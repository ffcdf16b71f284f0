package handlers

import (
	"net/http"

	"github.com/propertyapp/property-listing/pkg/httpx"
)

// ClosedReport handles GET /admin/inquiries/closed-report
func (h *Handlers) ClosedReport(w http.ResponseWriter, r *http.Request) {
	reports, err := h.inquiryService.ClosedReport(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Closed inquiries report retrieved successfully", reports)
}

// StatusReport handles GET /admin/inquiries/all-report
func (h *Handlers) StatusReport(w http.ResponseWriter, r *http.Request) {
	reports, err := h.inquiryService.StatusReport(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "All inquiries report retrieved successfully", reports)
}
