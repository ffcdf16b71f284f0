package handlers

import (
	"net/http"

	"github.com/propertyapp/property-listing/pkg/auth"
	"github.com/propertyapp/property-listing/pkg/httpx"
	"github.com/propertyapp/property-listing/services/inquiries/internal/domain"
	"github.com/propertyapp/property-listing/services/inquiries/internal/service"
)

type Handlers struct {
	inquiryService service.InquiryService
}

func New(inquiryService service.InquiryService) *Handlers {
	return &Handlers{inquiryService: inquiryService}
}

// actingAs reports whether the caller may act for userID. Admins may act for anyone.
func actingAs(r *http.Request, userID int64) bool {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		return false
	}
	return claims.Role == auth.RoleAdmin || claims.Sub == userID
}

// pathActor parses the named id and checks the caller may act for it.
func pathActor(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := httpx.PathID(r, name)
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return 0, false
	}
	if !actingAs(r, id) {
		httpx.Forbidden(w, "You can only access your own inquiries")
		return 0, false
	}
	return id, true
}

func parseFilter(w http.ResponseWriter, r *http.Request) (domain.InquiryFilter, bool) {
	var f domain.InquiryFilter
	f.Limit, f.Offset = httpx.ParsePagination(r)
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseInquiryStatus(raw)
		if !ok {
			httpx.BadRequest(w, "Invalid status parameter")
			return f, false
		}
		f.Status = &st
	}
	return f, true
}
