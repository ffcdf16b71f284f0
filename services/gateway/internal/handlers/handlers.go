package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/propertyapp/property-listing/pkg/httpx"
	"github.com/propertyapp/property-listing/pkg/logger"
	"github.com/propertyapp/property-listing/services/gateway/internal/proxy"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	authProxy      *proxy.ServiceProxy
	inquiriesProxy *proxy.ServiceProxy
}

func New(authProxy, inquiriesProxy *proxy.ServiceProxy) *Handlers {
	return &Handlers{
		authProxy:      authProxy,
		inquiriesProxy: inquiriesProxy,
	}
}

// Auth forwards /v1/auth/* to the auth service.
func (h *Handlers) Auth(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, h.authProxy)
}

// Inquiries forwards /v1/inquiries/* and /v1/admin/* to the inquiries service.
func (h *Handlers) Inquiries(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, h.inquiriesProxy)
}

func (h *Handlers) forward(w http.ResponseWriter, r *http.Request, serviceProxy *proxy.ServiceProxy) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httpx.BadRequest(w, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	path := strings.TrimPrefix(r.URL.Path, "/v1")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	headers := make(http.Header)
	for key, values := range r.Header {
		if shouldCopyHeader(key) {
			headers[key] = values
		}
	}

	resp, err := serviceProxy.ProxyRequest(r.Context(), r.Method, path, body, headers)
	if err != nil {
		logger.ErrorContext(r.Context(), "Service proxy error", "error", err, "service", serviceProxy.Name(), "path", path)
		httpx.Fail(w, http.StatusServiceUnavailable, "Service unavailable", httpx.CodeStoreUnavailable)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if !shouldCopyHeader(key) {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.ErrorContext(r.Context(), "Failed to copy response body", "error", err)
	}
}

var hopHeaders = map[string]bool{
	"connection":          true,
	"upgrade":             true,
	"proxy-connection":    true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"keep-alive":          true,
	"host":                true,
	"content-length":      true,
}

func shouldCopyHeader(key string) bool {
	return !hopHeaders[strings.ToLower(key)]
}
