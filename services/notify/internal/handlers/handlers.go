package handlers

import (
	"errors"
	"net/http"

	"github.com/propertyapp/property-listing/pkg/httpx"
	"github.com/propertyapp/property-listing/pkg/notify"
)

type Handlers struct {
	dispatcher notify.Dispatcher
}

func New(dispatcher notify.Dispatcher) *Handlers {
	return &Handlers{dispatcher: dispatcher}
}

type SendRequest struct {
	Recipient string `json:"recipient" validate:"required,mobile"`
	Message   string `json:"message" validate:"required,max=1000"`
	Kind      string `json:"kind"`
	InquiryID int64  `json:"inquiryId"`
}

// Send handles POST /send, queueing one message for delivery.
func (h *Handlers) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}

	n := notify.New(req.Kind, req.Recipient, req.Message, req.InquiryID)
	if err := h.dispatcher.Dispatch(r.Context(), n); err != nil {
		if errors.Is(err, notify.ErrQueueFull) {
			httpx.RateLimit(w, "Notification queue is full")
			return
		}
		httpx.Fail(w, http.StatusServiceUnavailable, "Notification service is shutting down", httpx.CodeStoreUnavailable)
		return
	}

	httpx.OK(w, http.StatusAccepted, "Notification queued", map[string]string{"id": n.ID})
}
