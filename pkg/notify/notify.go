// Package notify delivers best-effort text notifications off the request path.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueFull = errors.New("notify: queue full")
	ErrClosed    = errors.New("notify: dispatcher closed")
)

// Notification kinds
const (
	KindInquiryCreated = "inquiry_created"
	KindInquiryStatus  = "inquiry_status"
)

type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	InquiryID int64     `json:"inquiry_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New fills in an ID and creation time.
func New(kind, recipient, message string, inquiryID int64) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Recipient: recipient,
		Message:   message,
		InquiryID: inquiryID,
		CreatedAt: time.Now(),
	}
}

// Dispatcher hands a notification to an asynchronous delivery path.
// Implementations must not block on the transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}
