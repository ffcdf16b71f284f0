package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/propertyapp/property-listing/pkg/events"
	"github.com/propertyapp/property-listing/pkg/logger"
	"github.com/propertyapp/property-listing/pkg/metrics"
)

// BusDispatcher publishes notifications to the event bus for the notify service.
type BusDispatcher struct {
	publisher events.Publisher
	timeout   time.Duration
}

func NewBusDispatcher(publisher events.Publisher, timeout time.Duration) *BusDispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &BusDispatcher{publisher: publisher, timeout: timeout}
}

func (b *BusDispatcher) Dispatch(ctx context.Context, n Notification) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()

	event := events.NotificationEvent{
		ID:        n.ID,
		Kind:      n.Kind,
		Recipient: n.Recipient,
		Message:   n.Message,
		InquiryID: n.InquiryID,
		CreatedAt: n.CreatedAt,
	}
	if err := b.publisher.Publish(ctx, events.NotifySend, event); err != nil {
		metrics.Notifications.WithLabelValues(metrics.NotificationFailed).Inc()
		return fmt.Errorf("publish notification: %w", err)
	}
	metrics.Notifications.WithLabelValues(metrics.NotificationPublished).Inc()
	return nil
}

// Consume subscribes to notify.send in the given queue group and forwards each
// message to d.
func Consume(sub events.Subscriber, queue string, d Dispatcher) error {
	return sub.QueueSubscribe(events.NotifySend, queue, func(msg *events.Message) {
		var event events.NotificationEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Failed to decode notification event", "error", err, "message_id", msg.ID)
			return
		}
		n := Notification{
			ID:        event.ID,
			Kind:      event.Kind,
			Recipient: event.Recipient,
			Message:   event.Message,
			InquiryID: event.InquiryID,
			CreatedAt: event.CreatedAt,
		}
		if n.ID == "" {
			n.ID = msg.ID
		}
		if err := d.Dispatch(context.Background(), n); err != nil {
			logger.Error("Failed to enqueue notification", "error", err, "notification_id", n.ID)
		}
	})
}
