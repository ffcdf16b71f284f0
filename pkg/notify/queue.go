package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/propertyapp/property-listing/pkg/logger"
	"github.com/propertyapp/property-listing/pkg/metrics"
	"github.com/propertyapp/property-listing/pkg/sms"
)

type QueueOptions struct {
	Size        int
	Workers     int
	SendTimeout time.Duration
	// RatePerSec caps outbound sends across all workers; zero means unlimited.
	RatePerSec float64
}

// Queue is a bounded in-process Dispatcher backed by worker goroutines.
type Queue struct {
	gateway sms.Gateway
	opts    QueueOptions
	limiter *rate.Limiter

	jobs   chan Notification
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	stop   chan struct{}
}

func NewQueue(gateway sms.Gateway, opts QueueOptions) *Queue {
	if opts.Size <= 0 {
		opts.Size = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &Queue{
		gateway: gateway,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		jobs:    make(chan Notification, opts.Size),
		stop:    make(chan struct{}),
	}
}

// Start launches the workers.
func (q *Queue) Start() {
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	logger.Info("Notification queue started", "workers", q.opts.Workers, "size", q.opts.Size)
}

// Dispatch enqueues n without blocking. A full queue drops n.
func (q *Queue) Dispatch(ctx context.Context, n Notification) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.jobs <- n:
		metrics.NotificationQueueDepth.Set(float64(len(q.jobs)))
		return nil
	default:
		metrics.Notifications.WithLabelValues(metrics.NotificationDropped).Inc()
		logger.WarnContext(ctx, "Notification queue full, dropping", "notification_id", n.ID, "kind", n.Kind)
		return ErrQueueFull
	}
}

// Close stops intake and waits for queued notifications to drain. If ctx ends
// first, in-flight sends are abandoned and ctx.Err is returned.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		close(q.stop)
		return ctx.Err()
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for n := range q.jobs {
		metrics.NotificationQueueDepth.Set(float64(len(q.jobs)))
		q.deliver(id, n)
	}
}

func (q *Queue) deliver(worker int, n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), q.opts.SendTimeout)
	defer cancel()

	go func() {
		select {
		case <-q.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := q.limiter.Wait(ctx); err != nil {
		metrics.Notifications.WithLabelValues(metrics.NotificationFailed).Inc()
		logger.Error("Notification throttled past deadline", "error", err, "notification_id", n.ID)
		return
	}

	if err := q.gateway.Send(ctx, n.Recipient, n.Message); err != nil {
		metrics.Notifications.WithLabelValues(metrics.NotificationFailed).Inc()
		logger.Error("Failed to deliver notification",
			"error", err,
			"notification_id", n.ID,
			"kind", n.Kind,
			"inquiry_id", n.InquiryID,
			"recipient", logger.MaskMobile(n.Recipient),
			"worker", worker,
		)
		return
	}

	metrics.Notifications.WithLabelValues(metrics.NotificationDelivered).Inc()
	logger.Debug("Notification delivered", "notification_id", n.ID, "kind", n.Kind, "worker", worker)
}
