package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)

	OTPEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_events_total",
			Help: "OTP challenge events by outcome",
		},
		[]string{"event"},
	)

	InquiryTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiry_transitions_total",
			Help: "Inquiry lifecycle transitions by resulting status",
		},
		[]string{"status"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound notifications by outcome",
		},
		[]string{"outcome"},
	)

	NotificationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Notifications waiting for a worker",
		},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "background_job_runs_total",
			Help: "Background job executions by job and result",
		},
		[]string{"job", "result"},
	)

	JobAffected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "background_job_rows_total",
			Help: "Rows touched by background jobs",
		},
		[]string{"job"},
	)
)

// OTP event labels
const (
	OTPSent           = "sent"
	OTPDeliveryFailed = "delivery_failed"
	OTPVerified       = "verified"
	OTPRejected       = "rejected"
)

// Notification outcome labels
const (
	NotificationDelivered = "delivered"
	NotificationFailed    = "failed"
	NotificationDropped   = "dropped"
	NotificationPublished = "published"
)
