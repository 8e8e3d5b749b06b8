// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stopvol"

var (
	// OtpRequests counts issued OTP codes.
	OtpRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_requests_total",
		Help:      "Total number of OTP codes issued",
	})

	// OtpVerifications counts verification attempts by result.
	OtpVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts",
	}, []string{"result"})

	// DeclarationsCreated counts filed declarations.
	DeclarationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "declarations_created_total",
		Help:      "Total number of declarations filed",
	})

	// NotificationsSent counts delivered notifications by channel.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications delivered",
	}, []string{"channel"})

	// DeliveryFailures counts delivery tasks that exhausted their retries.
	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_failures_total",
		Help:      "Total number of notification deliveries that failed permanently",
	})
)
