// Package metrics declares the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haojia_submissions_total",
			Help: "Form submissions by form and outcome (success, invalid, error)",
		},
		[]string{"form", "outcome"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haojia_notifications_total",
			Help: "Post-insert notifications by form and outcome (sent, failed)",
		},
		[]string{"form", "outcome"},
	)

	Emails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haojia_emails_total",
			Help: "Relay requests by outcome",
		},
		[]string{"outcome"},
	)
)
