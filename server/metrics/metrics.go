package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduler metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomwarden_job_runs_total",
			Help: "Total scheduled job runs",
		},
		[]string{"job", "result"}, // "success", "error" or "skipped"
	)

	JobRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomwarden_job_run_duration_seconds",
			Help:    "Scheduled job run duration",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
		},
		[]string{"job"},
	)

	JobItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomwarden_job_items_total",
			Help: "Items processed by scheduled jobs",
		},
		[]string{"job", "outcome"}, // "changed", "unchanged", "skipped", "errored"
	)

	JobRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roomwarden_job_running",
			Help: "1 while a job is executing",
		},
		[]string{"job"},
	)

	// Business metrics
	RoomTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomwarden_room_transitions_total",
			Help: "Room status transitions",
		},
		[]string{"from", "to"},
	)

	PostsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomwarden_posts_expired_total",
			Help: "Posts (including replies) soft-deleted by expiration",
		},
	)

	BadgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomwarden_badges_awarded_total",
			Help: "Badges awarded by the system",
		},
		[]string{"badge"},
	)

	ComplianceViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomwarden_compliance_violations_total",
			Help: "Recorded member compliance violations",
		},
		[]string{"type"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomwarden_notifications_dispatched_total",
			Help: "Notifications handed to the dispatcher",
		},
		[]string{"type"},
	)
)
