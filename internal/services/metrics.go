// Package services – domain metrics.
//
// Counters for the submission lifecycle. HTTP-level metrics live in the
// middleware layer; these track business events regardless of which
// route triggered them.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// submissionsCreated counts new submissions by track.
	submissionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Total number of submissions created (pre-confirmation).",
		},
		[]string{"track"},
	)

	// submissionsConfirmed counts successful email confirmations.
	submissionsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "submissions_confirmed_total",
			Help: "Total number of submissions confirmed by email.",
		},
	)

	// moderationDecisions counts status transitions by target status.
	moderationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Total number of moderation status changes.",
		},
		[]string{"status"},
	)

	// appealsSubmitted counts accepted appeal submissions.
	appealsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appeals_submitted_total",
			Help: "Total number of appeals submitted.",
		},
	)

	// rateLimitRejections counts requests refused by a daily limiter,
	// by scope and which limit tripped (global or per_key).
	rateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by daily rate limits.",
		},
		[]string{"scope", "limit"},
	)
)

func init() {
	prometheus.MustRegister(
		submissionsCreated,
		submissionsConfirmed,
		moderationDecisions,
		appealsSubmitted,
		rateLimitRejections,
	)
}
