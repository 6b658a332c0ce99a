/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for the Centro de Comando service
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Request metrics */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zyra_comando_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zyra_comando_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	/* Conversation metrics */
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zyra_comando_turns_total",
			Help: "Total number of conversation turns",
		},
		[]string{"status"},
	)

	turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zyra_comando_turn_duration_seconds",
			Help:    "Conversation turn duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	staleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zyra_comando_stale_responses_total",
			Help: "Total number of agent responses discarded as stale",
		},
	)

	/* Action pipeline metrics */
	actionsStagedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zyra_comando_actions_staged_total",
			Help: "Total number of staged pending actions",
		},
		[]string{"kind"},
	)

	actionsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zyra_comando_actions_resolved_total",
			Help: "Total number of resolved pending actions",
		},
		[]string{"kind", "outcome"},
	)

	deleteConfirmBlockedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zyra_comando_delete_confirm_blocked_total",
			Help: "Total number of delete confirmations blocked by missing acknowledgment",
		},
	)

	/* Feedback metrics */
	feedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zyra_comando_feedback_total",
			Help: "Total number of feedback records",
		},
		[]string{"kind"},
	)

	feedbackRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zyra_comando_feedback_retries_total",
			Help: "Total number of correction-driven retries",
		},
	)
)

/* RecordHTTPRequest records an HTTP request metric */
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordTurn records a conversation turn */
func RecordTurn(status string, duration time.Duration) {
	turnsTotal.WithLabelValues(status).Inc()
	turnDuration.WithLabelValues(status).Observe(duration.Seconds())
}

/* RecordStaleResponse records a discarded stale agent response */
func RecordStaleResponse() {
	staleResponsesTotal.Inc()
}

/* RecordActionStaged records a staged pending action */
func RecordActionStaged(kind string) {
	actionsStagedTotal.WithLabelValues(kind).Inc()
}

/* RecordActionResolved records a resolved pending action */
func RecordActionResolved(kind, outcome string) {
	actionsResolvedTotal.WithLabelValues(kind, outcome).Inc()
}

/* RecordDeleteConfirmBlocked records a blocked delete confirmation */
func RecordDeleteConfirmBlocked() {
	deleteConfirmBlockedTotal.Inc()
}

/* RecordFeedback records a feedback submission */
func RecordFeedback(kind string) {
	feedbackTotal.WithLabelValues(kind).Inc()
}

/* RecordFeedbackRetry records a correction-driven retry */
func RecordFeedbackRetry() {
	feedbackRetriesTotal.Inc()
}

/* Handler returns the Prometheus metrics HTTP handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
