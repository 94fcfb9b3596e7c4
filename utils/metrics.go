package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type", "reason"}, // database/cache/validation, free-form reason
	)

	// Recurrence Metrics
	RecurrenceResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurrence_resolutions_total",
			Help: "Effective due date resolutions by outcome",
		},
		[]string{"outcome"},
	)

	RecurrenceResolutionSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recurrence_resolution_steps",
			Help:    "Advancement steps taken by a single resolution",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 250, 500},
		},
	)

	OccurrencesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recurrence_occurrences_created_total",
			Help: "Follow-up occurrences materialized after a completion",
		},
	)

	SeriesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recurrence_series_completed_total",
			Help: "Recurring series that reached their end condition",
		},
	)

	// Cache Metrics
	DueCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "due_cache_lookups_total",
			Help: "Deadline cache lookups by backend and result",
		},
		[]string{"backend", "result"}, // redis/lru, hit/miss
	)
)

// TrackDBOperation tracks database operation duration
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

func TrackError(errorType, reason string) {
	ErrorsTotal.WithLabelValues(errorType, reason).Inc()
}

func TrackResolution(outcome string, steps int) {
	RecurrenceResolutions.WithLabelValues(outcome).Inc()
	RecurrenceResolutionSteps.Observe(float64(steps))
}

func TrackOccurrenceCreated() {
	OccurrencesCreated.Inc()
}

func TrackSeriesCompleted() {
	SeriesCompleted.Inc()
}

func TrackCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DueCacheLookups.WithLabelValues(backend, result).Inc()
}
