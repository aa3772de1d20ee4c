// Package metrics defines the Prometheus collectors shared across the
// service. Collectors register against the default registry and are
// exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts accepted feedback submissions.
	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedbackanalyzer",
		Name:      "submissions_total",
		Help:      "Total number of feedback submissions accepted.",
	})

	// ValidationFailuresTotal counts rejected submissions by field.
	ValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedbackanalyzer",
		Name:      "validation_failures_total",
		Help:      "Total number of submissions rejected by validation.",
	}, []string{"field"})

	// ClassificationsTotal counts classifier calls by outcome (ok or fallback).
	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedbackanalyzer",
		Name:      "classifications_total",
		Help:      "Total number of sentiment classification calls by outcome.",
	}, []string{"outcome"})

	// ClassificationDuration observes the latency of classifier round-trips.
	ClassificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "feedbackanalyzer",
		Name:      "classification_duration_seconds",
		Help:      "Duration of sentiment classification round-trips.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	// ReprocessedRecordsTotal counts records updated by reprocessing runs.
	ReprocessedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedbackanalyzer",
		Name:      "reprocessed_records_total",
		Help:      "Total number of feedback records updated by sentiment reprocessing.",
	})
)
