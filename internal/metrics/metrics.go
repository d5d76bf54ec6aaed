// Package metrics exposes the suggestion engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BucketDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestions_bucket_decisions_total",
			Help: "Bucket checks by source and decision (served, regenerated).",
		},
		[]string{"source", "decision"},
	)

	GenerationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestions_generation_failures_total",
			Help: "Failed batch or single-item generations by error kind.",
		},
		[]string{"kind"},
	)

	UpstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestions_upstream_retries_total",
			Help: "Retries scheduled after a rate-limit signal, by upstream service.",
		},
		[]string{"service"},
	)

	ImagesMaterialized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestions_images_materialized_total",
			Help: "Image materialization outcomes (stored, skipped, failed).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(BucketDecisions, GenerationFailures, UpstreamRetries, ImagesMaterialized)
}
