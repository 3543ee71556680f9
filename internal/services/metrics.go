package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("shortlify/services")

var (
	// resolutionsTotal counts resolutions by outcome
	// (redirect, not_found, inactive, expired, error).
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shortlify",
		Name:      "resolutions_total",
		Help:      "Short link resolutions by outcome",
	}, []string{"outcome"})

	resolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shortlify",
		Name:      "resolution_duration_seconds",
		Help:      "Time spent resolving a short link, store round trips included",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"outcome"})

	// linksCreatedTotal is labelled by kind (random, alias).
	linksCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shortlify",
		Name:      "links_created_total",
		Help:      "Short links created",
	}, []string{"kind"})

	allocationRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shortlify",
		Name:      "allocation_retries_total",
		Help:      "Generated short ids discarded because they were already taken",
	})
)
