package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pricing"

var (
	// Revalidations counts cart revalidations by outcome: ok, store_error,
	// cancelled, error.
	Revalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revalidations_total",
		Help:      "Cart revalidations by outcome.",
	}, []string{"outcome"})

	// StaleRejections counts checkouts refused because the displayed discount changed.
	StaleRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_discount_rejections_total",
		Help:      "Checkout confirmations rejected for stale discounts.",
	})

	// StatusTransitions counts rule status changes made by reconciliation.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_status_transitions_total",
		Help:      "Rule status transitions applied by reconciliation.",
	}, []string{"to"})

	// DisplayCacheLookups counts active-rule display cache lookups: hit, miss, error.
	DisplayCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "display_cache_lookups_total",
		Help:      "Active discount listing cache lookups.",
	}, []string{"result"})

	// AuditPublishFailures counts applied-discount events that could not be published.
	AuditPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_publish_failures_total",
		Help:      "Applied discount events not delivered to the message broker.",
	})
)

// HTTPRequestDuration observes request latency per route template.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
