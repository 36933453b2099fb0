// Package metrics defines and registers all custom Prometheus metrics for
// the freight quote aggregator. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default registry at import time via promauto;
// the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "freightcalc"

// ── Carrier metrics ──────────────────────────────────────────────────────────

// CarrierQuotesTotal counts per-carrier quote outcomes.
// Labels:
//   - carrier: stable carrier name (e.g. "ПЭК")
//   - outcome: "success" or the failure kind (e.g. "connection_error",
//     "no_coverage", "timeout")
var CarrierQuotesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "carrier_quotes_total",
		Help:      "Total number of per-carrier quote attempts, by outcome.",
	},
	[]string{"carrier", "outcome"},
)

// CarrierQuoteDuration measures one provider's end-to-end quote time,
// including authentication, location resolution, and the calculation call.
var CarrierQuoteDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "carrier_quote_duration_seconds",
		Help:      "Duration of a single carrier quote from dispatch to result.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
	},
	[]string{"carrier"},
)

// CarrierRequestsTotal counts outbound HTTP calls made by carrier adapters.
// Labels:
//   - carrier: carrier name
//   - result: "ok", "error" (transport/non-2xx), or "rejected" (breaker open)
var CarrierRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "carrier_requests_total",
		Help:      "Total number of outbound carrier HTTP requests, by result.",
	},
	[]string{"carrier", "result"},
)

// ── Aggregation metrics ──────────────────────────────────────────────────────

// AggregationsTotal counts full aggregation runs.
var AggregationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregations_total",
		Help:      "Total number of quote aggregation runs.",
	},
)

// AggregationDuration measures a full fan-out/join cycle.
var AggregationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregation_duration_seconds",
		Help:      "Duration of a full quote aggregation across all carriers.",
		Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 45},
	},
)
