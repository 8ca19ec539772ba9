package metrics

import (
	"net/http"

	"diner/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles metrics collection and reporting
type MetricsCollector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
}

// NewMetricsCollector creates a new metrics collector with its own registry
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	itemsAdded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diner_items_added_total",
			Help: "Order lines added, by menu item",
		},
		[]string{"item"},
	)

	itemsRemoved := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diner_items_removed_total",
			Help: "Order lines removed, by menu item",
		},
		[]string{"item"},
	)

	lookupMisses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diner_lookup_misses_total",
			Help: "Add or remove requests naming an item that was not found",
		},
		[]string{"operation"},
	)

	invalidIDs := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "diner_invalid_item_ids_total",
			Help: "Malformed item identifiers rejected at the boundary",
		},
	)

	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diner_state_transitions_total",
			Help: "Checkout state transitions, by target state",
		},
		[]string{"state"},
	)

	checkoutTotal := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diner_checkout_total_dollars",
			Help:    "Order totals of submitted checkouts",
			Buckets: prometheus.LinearBuckets(10, 10, 10), // $10 buckets
		},
	)

	activeSessions := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "diner_active_sessions",
			Help: "Sessions currently held in memory",
		},
	)

	metrics := map[string]prometheus.Collector{
		"items_added":     itemsAdded,
		"items_removed":   itemsRemoved,
		"lookup_misses":   lookupMisses,
		"invalid_ids":     invalidIDs,
		"transitions":     transitions,
		"checkout_total":  checkoutTotal,
		"active_sessions": activeSessions,
	}

	for _, metric := range metrics {
		registry.MustRegister(metric)
	}

	return &MetricsCollector{
		registry: registry,
		metrics:  metrics,
	}
}

// Registry exposes the underlying registry
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the registry in the Prometheus exposition format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry})
}

// RecordItemAdded counts an added order line
func (mc *MetricsCollector) RecordItemAdded(item string) {
	if counter, ok := mc.metrics["items_added"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(item).Inc()
	}
}

// RecordItemRemoved counts a removed order line
func (mc *MetricsCollector) RecordItemRemoved(item string) {
	if counter, ok := mc.metrics["items_removed"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(item).Inc()
	}
}

// RecordLookupMiss counts an add or remove for an item that was not found
func (mc *MetricsCollector) RecordLookupMiss(operation string) {
	if counter, ok := mc.metrics["lookup_misses"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(operation).Inc()
	}
}

// RecordInvalidID counts a malformed identifier
func (mc *MetricsCollector) RecordInvalidID() {
	if counter, ok := mc.metrics["invalid_ids"].(prometheus.Counter); ok {
		counter.Inc()
	}
}

// RecordTransition counts a move into state
func (mc *MetricsCollector) RecordTransition(state string) {
	if counter, ok := mc.metrics["transitions"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(state).Inc()
	}
}

// RecordCheckout observes the total of a submitted checkout
func (mc *MetricsCollector) RecordCheckout(total models.Money) {
	if histogram, ok := mc.metrics["checkout_total"].(prometheus.Histogram); ok {
		histogram.Observe(float64(total) / 100)
	}
}

// SetActiveSessions records the number of live sessions
func (mc *MetricsCollector) SetActiveSessions(n int) {
	if gauge, ok := mc.metrics["active_sessions"].(prometheus.Gauge); ok {
		gauge.Set(float64(n))
	}
}
