package monitoring

import (
	"sync"
	"time"

	"diner/internal/models"
)

// Monitor keeps the latest operational figures for the health endpoint
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// Increment adds one to an integer metric
func (m *Monitor) Increment(name string) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	n, _ := m.metrics[name].(int)
	m.metrics[name] = n + 1
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	value, exists := m.metrics[name]
	return value, exists
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	// Create a copy to avoid concurrent map access
	metrics := make(map[string]interface{}, len(m.metrics))
	for k, v := range m.metrics {
		metrics[k] = v
	}

	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
}

// RecordCheckout records the outcome of a submitted checkout
func (m *Monitor) RecordCheckout(reference string, total models.Money) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	n, _ := m.metrics["checkouts_submitted"].(int)
	m.metrics["checkouts_submitted"] = n + 1
	m.metrics["last_checkout_reference"] = reference
	m.metrics["last_checkout_total"] = total.String()
	m.metrics["last_checkout_at"] = time.Now().Format(time.RFC3339)
}
