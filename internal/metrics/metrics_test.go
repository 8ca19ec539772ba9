package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"diner/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordItems(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordItemAdded("Pizza")
	mc.RecordItemAdded("Pizza")
	mc.RecordItemRemoved("Pizza")
	mc.RecordLookupMiss("add")

	added := mc.metrics["items_added"].(*prometheus.CounterVec)
	assert.Equal(t, 2.0, testutil.ToFloat64(added.WithLabelValues("Pizza")))

	removed := mc.metrics["items_removed"].(*prometheus.CounterVec)
	assert.Equal(t, 1.0, testutil.ToFloat64(removed.WithLabelValues("Pizza")))

	misses := mc.metrics["lookup_misses"].(*prometheus.CounterVec)
	assert.Equal(t, 1.0, testutil.ToFloat64(misses.WithLabelValues("add")))
	assert.Equal(t, 0.0, testutil.ToFloat64(misses.WithLabelValues("remove")))
}

func TestRecordScalars(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordInvalidID()
	mc.SetActiveSessions(3)
	mc.RecordTransition("ordering")
	mc.RecordCheckout(models.Dollars(28))

	assert.Equal(t, 1.0, testutil.ToFloat64(mc.metrics["invalid_ids"]))
	assert.Equal(t, 3.0, testutil.ToFloat64(mc.metrics["active_sessions"]))
	assert.Equal(t, 1, testutil.CollectAndCount(mc.metrics["checkout_total"]))

	transitions := mc.metrics["transitions"].(*prometheus.CounterVec)
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues("ordering")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordItemAdded("Fries")

	rec := httptest.NewRecorder()
	mc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `diner_items_added_total{item="Fries"} 1`))
	assert.Contains(t, body, "diner_active_sessions")
}
