package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/courier/pkg/utils/metrics"
	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Observe(t *testing.T) {
	m := metrics.New()

	m.ObserveEvent("Issue", "create", "delivered")
	m.ObserveEvent("Issue", "create", "delivered")
	m.ObserveAttempt("429")
	m.ObserveIngressRejected()
	m.ObserveCompactionDrops("field", 3)

	gt.Equal(t, testutil.ToFloat64(m.EventsTotal.WithLabelValues("Issue", "create", "delivered")), 2.0)
	gt.Equal(t, testutil.ToFloat64(m.DeliveryAttemptsTotal.WithLabelValues("429")), 1.0)
	gt.Equal(t, testutil.ToFloat64(m.IngressRejectedTotal), 1.0)
	gt.Equal(t, testutil.ToFloat64(m.CompactionDropsTotal.WithLabelValues("field")), 3.0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveEvent("Issue", "create", "delivered")
	m.ObserveAttempt("2xx")
	m.ObserveDelivery("success", 1)
	m.ObserveIngressRejected()
	m.ObserveCompactionDrops("embed", 1)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	gt.Equal(t, w.Code, http.StatusNotFound)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.ObserveDelivery("success", 0.3)

	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	gt.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	gt.NoError(t, err)
	gt.True(t, strings.Contains(string(body), "courier_deliveries_total"))
}
