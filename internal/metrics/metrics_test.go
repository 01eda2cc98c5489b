package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("/api/v1/products", "GET", 200, 20*time.Millisecond)
	m.ObserveRequest("/api/v1/products", "GET", 200, 10*time.Millisecond)
	m.ObserveRequest("", "GET", 404, time.Millisecond)
	m.IncCheckout("COD")
	m.IncLoginRejected()
	m.ObserveJob("stock_sweep", time.Second, nil)
	m.ObserveJob("stock_sweep", time.Second, errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/v1/products", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unknown", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("COD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobSuccess.WithLabelValues("stock_sweep")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobFailure.WithLabelValues("stock_sweep")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/x", "GET", 200, time.Millisecond)
	m.IncCheckout("Online")
	m.IncLoginRejected()
	m.ObserveJob("job", time.Second, nil)

	unregistered := New(nil)
	unregistered.IncCheckout("Online")
}
