package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CuentaPorEtiqueta(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncCheckout("ok")
	m.IncCheckout("ok")
	m.IncCheckout("insufficient_stock")
	m.IncStockOp("adjust", "")
	m.IncLockTimeout()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockOps.WithLabelValues("adjust", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockTimeouts))
}

func TestMetrics_ObserveJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveJob("average_cost", time.Second, nil)
	m.ObserveJob("average_cost", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobSuccess.WithLabelValues("average_cost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobFailure.WithLabelValues("average_cost")))
}

func TestMetrics_NilSeguro(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncCheckout("ok")
		m.IncStockOp("adjust", "ok")
		m.IncLockTimeout()
		m.IncSyncItem("accepted")
		m.ObserveJob("x", time.Millisecond, nil)
	})

	inert := New(nil)
	assert.NotPanics(t, func() { inert.IncCheckout("ok") })
}
