package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "order_admin"

// Metrics nil 時所有方法都不做事，測試可以直接傳 nil
type Metrics struct {
	queries        *prometheus.CounterVec
	queryDuration  prometheus.Histogram
	transitions    *prometheus.CounterVec
	bulkItems      *prometheus.CounterVec
	bulkBatchFails *prometheus.CounterVec
	reconciles     *prometheus.CounterVec
	feedStale      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_queries_total",
			Help:      "Order list queries by result.",
		}, []string{"result"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_query_duration_seconds",
			Help:      "Latency of order list queries against the store.",
			Buckets:   prometheus.DefBuckets,
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Single order status changes by target status and result.",
		}, []string{"status", "result"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Per-order outcomes of bulk operations.",
		}, []string{"operation", "result"}),
		bulkBatchFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_batch_failures_total",
			Help:      "Bulk operations that failed as a whole batch.",
		}, []string{"operation"}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Re-queries triggered by the change feed.",
		}, []string{"result"}),
		feedStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "change_feed_stale",
			Help:      "1 while the change feed subscription is down.",
		}),
	}
	reg.MustRegister(m.queries, m.queryDuration, m.transitions, m.bulkItems, m.bulkBatchFails, m.reconciles, m.feedStale)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveQuery(start time.Time, err error) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(result(err)).Inc()
	m.queryDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveTransition(status string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status, result(err)).Inc()
}

func (m *Metrics) ObserveBulk(operation string, succeeded, failed int, batchErr error) {
	if m == nil {
		return
	}
	if batchErr != nil {
		m.bulkBatchFails.WithLabelValues(operation).Inc()
		return
	}
	m.bulkItems.WithLabelValues(operation, "ok").Add(float64(succeeded))
	m.bulkItems.WithLabelValues(operation, "error").Add(float64(failed))
}

func (m *Metrics) ObserveReconcile(err error) {
	if m == nil {
		return
	}
	m.reconciles.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) SetFeedStale(stale bool) {
	if m == nil {
		return
	}
	if stale {
		m.feedStale.Set(1)
		return
	}
	m.feedStale.Set(0)
}
