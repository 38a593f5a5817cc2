// Package metrics exposes the engine's trade and order flow as Prometheus
// series, the way the teacher's pkg/metrics wires luxfi/log plus
// prometheus/client_golang rather than rolling its own counters.
package metrics

import (
	"net/http"

	luxlog "github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shahsb/In-Memory-Trading-System/pkg/lx"
)

// Collector is an lx.Observer that records every trade and status change as
// Prometheus series under namespace.
type Collector struct {
	namespace string
	registry  *prometheus.Registry
	logger    luxlog.Logger

	ordersProcessed  prometheus.Counter
	tradesExecuted   prometheus.Counter
	tradeQuantity    prometheus.Histogram
	orderStatusTotal *prometheus.CounterVec
}

// NewCollector builds and registers the series. It does not start an HTTP
// server; call StartServer for that.
func NewCollector(namespace string) *Collector {
	logger := luxlog.Root().New("module", "metrics")
	registry := prometheus.NewRegistry()

	c := &Collector{
		namespace: namespace,
		registry:  registry,
		logger:    logger,

		ordersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_processed_total",
			Help:      "Total number of order status notifications observed",
		}),
		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total number of trades executed",
		}),
		tradeQuantity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trade_quantity",
			Help:      "Distribution of executed trade quantities",
			Buckets:   prometheus.DefBuckets,
		}),
		orderStatusTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_total",
			Help:      "Order status transitions observed, by status",
		}, []string{"status"}),
	}

	registry.MustRegister(c.ordersProcessed, c.tradesExecuted, c.tradeQuantity, c.orderStatusTotal)
	logger.Info("metrics collector initialized", "namespace", namespace)
	return c
}

// OnTradeExecuted implements lx.Observer.
func (c *Collector) OnTradeExecuted(t lx.Trade) {
	c.tradesExecuted.Inc()
	c.tradeQuantity.Observe(t.Quantity)
}

// OnOrderStatusChanged implements lx.Observer.
func (c *Collector) OnOrderStatusChanged(o lx.Order) {
	c.ordersProcessed.Inc()
	c.orderStatusTotal.WithLabelValues(o.Status.String()).Inc()
}

// StartServer exposes /metrics on port, mirroring the teacher's
// promhttp.HandlerFor wiring.
func (c *Collector) StartServer(port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			c.logger.Error("metrics server failed", "error", err)
		}
	}()

	c.logger.Info("prometheus metrics available", "endpoint", "http://localhost:"+port+"/metrics")
	return nil
}
