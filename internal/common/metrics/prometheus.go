// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	ordersTotal             *prometheus.CounterVec
	orderTransitionsTotal   *prometheus.CounterVec
	pointsTransactionsTotal *prometheus.CounterVec
	settlementsTotal        *prometheus.CounterVec
	periodCloseDuration     prometheus.Histogram
}

var defaultMetrics *Metrics

// Init 初始化指标收集器
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "delivery_market"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		ordersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Total number of orders created",
			},
			[]string{"shop"},
		),
		orderTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_transitions_total",
				Help:      "Total number of order status transitions",
			},
			[]string{"from", "to"},
		),
		pointsTransactionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "points_transactions_total",
				Help:      "Total number of loyalty points ledger entries",
			},
			[]string{"type"},
		),
		settlementsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_generated_total",
				Help:      "Total number of settlement records generated",
			},
			[]string{"type"},
		),
		periodCloseDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "period_close_duration_seconds",
				Help:      "Duration of weekly period close operations",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}

	defaultMetrics = m
	return m
}

// GetMetrics 获取默认指标收集器
func GetMetrics() *Metrics {
	if defaultMetrics == nil {
		return Init("")
	}
	return defaultMetrics
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过 metrics 端点本身
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordOrderCreated 记录订单创建
func (m *Metrics) RecordOrderCreated(shopID int64) {
	m.ordersTotal.WithLabelValues(strconv.FormatInt(shopID, 10)).Inc()
}

// RecordOrderTransition 记录订单状态流转
func (m *Metrics) RecordOrderTransition(from, to string) {
	m.orderTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordPointsTransaction 记录积分流水
func (m *Metrics) RecordPointsTransaction(txType string) {
	m.pointsTransactionsTotal.WithLabelValues(txType).Inc()
}

// RecordSettlements 记录结算单生成
func (m *Metrics) RecordSettlements(settlementType string, count int) {
	m.settlementsTotal.WithLabelValues(settlementType).Add(float64(count))
}

// ObservePeriodClose 记录关账耗时
func (m *Metrics) ObservePeriodClose(d time.Duration) {
	m.periodCloseDuration.Observe(d.Seconds())
}
