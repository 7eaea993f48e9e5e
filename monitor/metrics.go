package monitor

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ForwardRequestCount  prometheus.Counter
	ChallengeIssuedCount prometheus.Counter
	InvalidPaymentCount  prometheus.Counter
	SettlementCount      prometheus.Counter
	SettlementErrorCount prometheus.Counter

	requestDuration *prometheus.HistogramVec
)

// PrometheusInit initializes the broker's metrics with a given server name.
func PrometheusInit(serverName string) {
	if serverName == "" {
		panic("server name must be provided")
	}

	ForwardRequestCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "forward_requests_total",
			Help:        "Total number of payment-gated proxy requests",
			ConstLabels: prometheus.Labels{"server": serverName},
		})

	ChallengeIssuedCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "challenges_issued_total",
			Help:        "Total number of 402 challenges issued",
			ConstLabels: prometheus.Labels{"server": serverName},
		})

	InvalidPaymentCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "invalid_payments_total",
			Help:        "Total number of rejected payment proofs",
			ConstLabels: prometheus.Labels{"server": serverName},
		})

	SettlementCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "settlements_total",
			Help:        "Total number of settlement attempts",
			ConstLabels: prometheus.Labels{"server": serverName},
		})

	SettlementErrorCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "settlement_errors_total",
			Help:        "Total number of failed settlements",
			ConstLabels: prometheus.Labels{"server": serverName},
		})

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Latency of handled HTTP requests",
			ConstLabels: prometheus.Labels{"server": serverName},
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "status"})

	prometheus.MustRegister(ForwardRequestCount)
	prometheus.MustRegister(ChallengeIssuedCount)
	prometheus.MustRegister(InvalidPaymentCount)
	prometheus.MustRegister(SettlementCount)
	prometheus.MustRegister(SettlementErrorCount)
	prometheus.MustRegister(requestDuration)
}

// Inc increments a counter if metrics are initialized. Counters stay nil
// when monitoring is disabled.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// TrackMetrics records per-request latency labeled by method and status.
func TrackMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if requestDuration == nil {
			return
		}
		requestDuration.WithLabelValues(
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
