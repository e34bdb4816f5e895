package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// VotingMetrics 投票服务指标
type VotingMetrics struct {
	registry     *prometheus.Registry
	operations   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	events       *prometheus.CounterVec
	eventErrors  *prometheus.CounterVec
	phase        prometheus.Gauge
	contributed  prometheus.Gauge
	httpRequests *prometheus.CounterVec
}

var (
	votingOnce     sync.Once
	votingRegistry *VotingMetrics
)

// Voting 返回进程级指标单例
func Voting() *VotingMetrics {
	votingOnce.Do(func() {
		votingRegistry = New()
	})
	return votingRegistry
}

// New 创建独立注册表上的指标，测试中使用
func New() *VotingMetrics {
	m := &VotingMetrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ivs_operations_total",
			Help: "Engine operations by name and result kind.",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ivs_operation_duration_seconds",
			Help:    "Engine operation latency including persistence.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ivs_events_total",
			Help: "Processed engine events by type.",
		}, []string{"type"}),
		eventErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ivs_event_failures_total",
			Help: "Failed event deliveries by type.",
		}, []string{"type"}),
		phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ivs_phase",
			Help: "Ordinal of the current engine phase.",
		}),
		contributed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ivs_contributed_accepted",
			Help: "Accepted contribution amount observed from events, in base units.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ivs_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.operations,
		m.latency,
		m.events,
		m.eventErrors,
		m.phase,
		m.contributed,
		m.httpRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveOperation 记录一次引擎操作，result 为 ok 或错误类别
func (m *VotingMetrics) ObserveOperation(operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "error"
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *VotingMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

func (m *VotingMetrics) ObserveEventFailure(eventType string) {
	if m == nil {
		return
	}
	m.eventErrors.WithLabelValues(eventType).Inc()
}

func (m *VotingMetrics) SetPhase(ordinal int) {
	if m == nil {
		return
	}
	m.phase.Set(float64(ordinal))
}

// AddContributed 浮点精度足够用于监控
func (m *VotingMetrics) AddContributed(amount float64) {
	if m == nil {
		return
	}
	m.contributed.Add(amount)
}

func (m *VotingMetrics) ObserveHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Registry 暴露注册表
func (m *VotingMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *VotingMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
