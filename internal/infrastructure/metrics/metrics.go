// Package metrics Prometheus 指標：HTTP 請求、分析階段與模型訓練
package metrics

import (
	"strconv"
	"time"

	"allergy-menu-guard/internal/core/analysis"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "allergy_guard"

// Metrics 指標集合，同時實作 analysis.Observer
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	analyses      *prometheus.CounterVec
	riskLevels    *prometheus.CounterVec

	retrains        *prometheus.CounterVec
	retrainDuration *prometheus.HistogramVec
}

var _ analysis.Observer = (*Metrics)(nil)

// New 建立獨立 registry 的指標集合
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each analysis stage in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"stage"}),

		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "stage_failures_total",
			Help:      "Total number of degraded analysis stages",
		}, []string{"stage"}),

		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Total number of analyses by outcome",
		}, []string{"degraded", "cached"}),

		riskLevels: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "final_risk_total",
			Help:      "Final fused risk levels returned",
		}, []string{"level"}),

		retrains: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "retrains_total",
			Help:      "Total number of model retrains by result",
		}, []string{"model", "result"}),

		retrainDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "retrain_duration_seconds",
			Help:      "Model training duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"model"}),
	}
}

// Registry 指標 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 端點
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware 記錄 HTTP 請求數與延遲，路由以註冊時的樣板為準避免標籤爆量
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveStage 記錄分析階段
func (m *Metrics) ObserveStage(stage string, duration time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

// ObserveAnalysis 記錄分析結果
func (m *Metrics) ObserveAnalysis(res *analysis.Result) {
	m.analyses.WithLabelValues(strconv.FormatBool(res.Degraded()), strconv.FormatBool(res.Cached)).Inc()
	if res.AllergyRisk != nil && res.AllergyRisk.FinalRiskLevel != nil {
		m.riskLevels.WithLabelValues(res.AllergyRisk.FinalRiskLevel.String()).Inc()
	}
}

// ObserveRetrain 記錄模型訓練
func (m *Metrics) ObserveRetrain(model string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.retrains.WithLabelValues(model, result).Inc()
	m.retrainDuration.WithLabelValues(model).Observe(duration.Seconds())
}
