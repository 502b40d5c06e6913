// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 流水线指标
	pipelineRunsTotal   *prometheus.CounterVec
	pipelineRunDuration *prometheus.HistogramVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 任务指标
	jobsSubmitted *prometheus.CounterVec
	jobsFinished  *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobRetries    *prometheus.CounterVec
	jobsInFlight  prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器。reg 为 nil 时注册到默认 Registry。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: name, Help: help, Buckets: buckets,
		}, labels)
	}

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),

		httpRequestsTotal: counter("http_requests_total",
			"HTTP requests by method, normalized path and status class", "method", "path", "status"),
		httpRequestDuration: histogram("http_request_duration_seconds",
			"HTTP request latency", prometheus.DefBuckets, "method", "path"),
		httpResponseSize: histogram("http_response_size_bytes",
			"HTTP response body size", prometheus.ExponentialBuckets(100, 10, 8), "method", "path"),

		pipelineRunsTotal: counter("pipeline_runs_total",
			"Pipeline runs by modality and outcome (completed, failed, cache_hit)", "modality", "outcome"),
		pipelineRunDuration: histogram("pipeline_run_duration_seconds",
			"Pipeline run latency", []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}, "modality"),

		cacheHits:   counter("cache_hits_total", "Asset cache hits", "modality"),
		cacheMisses: counter("cache_misses_total", "Asset cache misses", "modality"),

		jobsSubmitted: counter("jobs_submitted_total", "Accepted generation jobs", "modality"),
		jobsFinished:  counter("jobs_finished_total", "Generation jobs by terminal status", "modality", "status"),
		jobDuration: histogram("job_duration_seconds",
			"Job wall time including retries", []float64{0.01, 0.1, 0.5, 1, 5, 30, 60, 120}, "modality"),
		jobRetries: counter("job_retries_total", "Job attempts retried after a retryable error", "modality"),
		jobsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "jobs_in_flight", Help: "Jobs currently executing",
		}),
	}

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🏭 流水线指标记录
// =============================================================================

// RecordRun 记录一次流水线运行
func (c *Collector) RecordRun(modality, outcome string, duration time.Duration) {
	c.pipelineRunsTotal.WithLabelValues(modality, outcome).Inc()
	c.pipelineRunDuration.WithLabelValues(modality).Observe(duration.Seconds())
}

// RecordCacheLookup 记录缓存查询结果
func (c *Collector) RecordCacheLookup(modality string, hit bool) {
	if hit {
		c.cacheHits.WithLabelValues(modality).Inc()
		return
	}
	c.cacheMisses.WithLabelValues(modality).Inc()
}

// =============================================================================
// 📦 任务指标记录
// =============================================================================

// RecordJobSubmitted 记录任务提交
func (c *Collector) RecordJobSubmitted(modality string) {
	c.jobsSubmitted.WithLabelValues(modality).Inc()
}

// RecordJobStarted 任务开始执行
func (c *Collector) RecordJobStarted() {
	c.jobsInFlight.Inc()
}

// RecordJobFinished 记录任务结束
func (c *Collector) RecordJobFinished(modality, status string, duration time.Duration) {
	c.jobsInFlight.Dec()
	c.jobsFinished.WithLabelValues(modality, status).Inc()
	c.jobDuration.WithLabelValues(modality).Observe(duration.Seconds())
}

// RecordJobRetry 记录任务重试
func (c *Collector) RecordJobRetry(modality string) {
	c.jobRetries.WithLabelValues(modality).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
