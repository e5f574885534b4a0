// Package metrics exposes Prometheus instruments for the analysis pipeline
// and the HTTP surface.
package metrics

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Config carries constant labels applied to every instrument.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	analysesRun      *prometheus.CounterVec
	pipelineDuration prometheus.Observer
	rowsIngested     *prometheus.CounterVec
	rowsExcluded     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers the instruments on the default registerer.
func New(cfg Config) (*Metrics, error) {
	return newMetrics(prometheus.DefaultRegisterer, cfg)
}

func newMetrics(registerer prometheus.Registerer, cfg Config) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "fuelrate"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	analysesRun := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "fuelrate_analyses_total",
		Help:        "Pipeline runs by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	pipelineDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "fuelrate_pipeline_duration_seconds",
		Help:        "Wall time of one full pipeline run.",
		Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	})
	rowsIngested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "fuelrate_rows_ingested_total",
		Help:        "Accepted input rows by table.",
		ConstLabels: constLabels,
	}, []string{"table"})
	rowsExcluded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "fuelrate_rows_excluded_total",
		Help:        "Input rows dropped by documented policy, by reason.",
		ConstLabels: constLabels,
	}, []string{"table", "reason"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "fuelrate_http_requests_total",
		Help:        "HTTP requests by route and status.",
		ConstLabels: constLabels,
	}, []string{"route", "method", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "fuelrate_http_request_duration_seconds",
		Help:        "HTTP request latency by route.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"route", "method"})

	var err error
	if analysesRun, err = register(registerer, analysesRun); err != nil {
		return nil, err
	}
	if pipelineDuration, err = register(registerer, pipelineDuration); err != nil {
		return nil, err
	}
	if rowsIngested, err = register(registerer, rowsIngested); err != nil {
		return nil, err
	}
	if rowsExcluded, err = register(registerer, rowsExcluded); err != nil {
		return nil, err
	}
	if httpRequests, err = register(registerer, httpRequests); err != nil {
		return nil, err
	}
	if httpDuration, err = register(registerer, httpDuration); err != nil {
		return nil, err
	}

	return &Metrics{
		analysesRun:      analysesRun,
		pipelineDuration: pipelineDuration,
		rowsIngested:     rowsIngested,
		rowsExcluded:     rowsExcluded,
		httpRequests:     httpRequests,
		httpDuration:     httpDuration,
	}, nil
}

// register attaches a collector to the registerer. When an equivalent
// collector is already registered, the existing one is returned so every
// caller increments the instrument the registry actually scrapes.
func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAnalysis counts one pipeline run and its duration.
func (m *Metrics) RecordAnalysis(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analysesRun.WithLabelValues(outcome).Inc()
	m.pipelineDuration.Observe(elapsed.Seconds())
}

// RecordRowsIngested counts accepted rows for one input table.
func (m *Metrics) RecordRowsIngested(table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsIngested.WithLabelValues(table).Add(float64(n))
}

// RecordRowsExcluded counts policy-dropped rows for one input table.
func (m *Metrics) RecordRowsExcluded(table, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsExcluded.WithLabelValues(table, reason).Add(float64(n))
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		status := statusClass(c.Writer.Status())
		m.httpRequests.WithLabelValues(route, c.Request.Method, status).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// statusClass keeps the label low-cardinality.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
