package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chartgen/internal/prompt"
)

// handlerMetrics lives on its own registry so several handlers can coexist
// in one process (tests build one per case).
type handlerMetrics struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	duration    prometheus.Histogram
	rateLimited prometheus.Counter
}

func newHandlerMetrics() *handlerMetrics {
	m := &handlerMetrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chartgen",
			Name:      "generations_total",
			Help:      "Chart generation requests by chart type and outcome.",
		}, []string{"chart_type", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chartgen",
			Name:      "generation_duration_seconds",
			Help:      "Time spent extracting, prompting and waiting for the model.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chartgen",
			Name:      "rate_limited_total",
			Help:      "Generation requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(m.generations, m.duration, m.rateLimited)
	return m
}

func (m *handlerMetrics) observe(chartType, outcome string, started time.Time) {
	m.generations.WithLabelValues(chartTypeLabel(chartType), outcome).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}

func (m *handlerMetrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// chartTypeLabel keeps label cardinality bounded by the keyword list.
func chartTypeLabel(chartType string) string {
	if prompt.Known(chartType) {
		return strings.ToLower(strings.TrimSpace(chartType))
	}
	return "other"
}
