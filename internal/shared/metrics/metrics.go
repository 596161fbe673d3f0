// Package metrics registers the service's Prometheus collectors and serves them at /metrics.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector of this package plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	documentConflicts = factory.NewCounter(prometheus.CounterOpts{
		Name: "document_conflicts_total",
		Help: "Updates rejected by the version check",
	})
	scoresCalculated = factory.NewCounter(prometheus.CounterOpts{
		Name: "scores_calculated_total",
		Help: "Scores calculated and stored",
	})
	aiCacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_cache_lookups_total",
		Help: "Enhancement cache lookups",
	}, []string{"result"})
	aiQuotaDenied = factory.NewCounter(prometheus.CounterOpts{
		Name: "ai_quota_denied_total",
		Help: "Enhancements rejected by the daily quota",
	})
	exportsFinished = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_finished_total",
		Help: "Export jobs that reached a final state",
	}, []string{"status"})
	authLimited = factory.NewCounter(prometheus.CounterOpts{
		Name: "auth_attempts_limited_total",
		Help: "Sign-in attempts rejected by the limiter",
	})

	exportRender = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_render_duration_ms",
		Help:    "PDF render duration in milliseconds",
		Buckets: []float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
	aiCall = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "ai_call_duration_ms",
		Help:    "Language model call duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	// Labelled series are exported from zero.
	for _, result := range []string{"hit", "miss"} {
		aiCacheLookups.WithLabelValues(result)
	}
	for _, status := range []string{"completed", "failed"} {
		exportsFinished.WithLabelValues(status)
	}
}

func IncDocumentConflict() { documentConflicts.Inc() }

func IncScoreCalculated() { scoresCalculated.Inc() }

func IncAICache(hit bool) {
	if hit {
		aiCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	aiCacheLookups.WithLabelValues("miss").Inc()
}

func IncAIQuotaDenied() { aiQuotaDenied.Inc() }

// IncExport counts an export job that completed or failed.
func IncExport(completed bool) {
	if completed {
		exportsFinished.WithLabelValues("completed").Inc()
		return
	}
	exportsFinished.WithLabelValues("failed").Inc()
}

func IncAuthLimited() { authLimited.Inc() }

func ObserveExportRenderMs(value float64) { exportRender.Observe(max(value, 0)) }

func ObserveAICallMs(value float64) { aiCall.Observe(max(value, 0)) }

// Handler serves Registry for GET /metrics.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry}))
}
