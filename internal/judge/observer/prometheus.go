package observer

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder exports judge metrics through a prometheus registry.
type PrometheusRecorder struct {
	compileTotal   *prometheus.CounterVec
	compileSeconds *prometheus.HistogramVec
	runTotal       *prometheus.CounterVec
	runSeconds     *prometheus.HistogramVec
	runMemoryKB    *prometheus.HistogramVec
}

// NewPrometheusRecorder registers judge metrics on the given registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		compileTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_compile_total",
			Help: "Total compilations by language and outcome",
		}, []string{"language", "ok"}),
		compileSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_compile_duration_seconds",
			Help:    "Compilation wall time by language",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"language"}),
		runTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_run_total",
			Help: "Total test-case runs by language and verdict",
		}, []string{"language", "verdict"}),
		runSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_run_duration_seconds",
			Help:    "Test-case wall time by language",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"language"}),
		runMemoryKB: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_run_memory_kb",
			Help:    "Peak test-case memory by language",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12),
		}, []string{"language"}),
	}
}

func (r *PrometheusRecorder) ObserveCompile(ctx context.Context, languageID string, ok bool, timeMs int64) {
	r.compileTotal.WithLabelValues(languageID, strconv.FormatBool(ok)).Inc()
	r.compileSeconds.WithLabelValues(languageID).Observe(float64(timeMs) / 1000)
}

func (r *PrometheusRecorder) ObserveRun(ctx context.Context, languageID string, verdict string, timeMs int64, memoryKB int64) {
	r.runTotal.WithLabelValues(languageID, verdict).Inc()
	r.runSeconds.WithLabelValues(languageID).Observe(float64(timeMs) / 1000)
	r.runMemoryKB.WithLabelValues(languageID).Observe(float64(memoryKB))
}
