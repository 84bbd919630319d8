package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stepDuration     *prom.HistogramVec
	stepResults      *prom.CounterVec
	pipelineDuration prom.Histogram
	pipelineOutcome  *prom.CounterVec
	reloads          prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitepipe",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual pipeline steps",
			Buckets:   prom.DefBuckets,
		}, []string{"step"}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepipe",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"step", "result"}),
		pipelineDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitepipe",
			Name:      "pipeline_duration_seconds",
			Help:      "Total pipeline duration",
			Buckets:   prom.DefBuckets,
		}),
		pipelineOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitepipe",
			Name:      "pipeline_outcomes_total",
			Help:      "Pipeline outcomes by final status",
		}, []string{"result"}),
		reloads: prom.NewCounter(prom.CounterOpts{
			Namespace: "sitepipe",
			Name:      "livereload_broadcasts_total",
			Help:      "Reload notifications sent to connected browsers",
		}),
	}
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.pipelineDuration, pr.pipelineOutcome, pr.reloads)
	return pr
}

func (p *PrometheusRecorder) ObserveStepDuration(step string, d time.Duration) {
	if p == nil {
		return
	}
	p.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(step string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stepResults.WithLabelValues(step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObservePipelineDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.pipelineDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPipelineOutcome(result ResultLabel) {
	if p == nil {
		return
	}
	p.pipelineOutcome.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncLiveReloadBroadcast() {
	if p == nil {
		return
	}
	p.reloads.Inc()
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
