// Package metrics provides step and pipeline metrics for sitepipe.
//
// Components receive a Recorder through dependency injection. NoopRecorder
// is the default and does nothing; PrometheusRecorder registers its
// collectors on a caller-supplied registry, which the dev server exposes
// at /__sitepipe/metrics:
//
//	reg := prom.NewRegistry()
//	runner := pipeline.NewRunner(registry).WithRecorder(metrics.NewPrometheusRecorder(reg))
//	handler := metrics.HTTPHandler(reg)
package metrics
