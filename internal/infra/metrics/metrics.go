// Where: cli/internal/infra/metrics/metrics.go
// What: Pipeline stage metrics written as a node-exporter textfile.
// Why: A CLI has no scrape endpoint, so metrics are flushed to disk after a run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var stageBuckets = []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder collects stage timings and deployment outcomes. A nil *Recorder
// accepts every call and records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	stageTotal    *prometheus.CounterVec
	services      *prometheus.GaugeVec
	costEstimate  prometheus.Gauge
}

// NewRecorder registers the pipeline collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	r.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "autodeploy",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages",
		Buckets:   stageBuckets,
	}, []string{"stage"})
	r.stageTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autodeploy",
		Subsystem: "pipeline",
		Name:      "stage_results_total",
		Help:      "Number of pipeline stage outcomes",
	}, []string{"stage", "outcome"})
	r.services = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "autodeploy",
		Subsystem: "deploy",
		Name:      "services",
		Help:      "Services in the last deployment by status",
	}, []string{"status"})
	r.costEstimate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "autodeploy",
		Subsystem: "deploy",
		Name:      "cost_estimate_dollars",
		Help:      "Estimated monthly cost of the last deployment",
	})
	r.registry.MustRegister(r.stageDuration, r.stageTotal, r.services, r.costEstimate)
	return r
}

// ObserveStage records one stage execution.
func (r *Recorder) ObserveStage(stage string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.stageDuration.With(prometheus.Labels{"stage": stage}).Observe(elapsed.Seconds())
	r.stageTotal.With(prometheus.Labels{"stage": stage, "outcome": outcome}).Inc()
}

// Track starts timing stage and returns a function that records it.
func (r *Recorder) Track(stage string) func(err error) {
	start := time.Now()
	return func(err error) {
		r.ObserveStage(stage, time.Since(start), err)
	}
}

// SetServices records the per-status service counts of a deployment.
func (r *Recorder) SetServices(deployed, failed int) {
	if r == nil {
		return
	}
	r.services.With(prometheus.Labels{"status": "deployed"}).Set(float64(deployed))
	r.services.With(prometheus.Labels{"status": "failed"}).Set(float64(failed))
}

// SetCostEstimate records the estimated monthly cost.
func (r *Recorder) SetCostEstimate(cost float64) {
	if r == nil {
		return
	}
	r.costEstimate.Set(cost)
}

// WriteTextfile writes all collected metrics to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
