// Package metrics records pipeline activity as Prometheus metrics. The CLI is
// a one-shot process, so metrics are exported through the node exporter
// textfile format rather than a scrape endpoint.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/skillbridge/skillbridge/internal/pipeline"
)

// Recorder implements pipeline.Observer on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	stageTurns    *prometheus.CounterVec
	toolCalls     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	loopPasses    *prometheus.HistogramVec
	loopRuns      *prometheus.CounterVec
	runs          *prometheus.CounterVec
}

var _ pipeline.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		stageTurns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillbridge_stage_turns_total",
				Help: "Stage turns by stage and status",
			},
			[]string{"stage", "status"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillbridge_tool_calls_total",
				Help: "Tool calls by stage and tool",
			},
			[]string{"stage", "tool"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skillbridge_stage_duration_seconds",
				Help:    "Duration of stage turns in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		loopPasses: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skillbridge_loop_passes",
				Help:    "Completed passes per loop execution",
				Buckets: []float64{1, 2, 3, 4, 6, 8},
			},
			[]string{"loop"},
		),
		loopRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillbridge_loop_runs_total",
				Help: "Loop executions by how they ended (exited on signal or reached the cap)",
			},
			[]string{"loop", "exited"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillbridge_runs_total",
				Help: "Coordinator runs by status",
			},
			[]string{"status"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// StageFinished implements pipeline.Observer.
func (r *Recorder) StageFinished(rec pipeline.StageRecord, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.stageTurns.WithLabelValues(rec.Name, status).Inc()
	r.stageDuration.WithLabelValues(rec.Name).Observe(rec.Duration.Seconds())
	for _, name := range rec.ToolCalls {
		r.toolCalls.WithLabelValues(rec.Name, name).Inc()
	}
}

// LoopFinished implements pipeline.Observer.
func (r *Recorder) LoopFinished(rec pipeline.LoopRecord) {
	r.loopPasses.WithLabelValues(rec.Name).Observe(float64(rec.Passes))
	r.loopRuns.WithLabelValues(rec.Name, strconv.FormatBool(rec.Exited)).Inc()
}

// RunFinished counts a coordinator run.
func (r *Recorder) RunFinished(status string) {
	r.runs.WithLabelValues(status).Inc()
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
