// Package metrics exposes reduction counters for Prometheus.
//
// Metrics are registered on a caller-supplied Registerer rather than the
// global default registry, so several engines (and tests) can coexist.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics is the set of engine instruments.
type Metrics struct {
	StepsApplied *prometheus.CounterVec
	StepsFailed  *prometheus.CounterVec
	Halts        *prometheus.CounterVec
	Candidates   prometheus.Histogram
	CascadeSteps prometheus.Histogram
	Nodes        prometheus.Gauge
	Edges        prometheus.Gauge
}

// New creates the instruments and registers them on reg.
// It panics if any of them is already registered there.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StepsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "icomb_steps_applied_total",
			Help: "Total number of rewrites applied, labelled by rule.",
		}, []string{"rule"}),

		StepsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "icomb_steps_failed_total",
			Help: "Total number of selected matches that did not apply, labelled by rule and outcome.",
		}, []string{"rule", "outcome"}),

		Halts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "icomb_runs_halted_total",
			Help: "Total number of runs ended, labelled by halt reason.",
		}, []string{"reason"}),

		Candidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "icomb_step_candidates",
			Help:    "Number of candidate matches seen by each step.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		}),

		CascadeSteps: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "icomb_comb_cascade_steps",
			Help:    "Number of COMB rewrites applied by each automatic cascade.",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
		}),

		Nodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "icomb_graph_nodes",
			Help: "Live nodes in the graph after the latest step.",
		}),

		Edges: f.NewGauge(prometheus.GaugeOpts{
			Name: "icomb_graph_edges",
			Help: "Edges in the graph after the latest step.",
		}),
	}
}

// WriteText writes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
