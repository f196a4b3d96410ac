package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of pipeline runs on a private registry, so
// every Runner (and every test) gets its own.
type Metrics struct {
	Registry *prometheus.Registry

	NodeDuration *prometheus.HistogramVec
	TableRows    *prometheus.GaugeVec
	RowsDropped  *prometheus.CounterVec
	Coerced      *prometheus.CounterVec
	Violations   *prometheus.GaugeVec
	Runs         *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		NodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "strata",
				Subsystem: "pipeline",
				Name:      "node_duration_seconds",
				Help:      "Duration of pipeline nodes in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"node", "status"},
		),
		TableRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "strata",
				Subsystem: "tables",
				Name:      "rows",
				Help:      "Rows written per table and layer in the last run",
			},
			[]string{"layer", "table"},
		),
		RowsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "strata",
				Subsystem: "conform",
				Name:      "rows_dropped_total",
				Help:      "Rows removed by conformance filters, by reason",
			},
			[]string{"table", "reason"},
		),
		Coerced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "strata",
				Subsystem: "conform",
				Name:      "values_coerced_total",
				Help:      "Unparseable values stored as null, by column",
			},
			[]string{"table", "column"},
		),
		Violations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "strata",
				Subsystem: "validate",
				Name:      "violations",
				Help:      "Offending rows per violated rule in the last run",
			},
			[]string{"table", "rule", "kind"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "strata",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Pipeline runs by outcome",
			},
			[]string{"status"},
		),
	}
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
