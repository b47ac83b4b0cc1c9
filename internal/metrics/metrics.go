// Package metrics exposes reader activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// Metrics counts rows, cells and malformed rows. It implements
// dsv.Observer; attach it with Reader.SetObserver.
type Metrics struct {
	rows        prometheus.Counter
	cells       prometheus.Counter
	nullCells   prometheus.Counter
	parseErrors *prometheus.CounterVec
}

var _ dsv.Observer = (*Metrics)(nil)

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		rows: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "dsv",
			Name:      "rows_total",
			Help:      "Total number of well-formed rows read.",
		}),
		cells: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "dsv",
			Name:      "cells_total",
			Help:      "Total number of cells in well-formed rows.",
		}),
		nullCells: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "dsv",
			Name:      "null_cells_total",
			Help:      "Total number of NULL cells in well-formed rows.",
		}),
		parseErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsv",
			Name:      "parse_errors_total",
			Help:      "Total number of malformed rows by kind and error mode.",
		}, []string{"kind", "mode"}),
	}
}

// ObserveRow counts a well-formed row, its cells and its NULL cells.
func (m *Metrics) ObserveRow(row dsv.Row) {
	m.rows.Inc()
	m.cells.Add(float64(len(row.Cells)))
	for _, c := range row.Cells {
		if c.Null {
			m.nullCells.Inc()
		}
	}
}

// ObserveError counts a malformed row under its kind and the active
// error mode.
func (m *Metrics) ObserveError(err *dsv.ParseError, mode dsv.ErrorMode) {
	m.parseErrors.WithLabelValues(err.Kind.String(), mode.String()).Inc()
}
