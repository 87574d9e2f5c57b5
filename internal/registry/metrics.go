package registry

import (
	"strings"

	"github.com/mabhi256/livetree/internal/diff"
	"github.com/prometheus/client_golang/prometheus"
)

func WithPrometheus(reg *prometheus.Registry, namespace, subsystem string) Option {
	if reg == nil {
		return func(r *Registry) {}
	}
	if subsystem == "" {
		subsystem = "objects"
	}
	namespace = strings.ReplaceAll(namespace, ".", "_")
	subsystem = strings.ReplaceAll(subsystem, ".", "_")

	return func(r *Registry) {
		r.metrics = &metrics{
			updates: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "updates_total",
				Help:      "list updates computed",
			}),
			deltas: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "deltas_total",
				Help:      "list deltas emitted by kind",
			}, []string{"kind"}),
			reorders: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reorders_total",
				Help:      "updates that fell back to a full list replacement",
			}),
			tracked: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tracked_paths",
				Help:      "paths holding an object id",
			}, func() float64 {
				return float64(r.paths.Len())
			}),
		}
		reg.MustRegister(
			r.metrics.updates,
			r.metrics.deltas,
			r.metrics.reorders,
			r.metrics.tracked,
		)
	}
}

type metrics struct {
	updates  prometheus.Counter
	deltas   *prometheus.CounterVec
	reorders prometheus.Counter
	tracked  prometheus.GaugeFunc
}

func (m *metrics) observe(deltas []diff.Delta, reordered bool) {
	if m == nil {
		return
	}
	m.updates.Inc()
	if reordered {
		m.reorders.Inc()
	}
	for _, d := range deltas {
		m.deltas.WithLabelValues(d.Kind.String()).Inc()
	}
}
