package transport

import (
	"strings"

	"github.com/mabhi256/livetree/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

func WithPrometheus(reg *prometheus.Registry, namespace, subsystem string) ServerOption {
	if reg == nil {
		return func(s *Server) {}
	}
	if subsystem == "" {
		subsystem = "transport"
	}
	namespace = strings.ReplaceAll(namespace, ".", "_")
	subsystem = strings.ReplaceAll(subsystem, ".", "_")

	return func(s *Server) {
		s.metrics = &metrics{
			sentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_sent_total",
				Help:      "events delivered to the client by code",
			}, []string{"code"}),
			droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_dropped_total",
				Help:      "events dropped by reason",
			}, []string{"reason"}),
			refusedTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "clients_refused_total",
				Help:      "clients refused because one was attached",
			}),
			attached: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "client_attached",
				Help:      "1 while a client is attached",
			}),
			queued: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_queued",
				Help:      "events waiting for a client hello",
			}, func() float64 {
				return float64(s.Queued())
			}),
		}
		reg.MustRegister(
			s.metrics.sentTotal,
			s.metrics.droppedTotal,
			s.metrics.refusedTotal,
			s.metrics.attached,
			s.metrics.queued,
		)
	}
}

type metrics struct {
	sentTotal    *prometheus.CounterVec
	droppedTotal *prometheus.CounterVec
	refusedTotal prometheus.Counter
	attached     prometheus.Gauge
	queued       prometheus.GaugeFunc
}

func (m *metrics) sent(code protocol.Code) {
	if m == nil {
		return
	}
	m.sentTotal.WithLabelValues(code.String()).Inc()
}

func (m *metrics) dropped(reason string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(reason).Inc()
}

func (m *metrics) refused() {
	if m == nil {
		return
	}
	m.refusedTotal.Inc()
}

func (m *metrics) setAttached(attached bool) {
	if m == nil {
		return
	}
	if attached {
		m.attached.Set(1)
	} else {
		m.attached.Set(0)
	}
}
