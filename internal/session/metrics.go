package session

import (
	"strings"
	"time"

	"github.com/mabhi256/livetree/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	commands *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics(reg *prometheus.Registry, namespace string) *metrics {
	namespace = strings.ReplaceAll(namespace, ".", "_")
	m := &metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "commands_total",
			Help:      "client commands handled by code",
		}, []string{"code"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "command_duration_seconds",
			Help:      "time from receiving a command to acknowledging it",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	reg.MustRegister(m.commands, m.duration)
	return m
}

func (m *metrics) observe(code protocol.Code, d time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(code.String()).Inc()
	m.duration.Observe(d.Seconds())
}
