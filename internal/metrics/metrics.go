// Package metrics holds the Prometheus collectors for chat sessions.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Gauges
	SessionsActive prometheus.Gauge

	// Counters
	Reconnects     prometheus.Counter
	LinesReceived  prometheus.Counter
	LinesSent      prometheus.Counter
	LinesDropped   prometheus.Counter
	ParseErrors    prometheus.Counter
	MessagesBuilt  prometheus.Counter
	DialFailures   prometheus.Counter
	SessionsOpened prometheus.Counter
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{Name: "ircchat_sessions_active", Help: "Number of live chat server connections"})
		SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{Name: "ircchat_sessions_opened_total", Help: "Number of chat sessions created"})
		Reconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "ircchat_reconnects_total", Help: "Number of successful reconnects"})
		LinesReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "ircchat_lines_received_total", Help: "Number of lines read from chat servers"})
		LinesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "ircchat_lines_sent_total", Help: "Number of lines written to chat servers"})
		LinesDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "ircchat_lines_dropped_total", Help: "Number of outbound lines dropped because the queue was full or the connection was down"})
		ParseErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "ircchat_parse_errors_total", Help: "Number of received lines that could not be parsed"})
		MessagesBuilt = promauto.NewCounter(prometheus.CounterOpts{Name: "ircchat_messages_built_total", Help: "Number of chat messages constructed from lines"})
		DialFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "ircchat_dial_failures_total", Help: "Number of failed connection attempts"})
	})
}

// Inc increments c if it has been registered.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// AddSessions adjusts the active session gauge by n.
func AddSessions(n int) {
	if SessionsActive != nil {
		SessionsActive.Add(float64(n))
	}
}
