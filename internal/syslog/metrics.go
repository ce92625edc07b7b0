package syslog

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for listeners and ingestion.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	activeListeners   prometheus.Gauge
	bindFailures      prometheus.Counter
	datagramsReceived *prometheus.CounterVec
	bytesReceived     *prometheus.CounterVec
	storeErrors       *prometheus.CounterVec
	handlerPanics     *prometheus.CounterVec
	socketErrors      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer yields nil metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	labels := []string{"listener"}
	m := &Metrics{
		activeListeners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "syslogkeeper",
			Subsystem: "listener",
			Name:      "active",
			Help:      "Number of running UDP syslog listeners",
		}),
		bindFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syslogkeeper",
			Subsystem: "listener",
			Name:      "bind_failures_total",
			Help:      "Listener start attempts that failed to bind",
		}),
		datagramsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslogkeeper",
			Subsystem: "ingest",
			Name:      "datagrams_received_total",
			Help:      "Datagrams received per listener",
		}, labels),
		bytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslogkeeper",
			Subsystem: "ingest",
			Name:      "bytes_received_total",
			Help:      "Payload bytes received per listener",
		}, labels),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslogkeeper",
			Subsystem: "ingest",
			Name:      "store_errors_total",
			Help:      "Datagrams dropped because the log store rejected them",
		}, labels),
		handlerPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslogkeeper",
			Subsystem: "ingest",
			Name:      "handler_panics_total",
			Help:      "Panics recovered while handling a datagram",
		}, labels),
		socketErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslogkeeper",
			Subsystem: "listener",
			Name:      "socket_errors_total",
			Help:      "Socket read errors per listener",
		}, labels),
	}

	reg.MustRegister(
		m.activeListeners,
		m.bindFailures,
		m.datagramsReceived,
		m.bytesReceived,
		m.storeErrors,
		m.handlerPanics,
		m.socketErrors,
	)
	return m
}

func (m *Metrics) listenerStarted() {
	if m != nil {
		m.activeListeners.Inc()
	}
}

func (m *Metrics) listenerStopped() {
	if m != nil {
		m.activeListeners.Dec()
	}
}

func (m *Metrics) bindFailed() {
	if m != nil {
		m.bindFailures.Inc()
	}
}

func (m *Metrics) received(listener string, n int) {
	if m != nil {
		m.datagramsReceived.WithLabelValues(listener).Inc()
		m.bytesReceived.WithLabelValues(listener).Add(float64(n))
	}
}

func (m *Metrics) storeFailed(listener string) {
	if m != nil {
		m.storeErrors.WithLabelValues(listener).Inc()
	}
}

func (m *Metrics) panicked(listener string) {
	if m != nil {
		m.handlerPanics.WithLabelValues(listener).Inc()
	}
}

func (m *Metrics) socketFailed(listener string) {
	if m != nil {
		m.socketErrors.WithLabelValues(listener).Inc()
	}
}
