package gatt

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the peripheral's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	connectionState prometheus.Gauge
	registrations   *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	attributeOps    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gattd_connection_state",
			Help: "1 while a central is connected, 0 otherwise.",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gattd_registrations_total",
			Help: "Registration replies from BlueZ by kind and result.",
		}, []string{"kind", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gattd_notifications_total",
			Help: "Notification ticks by result (sent, skipped, failed).",
		}, []string{"result"}),
		attributeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gattd_attribute_operations_total",
			Help: "Attribute operations served to BlueZ by operation and result.",
		}, []string{"op", "result"}),
	}
	reg.MustRegister(m.connectionState, m.registrations, m.notifications, m.attributeOps)
	return m
}

func (m *Metrics) connection(s ConnectionState) {
	if m == nil {
		return
	}
	if s == Connected {
		m.connectionState.Set(1)
	} else {
		m.connectionState.Set(0)
	}
}

func (m *Metrics) registration(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.registrations.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

// AttributeOp records one attribute operation served to the host.
func (m *Metrics) AttributeOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = AsError(err).Name
	}
	m.attributeOps.WithLabelValues(op, result).Inc()
}
