package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics 网关指标
type GatewayMetrics struct {
	// 会话指标
	activeSessions prometheus.Gauge
	totalSessions  prometheus.Counter
	sessionCloses  *prometheus.CounterVec

	// 路由指标
	eventsRouted     *prometheus.CounterVec
	eventsDropped    prometheus.Counter
	deliveries       prometheus.Counter
	deliveryFailures prometheus.Counter
}

// NewGatewayMetrics 创建网关指标
func NewGatewayMetrics(registerer prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gateway",
			Subsystem: "session",
			Name:      "active_sessions",
			Help:      "Number of authenticated sessions",
		}),
		totalSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "session",
			Name:      "sessions_total",
			Help:      "Total number of authenticated sessions",
		}),
		sessionCloses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "session",
			Name:      "closes_total",
			Help:      "Total number of session closes by close code",
		}, []string{"code"}),
		eventsRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "router",
			Name:      "events_total",
			Help:      "Total number of routed envelopes by type",
		}, []string{"type"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "router",
			Name:      "events_dropped_total",
			Help:      "Total number of unparseable or unhandled envelopes",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "router",
			Name:      "deliveries_total",
			Help:      "Total number of events enqueued to sessions",
		}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "router",
			Name:      "delivery_failures_total",
			Help:      "Total number of events rejected by session queues",
		}),
	}

	// 注册指标
	if registerer != nil {
		registerer.MustRegister(
			m.activeSessions,
			m.totalSessions,
			m.sessionCloses,
			m.eventsRouted,
			m.eventsDropped,
			m.deliveries,
			m.deliveryFailures,
		)
	}

	return m
}

// OnSessionOpened 会话建立
func (m *GatewayMetrics) OnSessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
	m.totalSessions.Inc()
}

// OnSessionClosed 会话关闭
func (m *GatewayMetrics) OnSessionClosed(code int) {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
	m.sessionCloses.WithLabelValues(strconv.Itoa(code)).Inc()
}

// OnEventRouted 信封进入路由
func (m *GatewayMetrics) OnEventRouted(envelopeType int) {
	if m == nil {
		return
	}
	m.eventsRouted.WithLabelValues(strconv.Itoa(envelopeType)).Inc()
}

// OnEventDropped 信封被丢弃
func (m *GatewayMetrics) OnEventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

// OnDelivery 事件入队成功
func (m *GatewayMetrics) OnDelivery() {
	if m == nil {
		return
	}
	m.deliveries.Inc()
}

// OnDeliveryFailure 事件入队失败
func (m *GatewayMetrics) OnDeliveryFailure() {
	if m == nil {
		return
	}
	m.deliveryFailures.Inc()
}
