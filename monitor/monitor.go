// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlineConnections prometheus.Gauge
	ActiveGames       prometheus.Gauge
	ActionsProcessed  *prometheus.CounterVec
	ActionsRejected   *prometheus.CounterVec
	GamesFinished     prometheus.Counter
	ActionLatency     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlineConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_connections",
			Help:      "Number of open websocket connections",
		}),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Number of games with a running room",
		}),
		ActionsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_processed_total",
			Help:      "Accepted game actions by type",
		}, []string{"type"}),
		ActionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_rejected_total",
			Help:      "Rejected game actions by reason",
		}, []string{"reason"}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Total number of finished games",
		}),
		ActionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_latency_seconds",
			Help:      "Game action processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	reg.MustRegister(
		m.OnlineConnections,
		m.ActiveGames,
		m.ActionsProcessed,
		m.ActionsRejected,
		m.GamesFinished,
		m.ActionLatency,
	)

	return m
}

// Monitor wraps the metrics. A nil *Monitor is valid and records nothing.
type Monitor struct {
	metrics      *Metrics
	gatherer     prometheus.Gatherer
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

// NewMonitor registers its metrics in a private registry so that several
// monitors can coexist in one process.
func NewMonitor(namespace string) *Monitor {
	reg := prometheus.NewRegistry()
	return NewMonitorWithRegistry(namespace, reg, reg)
}

func NewMonitorWithRegistry(namespace string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace, reg),
		gatherer:  gatherer,
		startTime: time.Now(),
	}
}

// Handler serves the metrics in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// PublishExpvar exposes uptime and request counts on /debug/vars.
func (m *Monitor) PublishExpvar() {
	expvar.Publish("uptime", expvar.Func(func() any {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("requests", expvar.Func(func() any {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))
}

// StartServer serves /metrics and /debug/vars on addr in the background.
func (m *Monitor) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	m.PublishExpvar()

	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe()
	return srv
}

func (m *Monitor) IncOnlineConnections() {
	if m == nil {
		return
	}
	m.metrics.OnlineConnections.Inc()
}

func (m *Monitor) DecOnlineConnections() {
	if m == nil {
		return
	}
	m.metrics.OnlineConnections.Dec()
}

func (m *Monitor) SetActiveGames(count int) {
	if m == nil {
		return
	}
	m.metrics.ActiveGames.Set(float64(count))
}

func (m *Monitor) IncActionsProcessed(actionType string) {
	if m == nil {
		return
	}
	m.metrics.ActionsProcessed.WithLabelValues(actionType).Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncActionsRejected(reason string) {
	if m == nil {
		return
	}
	m.metrics.ActionsRejected.WithLabelValues(reason).Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncGamesFinished() {
	if m == nil {
		return
	}
	m.metrics.GamesFinished.Inc()
}

func (m *Monitor) ObserveActionLatency(duration time.Duration) {
	if m == nil {
		return
	}
	m.metrics.ActionLatency.Observe(duration.Seconds())
}
