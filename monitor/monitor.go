// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers  prometheus.Gauge
	WaitingPlayers prometheus.Gauge
	ActivePlayers  prometheus.Gauge
	RoundsStarted  prometheus.Counter
	RoundsEnded    *prometheus.CounterVec
	Eliminations   prometheus.Counter
	RoundDuration  prometheus.Histogram
	TickDuration   prometheus.Histogram
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected players",
		}),
		WaitingPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waiting_players",
			Help:      "Players waiting for the next round",
		}),
		ActivePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_players",
			Help:      "Players still standing in the current round",
		}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Rounds started",
		}),
		// result is "won" or "abandoned"
		RoundsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_ended_total",
			Help:      "Rounds ended, by result",
		}, []string{"result"}),
		Eliminations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eliminations_total",
			Help:      "Players that fell off the floor",
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Time from round start to its end",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 8),
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent in one room tick",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}

	reg.MustRegister(
		m.OnlinePlayers,
		m.WaitingPlayers,
		m.ActivePlayers,
		m.RoundsStarted,
		m.RoundsEnded,
		m.Eliminations,
		m.RoundDuration,
		m.TickDuration,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
}

// NewMonitor registers the metrics, plus the Go and process collectors, on a
// private registry.
func NewMonitor(namespace string) *Monitor {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Monitor{
		metrics:   NewMetrics(namespace, registry),
		registry:  registry,
		startTime: time.Now(),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startTime)
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetRoster(waiting, active int) {
	m.metrics.WaitingPlayers.Set(float64(waiting))
	m.metrics.ActivePlayers.Set(float64(active))
}

func (m *Monitor) RoundStarted() {
	m.metrics.RoundsStarted.Inc()
}

func (m *Monitor) RoundEnded(aborted bool, duration time.Duration) {
	result := "won"
	if aborted {
		result = "abandoned"
	}
	m.metrics.RoundsEnded.WithLabelValues(result).Inc()
	m.metrics.RoundDuration.Observe(duration.Seconds())
}

func (m *Monitor) Eliminated() {
	m.metrics.Eliminations.Inc()
}

func (m *Monitor) ObserveTick(duration time.Duration) {
	m.metrics.TickDuration.Observe(duration.Seconds())
}
