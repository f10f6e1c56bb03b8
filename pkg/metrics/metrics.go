// Package metrics holds the Prometheus collectors for interactions and
// imgflip requests. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/small-frappuccino/memebot/pkg/log"
)

const (
	Namespace          = "memebot"
	SubsystemDiscord   = "discord"
	SubsystemImgflip   = "imgflip"
	SubsystemSystem    = "system"
	VersionLabel       = "version"
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomePanic       = "panic"
	OutcomeInvalid     = "invalid"
	OutcomeIgnored     = "ignored"
	interactionKindKey = "kind"
)

// Metrics owns a private registry so tests and embedders do not collide
// with the global one.
type Metrics struct {
	registry *prometheus.Registry

	startTime    prometheus.Gauge
	interactions *prometheus.CounterVec
	handleTime   *prometheus.HistogramVec
	imgflipReqs  *prometheus.CounterVec
	imgflipTime  *prometheus.HistogramVec
	memesCreated *prometheus.CounterVec
}

// New builds and registers every collector.
func New(version string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: Namespace}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   Namespace,
		Subsystem:   SubsystemSystem,
		Name:        "start_timestamp_seconds",
		Help:        "The time the bot started.",
		ConstLabels: prometheus.Labels{VersionLabel: version},
	})
	m.startTime.SetToCurrentTime()

	m.interactions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemDiscord,
		Name:      "interactions_total",
		Help:      "Interactions handled, by kind and outcome.",
	}, []string{interactionKindKey, "outcome"})

	m.handleTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: SubsystemDiscord,
		Name:      "interaction_duration_seconds",
		Help:      "Time spent handling one interaction.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
	}, []string{interactionKindKey})

	m.imgflipReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemImgflip,
		Name:      "requests_total",
		Help:      "Requests sent to imgflip, by endpoint and HTTP status.",
	}, []string{"endpoint", "status"})

	m.imgflipTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: SubsystemImgflip,
		Name:      "request_duration_seconds",
		Help:      "Latency of imgflip requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	m.memesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemDiscord,
		Name:      "memes_created_total",
		Help:      "Memes rendered, by step (sample or final).",
	}, []string{"step"})

	m.registry.MustRegister(m.startTime, m.interactions, m.handleTime, m.imgflipReqs, m.imgflipTime, m.memesCreated)
	return m
}

// Registry exposes the registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveInteraction counts one handled interaction.
func (m *Metrics) ObserveInteraction(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(kind, outcome).Inc()
	m.handleTime.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveImgflipRequest implements imgflip.Observer.
func (m *Metrics) ObserveImgflipRequest(endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.imgflipReqs.WithLabelValues(endpoint, status).Inc()
	m.imgflipTime.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// IncMemeCreated counts a rendered meme. step is "sample" or "final".
func (m *Metrics) IncMemeCreated(step string) {
	if m == nil {
		return
	}
	m.memesCreated.WithLabelValues(step).Inc()
}

type errorLogger struct{}

func (errorLogger) Println(v ...any) {
	log.ErrorLoggerRaw().Warn("metrics handler error", "detail", v)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{ErrorLog: errorLogger{}})
}
