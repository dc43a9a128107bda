package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "directroute"

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all reconciler metrics.
type Registry struct {
	reg *prometheus.Registry

	// Cycle metrics
	Cycles        *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	NextDelay     prometheus.Gauge
	Destinations  prometheus.Gauge

	// Per-destination metrics
	Probes    *prometheus.CounterVec
	Mutations *prometheus.CounterVec
	Errors    *prometheus.CounterVec

	// Gateway metrics
	GatewayResolved prometheus.Gauge
	GatewayUp       prometheus.Gauge
	GatewayRTT      prometheus.Gauge
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = NewRegistry()
	})
	return registry
}

// NewRegistry creates a registry with its own prometheus.Registry, including
// the Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	r := &Registry{reg: reg}

	r.Cycles = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Reconciliation cycles by outcome (steady, mutated, errored)",
	}, []string{"outcome"})

	r.CycleDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one pass over all destinations",
		Buckets:   prometheus.DefBuckets,
	})

	r.NextDelay = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "next_delay_seconds",
		Help:      "Delay chosen after the last cycle",
	})

	r.Destinations = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "destinations",
		Help:      "Number of destinations in the working set",
	})

	r.Probes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "Destination probes by classification",
	}, []string{"classification"})

	r.Mutations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_mutations_total",
		Help:      "Route table mutations by operation and result",
	}, []string{"op", "result"})

	r.Errors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Per-destination errors by kind",
	}, []string{"kind"})

	r.GatewayResolved = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gateway_resolved",
		Help:      "1 if the direct gateway was resolved at startup",
	})

	r.GatewayUp = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gateway_up",
		Help:      "1 if the direct gateway answered the last ICMP check",
	})

	r.GatewayRTT = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gateway_rtt_seconds",
		Help:      "Average round trip time of the last gateway check",
	})

	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// RecordCycle records a finished cycle and the delay chosen after it.
func (r *Registry) RecordCycle(outcome string, took, next time.Duration) {
	r.Cycles.WithLabelValues(outcome).Inc()
	r.CycleDuration.Observe(took.Seconds())
	r.NextDelay.Set(next.Seconds())
}

// RecordProbe records a destination classification.
func (r *Registry) RecordProbe(classification string) {
	r.Probes.WithLabelValues(classification).Inc()
}

// RecordMutation records a route add, change or delete.
func (r *Registry) RecordMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Mutations.WithLabelValues(op, result).Inc()
}

// RecordError records a per-destination error of the given kind.
func (r *Registry) RecordError(kind string) {
	r.Errors.WithLabelValues(kind).Inc()
}

// SetGateway records the startup resolution result.
func (r *Registry) SetGateway(resolved bool) {
	r.GatewayResolved.Set(boolToFloat(resolved))
}

// RecordGatewayCheck records a liveness check of the direct gateway.
func (r *Registry) RecordGatewayCheck(up bool, rtt time.Duration) {
	r.GatewayUp.Set(boolToFloat(up))
	r.GatewayRTT.Set(rtt.Seconds())
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
