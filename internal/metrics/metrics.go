// Package metrics exposes prometheus collectors for the RESP server.
//
// Every collector is registered on a private registry so tests and
// multiple servers in one process don't collide.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moonwire"

// Close reasons used as label values of ConnectionsClosed
const (
	ReasonClean    = "clean"
	ReasonProtocol = "protocol_error"
	ReasonReset    = "reset"
	ReasonIO       = "io_error"
	ReasonShutdown = "shutdown"
)

// Registry holds all server metrics
type Registry struct {
	registry *prometheus.Registry

	ConnectionsActive   prometheus.Gauge
	ConnectionsAccepted prometheus.Counter
	ConnectionsClosed   *prometheus.CounterVec // by reason
	FramesDecoded       *prometheus.CounterVec // by frame type
	FramesEncoded       *prometheus.CounterVec // by frame type
	BytesRead           prometheus.Counter
	BytesWritten        prometheus.Counter
	DispatchDuration    prometheus.Histogram
}

// NewRegistry creates the collectors and registers them together with the
// go runtime and process collectors
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of open client connections.",
		}),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted client connections.",
		}),
		ConnectionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Total number of closed client connections by reason.",
		}, []string{"reason"}),
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_decoded_total",
			Help:      "Total number of top-level frames decoded by type.",
		}, []string{"type"}),
		FramesEncoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_encoded_total",
			Help:      "Total number of top-level frames encoded by type.",
		}, []string{"type"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_bytes_total",
			Help:      "Total number of bytes read from clients.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Total number of bytes written to clients.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent in the command dispatcher per request.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsAccepted,
		r.ConnectionsClosed,
		r.FramesDecoded,
		r.FramesEncoded,
		r.BytesRead,
		r.BytesWritten,
		r.DispatchDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler returns an HTTP handler for the /metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// BytesObserver adapts the byte counters to resp.Observer
type BytesObserver struct {
	r *Registry
}

// Observer returns a resp.Observer feeding BytesRead and BytesWritten
func (r *Registry) Observer() BytesObserver {
	return BytesObserver{r: r}
}

func (o BytesObserver) BytesRead(n int) {
	o.r.BytesRead.Add(float64(n))
}

func (o BytesObserver) BytesWritten(n int) {
	o.r.BytesWritten.Add(float64(n))
}
