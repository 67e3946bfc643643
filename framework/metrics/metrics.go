// Package metrics exports container activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-autowire/framework/container"
)

// Collector owns a private registry with the container metrics:
//
//	container_resolutions_total{key}  materializations and makes per key
//	container_definitions             definitions currently stored
//	container_aliases                 alias table size
type Collector struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
}

// New creates a collector. With runtime set the Go and process collectors are
// registered as well.
func New(runtime bool) *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "container",
			Name:      "resolutions_total",
			Help:      "Definitions materialized and instances made, by key.",
		}, []string{"key"}),
	}
	m.registry.MustRegister(m.resolutions)
	if runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Watch hooks the collector into c. Call it once per container.
func (m *Collector) Watch(c *container.Container) error {
	c.AfterResolving(func(key string, _ any) {
		m.resolutions.WithLabelValues(key).Inc()
	})

	definitions := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "container",
		Name:      "definitions",
		Help:      "Definitions currently stored in the registry.",
	}, func() float64 { return float64(c.Len()) })

	aliases := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "container",
		Name:      "aliases",
		Help:      "Entries in the alias table.",
	}, func() float64 { return float64(len(c.Aliases())) })

	for _, g := range []prometheus.Collector{definitions, aliases} {
		if err := m.registry.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// Registry exposes the underlying registry.
func (m *Collector) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
