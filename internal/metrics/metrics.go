package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcome labels.
const (
	OutcomeDelivered      = "delivered"
	OutcomeNotFound       = "not_found"
	OutcomeRejected       = "rejected"
	OutcomeDeliveryFailed = "delivery_failed"
	OutcomeError          = "error"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	FormsCreated prometheus.Counter
	Submissions  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		FormsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "form_allocation_forms_created_total",
			Help: "Number of forms created and published.",
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "form_allocation_submissions_total",
			Help: "Number of form submissions by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
