// Package metrics holds the prometheus instruments for the message bus
// adapter. Outcome labels: ok, rejected, duplicate, invalid.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
)

var (
	MessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_messages_published_total",
		Help: "Messages published to the bus, by exchange and routing key.",
	}, []string{"exchange", "routing_key"})

	MessagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_messages_consumed_total",
		Help: "Messages consumed from the bus, by queue and outcome.",
	}, []string{"queue", "outcome"})
)

// Handler serves the default registry, mounted on the dedicated metrics port.
func Handler() http.Handler {
	return promhttp.Handler()
}
