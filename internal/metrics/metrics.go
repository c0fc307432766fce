// Package metrics exposes Prometheus collectors fed by the eventbus.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	eventbus "github.com/graphmod/graphmod/internal/eventbus"
	events "github.com/graphmod/graphmod/internal/events"
)

// Collector holds all Prometheus metrics for graphmod.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   prometheus.Counter

	SchemaBuildsTotal   *prometheus.CounterVec
	SchemaBuildDuration prometheus.Histogram

	ContextBuildsTotal *prometheus.CounterVec
}

// New registers the collectors on the default registry.
func New() *Collector { return NewWithRegistry(prometheus.DefaultRegisterer) }

// NewWithRegistry registers the collectors on reg. Tests use this to avoid
// global registry state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphmod",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "graphmod",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphmod",
				Name:      "graphql_operations_total",
				Help:      "Total number of GraphQL operations executed",
			},
			[]string{"type"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "graphmod",
				Name:      "graphql_operation_duration_seconds",
				Help:      "GraphQL operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"type"},
		),
		OperationErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "graphmod",
				Name:      "graphql_operation_errors_total",
				Help:      "Total number of GraphQL operation errors",
			},
		),
		SchemaBuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphmod",
				Name:      "schema_builds_total",
				Help:      "Total number of component schema reads by outcome",
			},
			[]string{"component", "outcome"},
		),
		SchemaBuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "graphmod",
				Name:      "schema_build_duration_seconds",
				Help:      "Component schema read duration in seconds",
				Buckets:   []float64{.0001, .001, .01, .05, .1, .5, 1, 5},
			},
		),
		ContextBuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "graphmod",
				Name:      "context_builds_total",
				Help:      "Total number of per-request context builds by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Subscribe attaches eventbus subscribers feeding the collectors. The
// returned function detaches them.
func (c *Collector) Subscribe() (unsubscribe func()) {
	var cancels []func()

	cancels = append(cancels, eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		c.RequestsTotal.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
		c.RequestDuration.WithLabelValues(e.Request.Method).Observe(e.Duration.Seconds())
	}))

	cancels = append(cancels, eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		opType := e.OperationType
		if opType == "" {
			opType = "unknown"
		}
		c.OperationsTotal.WithLabelValues(opType).Inc()
		c.OperationDuration.WithLabelValues(opType).Observe(e.Duration.Seconds())
		if len(e.Errors) > 0 {
			c.OperationErrors.Add(float64(len(e.Errors)))
		}
	}))

	cancels = append(cancels, eventbus.Subscribe(func(ctx context.Context, e events.SchemaBuild) {
		c.SchemaBuildsTotal.WithLabelValues(e.Component, outcome(e.Err)).Inc()
		c.SchemaBuildDuration.Observe(e.Duration.Seconds())
	}))

	cancels = append(cancels, eventbus.Subscribe(func(ctx context.Context, e events.ContextBuild) {
		c.ContextBuildsTotal.WithLabelValues(outcome(e.Err)).Inc()
	}))

	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
