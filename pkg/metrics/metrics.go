// Package metrics exposes routing-table counters to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/util"
)

const namespace = "routeaudit"

// Lookup results.
const (
	ResultHit     = "hit"
	ResultNoRoute = "no_route"
	ResultInvalid = "invalid"
)

// Metrics groups the collectors registered by New.
type Metrics struct {
	Lookups         *prometheus.CounterVec
	LookupDuration  prometheus.Histogram
	RejectedInserts *prometheus.CounterVec
	OptimizerSteps  *prometheus.CounterVec
	Reloads         *prometheus.CounterVec
	TableEntries    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Longest-prefix lookups by result",
		}, []string{"result"}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Time spent resolving one lookup",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
		RejectedInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_inserts_total",
			Help:      "Routes rejected while loading a table, by reason",
		}, []string{"reason"}),
		OptimizerSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimizer_steps_total",
			Help:      "Optimizer rewrite steps proposed, by kind",
		}, []string{"kind"}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Table reloads by result",
		}, []string{"result"}),
		TableEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_entries",
			Help:      "Entries in the served routing table",
		}),
	}

	reg.MustRegister(m.Lookups, m.LookupDuration, m.RejectedInserts, m.OptimizerSteps, m.Reloads, m.TableEntries)
	return m
}

// ObserveLookup records one lookup outcome.
func (m *Metrics) ObserveLookup(err error, d time.Duration) {
	m.LookupDuration.Observe(d.Seconds())
	switch {
	case err == nil:
		m.Lookups.WithLabelValues(ResultHit).Inc()
	case errors.Is(err, util.ErrNoRouteToDestination):
		m.Lookups.WithLabelValues(ResultNoRoute).Inc()
	default:
		m.Lookups.WithLabelValues(ResultInvalid).Inc()
	}
}

// ObserveRejected records one rejected route.
func (m *Metrics) ObserveRejected(err error) {
	m.RejectedInserts.WithLabelValues(Reason(err)).Inc()
}

// ObserveSteps records an optimizer run.
func (m *Metrics) ObserveSteps(steps []routing.Step) {
	for _, s := range steps {
		m.OptimizerSteps.WithLabelValues(string(s.Kind)).Inc()
	}
}

// ObserveReload records a reload and, on success, the new table size.
func (m *Metrics) ObserveReload(tbl *routing.Table, err error) {
	if err != nil {
		m.Reloads.WithLabelValues("error").Inc()
		return
	}
	m.Reloads.WithLabelValues("ok").Inc()
	m.TableEntries.Set(float64(tbl.Len()))
}

// Reason maps an insert or parse error to a stable label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, util.ErrInvalidOutputInterface):
		return "invalid_interface"
	case errors.Is(err, util.ErrDuplicateEntryConflict):
		return "duplicate_conflict"
	case errors.Is(err, util.ErrInterfaceNextHopMismatch):
		return "interface_next_hop_mismatch"
	case errors.Is(err, util.ErrInvalidAddressFormat):
		return "invalid_address"
	default:
		return "other"
	}
}
