// Package metrics exposes prometheus collectors for the transport, the
// operation poller and the resource envelope codec. A nil *Collector is a
// valid no-op.
package metrics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gamesvc"

// Collector groups the client metrics.
type Collector struct {
	requests       *prometheus.CounterVec
	retries        *prometheus.CounterVec
	polls          *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	orphanCleanups *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them on registerer.
// Collectors already registered by another client are reused.
func NewCollector(registerer prometheus.Registerer) *Collector {
	collector := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP attempts sent to the management API, by method and status code.",
		}, []string{"method", "code"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "retries_total",
			Help:      "HTTP attempts that were retries of an earlier attempt.",
		}, []string{"method"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operation",
			Name:      "polls_total",
			Help:      "Operation status requests, by reported status.",
		}, []string{"status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operation",
			Name:      "outcomes_total",
			Help:      "Finished operation waits, by final state.",
		}, []string{"state"}),
		orphanCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "envelope",
			Name:      "orphan_cleanups_total",
			Help:      "Deletions of listed resources unknown to the game service, by result.",
		}, []string{"result"}),
	}

	if registerer == nil {
		return collector
	}

	collector.requests = register(registerer, collector.requests)
	collector.retries = register(registerer, collector.retries)
	collector.polls = register(registerer, collector.polls)
	collector.outcomes = register(registerer, collector.outcomes)
	collector.orphanCleanups = register(registerer, collector.orphanCleanups)

	return collector
}

func register(registerer prometheus.Registerer, vec *prometheus.CounterVec) *prometheus.CounterVec {
	err := registerer.Register(vec)
	if err == nil {
		return vec
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing
		}
	}

	panic(fmt.Sprintf("registering %T: %v", vec, err))
}

// ObserveRequest counts one HTTP attempt.
func (c *Collector) ObserveRequest(method string, statusCode int) {
	if c == nil {
		return
	}

	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}

	c.requests.WithLabelValues(method, code).Inc()
}

// ObserveRetry counts one retried attempt.
func (c *Collector) ObserveRetry(method string) {
	if c == nil {
		return
	}

	c.retries.WithLabelValues(method).Inc()
}

// ObservePoll counts one operation status response.
func (c *Collector) ObservePoll(status string) {
	if c == nil {
		return
	}

	c.polls.WithLabelValues(status).Inc()
}

// ObserveOutcome counts one finished operation wait.
func (c *Collector) ObserveOutcome(state string) {
	if c == nil {
		return
	}

	c.outcomes.WithLabelValues(state).Inc()
}

// ObserveOrphanCleanup counts one orphan deletion attempt.
func (c *Collector) ObserveOrphanCleanup(err error) {
	if c == nil {
		return
	}

	result := "deleted"
	if err != nil {
		result = "failed"
	}

	c.orphanCleanups.WithLabelValues(result).Inc()
}
