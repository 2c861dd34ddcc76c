// Package metrics exposes Prometheus collectors for grading activity.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskbench"

// Metrics holds the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	evaluations     *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	verdictChanges  *prometheus.CounterVec
	predicateErrors *prometheus.CounterVec
	submissions     prometheus.Counter
}

// MustNewMetrics registers the collectors with reg, reusing collectors
// that are already registered. A nil reg selects the default registerer.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "evaluations_total",
			Help:      "Predicate invocations per task.",
		}, []string{"task"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "skipped_total",
			Help:      "Ticks skipped because the record did not change.",
		}, []string{"task"}),
		verdictChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "verdict_changes_total",
			Help:      "Reported verdict transitions per task and outcome.",
		}, []string{"task", "success"}),
		predicateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "predicate_errors_total",
			Help:      "Predicate evaluations that returned an error or panicked.",
		}, []string{"task"}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Results received on the submission channel.",
		}),
	}

	m.evaluations = registerVec(reg, m.evaluations)
	m.skipped = registerVec(reg, m.skipped)
	m.verdictChanges = registerVec(reg, m.verdictChanges)
	m.predicateErrors = registerVec(reg, m.predicateErrors)
	if err := reg.Register(m.submissions); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			panic(err)
		}
		m.submissions = already.ExistingCollector.(prometheus.Counter)
	}
	return m
}

func registerVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func task(id int) string {
	return strconv.Itoa(id)
}

// IncEvaluation counts one predicate invocation.
func (m *Metrics) IncEvaluation(taskID int) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(task(taskID)).Inc()
}

// IncSkipped counts one tick suppressed by change detection.
func (m *Metrics) IncSkipped(taskID int) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(task(taskID)).Inc()
}

// IncVerdictChange counts one reported transition.
func (m *Metrics) IncVerdictChange(taskID int, success bool) {
	if m == nil {
		return
	}
	m.verdictChanges.WithLabelValues(task(taskID), strconv.FormatBool(success)).Inc()
}

// IncPredicateError counts one contained predicate failure.
func (m *Metrics) IncPredicateError(taskID int) {
	if m == nil {
		return
	}
	m.predicateErrors.WithLabelValues(task(taskID)).Inc()
}

// IncSubmission counts one received submission.
func (m *Metrics) IncSubmission() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}
