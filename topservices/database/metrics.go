package database

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	statements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "top_database_statements_total",
		Help: "Statements executed, by operation and status.",
	}, []string{"operation", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "top_database_statement_duration_seconds",
		Help:    "Statement execution time, by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	if err := registerer.Register(statements); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			return nil, err
		}
		statements = alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
	}

	if err := registerer.Register(duration); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			return nil, err
		}
		duration = alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
	}

	return &metrics{
		statements: statements,
		duration:   duration,
	}, nil
}

func (m *metrics) observe(statement string, started time.Time, err error) {
	if m == nil {
		return
	}

	operation := operationOf(statement)
	status := "ok"
	if err != nil {
		status = "error"
	}

	m.statements.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// operationOf is the lower cased first keyword of a statement.
func operationOf(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return "unknown"
	}

	return strings.ToLower(fields[0])
}
