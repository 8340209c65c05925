// Package observability exposes engine activity as Prometheus metrics and
// structured logs through the domain lifecycle hooks.
package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petsaude/iasys/internal/logging"
	"github.com/petsaude/iasys/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	stateVisits  *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	taskErrors   *prometheus.CounterVec
	responses    prometheus.Counter

	logger *slog.Logger
}

// Option configures Metrics.
type Option func(*Metrics)

// WithLogger attaches a structured logger so hook events are logged alongside
// the metric updates.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Metrics) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer, opts ...Option) (*Metrics, error) {
	m := &Metrics{
		stateVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iasys_state_visits_total",
				Help: "Total number of conversation state entries",
			},
			[]string{"state_id"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "iasys_task_duration_seconds",
				Help: "Duration of invoked task executions",
			},
			[]string{"task_name"},
		),
		taskErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iasys_task_errors_total",
				Help: "Total number of invoked task failures",
			},
			[]string{"task_name"},
		),
		responses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "iasys_responses_total",
				Help: "Total number of assistant messages produced",
			},
		),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	collectors := []prometheus.Collector{m.stateVisits, m.taskDuration, m.taskErrors, m.responses}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors. The callbacks run
// on actor goroutines and only touch counters, so they never block.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			m.logger.Debug("state_enter",
				"session_id", e.SessionID,
				"state_id", e.StateID,
				"trigger", e.Trigger,
			)
			m.stateVisits.WithLabelValues(e.StateID).Inc()
		},
		OnTaskDone: func(ctx context.Context, e *domain.TaskEvent) {
			m.logger.Debug("task_done",
				"session_id", e.SessionID,
				"task_name", e.TaskName,
				"is_error", e.IsError,
			)
			m.taskDuration.WithLabelValues(e.TaskName).Observe(e.Duration.Seconds())
			if e.IsError {
				m.taskErrors.WithLabelValues(e.TaskName).Inc()
			}
		},
		OnResponse: func(ctx context.Context, e *domain.ResponseEvent) {
			m.responses.Add(float64(e.Count))
		},
	}
}
