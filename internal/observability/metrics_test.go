package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petsaude/iasys/internal/observability"
	"github.com/petsaude/iasys/pkg/domain"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				total += m.GetCounter().GetValue()
			}
			if m.GetHistogram() != nil {
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		return total
	}
	return 0
}

func TestHooks_RecordMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.New(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStateEnter(ctx, &domain.StateEvent{StateID: "menu"})
	hooks.OnStateEnter(ctx, &domain.StateEvent{StateID: "menu"})
	hooks.OnTaskDone(ctx, &domain.TaskEvent{TaskName: "validate_cpf", Duration: 5 * time.Millisecond})
	hooks.OnTaskDone(ctx, &domain.TaskEvent{TaskName: "symptom_severity", IsError: true})
	hooks.OnResponse(ctx, &domain.ResponseEvent{StateID: "menu", Count: 3})

	assert.Equal(t, 2.0, gatherValue(t, reg, "iasys_state_visits_total"))
	assert.Equal(t, 2.0, gatherValue(t, reg, "iasys_task_duration_seconds"))
	assert.Equal(t, 1.0, gatherValue(t, reg, "iasys_task_errors_total"))
	assert.Equal(t, 3.0, gatherValue(t, reg, "iasys_responses_total"))
}

func TestNew_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := observability.New(reg)
	require.NoError(t, err)

	_, err = observability.New(reg)
	assert.Error(t, err)
}
