package machine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petsaude/iasys/internal/catalog"
	"github.com/petsaude/iasys/internal/machine"
	"github.com/petsaude/iasys/pkg/domain"
)

// scriptedCompleter returns canned outputs in order, or a fixed error.
type scriptedCompleter struct {
	outputs []string
	err     error
	calls   int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ []domain.ChatMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.outputs) {
		return "", errors.New("no scripted output left")
	}
	out := s.outputs[s.calls]
	s.calls++
	return out, nil
}

func buildGraph(t *testing.T, completer *scriptedCompleter) *machine.Definition {
	t.Helper()
	def, err := machine.Build(machine.Deps{
		Completer:    completer,
		Catalog:      catalog.New(),
		Now:          func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
		AdvanceDelay: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return def
}

func TestBuild_RequiresCollaborators(t *testing.T) {
	_, err := machine.Build(machine.Deps{Catalog: catalog.New()})
	assert.Error(t, err)

	_, err = machine.Build(machine.Deps{Completer: &scriptedCompleter{}})
	assert.Error(t, err)
}

func TestBuild_GraphIsClosed(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	assert.NoError(t, def.Validate())
	assert.NotNil(t, def.State(def.Initial))
}

func TestSelect_FirstMatchWins(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	st := def.State(machine.StateCollectName)

	// Blank input matches the guarded self-transition.
	tr, ok := st.Select(domain.Context{}, domain.Event{Type: domain.EventUserInput, Text: "   "})
	require.True(t, ok)
	assert.Equal(t, machine.StateCollectName, tr.Target)

	// Real input falls through to the unguarded fallback.
	tr, ok = st.Select(domain.Context{}, domain.Event{Type: domain.EventUserInput, Text: "Maria Silva"})
	require.True(t, ok)
	assert.Equal(t, machine.StateValidateName, tr.Target)
}

func TestSelect_UnhandledEventIsNoop(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	st := def.State(machine.StateCollectName)

	_, ok := st.Select(domain.Context{}, domain.Event{Type: domain.EventScheduleAppointment})
	assert.False(t, ok)

	// The start state handles nothing at all.
	_, ok = def.State(machine.StateStart).Select(domain.Context{}, domain.Event{Type: domain.EventUserInput, Text: "oi"})
	assert.False(t, ok)
}

func TestAlways_RoutesOnTaskOutcome(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	st := def.State(machine.StateHealthIssueResponse)

	tr, ok := st.SelectAlways(domain.Context{NextState: string(machine.StateHealthIssueMild)}, domain.Event{})
	require.True(t, ok)
	assert.Equal(t, machine.StateHealthIssueMild, tr.Target)

	tr, ok = st.SelectAlways(domain.Context{NextState: string(machine.StateHealthIssueSevere)}, domain.Event{})
	require.True(t, ok)
	assert.Equal(t, machine.StateHealthIssueSevere, tr.Target)

	// Garbage routes through the unguarded fallback to the error state.
	tr, ok = st.SelectAlways(domain.Context{NextState: "nonsense"}, domain.Event{})
	require.True(t, ok)
	assert.Equal(t, machine.StateError, tr.Target)
}

func TestAlways_VerificationBranchesOnChosenDate(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	st := def.State(machine.StateVerifyAppointment)

	tr, ok := st.SelectAlways(domain.Context{ChosenDate: "16/06/2025 às 08:00"}, domain.Event{})
	require.True(t, ok)
	assert.Equal(t, machine.StateAppointmentFound, tr.Target)

	tr, ok = st.SelectAlways(domain.Context{}, domain.Event{})
	require.True(t, ok)
	assert.Equal(t, machine.StateAppointmentNotFound, tr.Target)
}

func TestEntry_DoesNotMutateInput(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	st := def.State(machine.StateMenu)

	before := domain.Context{Responses: []string{"anterior"}}
	after := st.Entry(before, domain.Event{})

	assert.Len(t, before.Responses, 1)
	assert.Len(t, after.Responses, 2)
}

func TestSexCollection_GuardsChoice(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	st := def.State(machine.StateCollectSex)

	tr, ok := st.Select(domain.Context{}, domain.Event{Type: domain.EventUserInput, Text: "2"})
	require.True(t, ok)
	assert.Equal(t, machine.StateMenu, tr.Target)

	ctx := domain.Context{}
	for _, act := range tr.Actions {
		ctx = act(ctx, domain.Event{Type: domain.EventUserInput, Text: "2"})
	}
	assert.Equal(t, "masculino", ctx.UserInformation.Sex)

	// Out-of-range choices reprompt.
	tr, ok = st.Select(domain.Context{}, domain.Event{Type: domain.EventUserInput, Text: "7"})
	require.True(t, ok)
	assert.Equal(t, machine.StateCollectSex, tr.Target)
}
