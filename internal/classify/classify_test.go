package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/petsaude/iasys/internal/classify"
	"github.com/petsaude/iasys/pkg/domain"
)

func TestClassify_MenuScope(t *testing.T) {
	cases := []struct {
		input string
		want  domain.EventType
	}{
		{"1", domain.EventHealthIssueInform},
		{"estou com um problema", domain.EventHealthIssueInform},
		{"2", domain.EventScheduleAppointment},
		{"quero agendar uma consulta", domain.EventScheduleAppointment},
		{"3", domain.EventQuickGuidance},
		{"orientações rápidas", domain.EventQuickGuidance},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classify.Classify(tc.input, "menu"), tc.input)
	}
}

func TestClassify_ScopeBeatsGlobal(t *testing.T) {
	// "1" in the guidance menu is the vaccination option, not a global.
	assert.Equal(t, domain.EventVaccinationFlow, classify.Classify("1", "quick_guidance_flow"))
	// The same "1" in the scheduling menu means schedule.
	assert.Equal(t, domain.EventSchedule, classify.Classify("1", "schedule_appointment_flow"))
	// Outside any scoped state, "1" is plain user input.
	assert.Equal(t, domain.EventUserInput, classify.Classify("1", "collect_name"))
}

func TestClassify_Globals(t *testing.T) {
	cases := []struct {
		input string
		want  domain.EventType
	}{
		{"sim", domain.EventYes},
		{"S", domain.EventYes},
		{"não", domain.EventNo},
		{"n", domain.EventNo},
		{"ajuda", domain.EventStillNeedHelp},
	}
	for _, tc := range cases {
		// Globals apply in every state.
		assert.Equal(t, tc.want, classify.Classify(tc.input, "validate_name"), tc.input)
	}
}

func TestClassify_Normalization(t *testing.T) {
	assert.Equal(t, domain.EventYes, classify.Classify("  SIM  ", "menu"))
	assert.Equal(t, domain.EventHealthIssueInform, classify.Classify("Problema de Saúde", "menu"))
}

func TestClassify_FallsBackToUserInput(t *testing.T) {
	assert.Equal(t, domain.EventUserInput, classify.Classify("Maria Silva", "collect_name"))
	assert.Equal(t, domain.EventUserInput, classify.Classify("", "menu"))
	assert.Equal(t, domain.EventUserInput, classify.Classify("qualquer coisa", "menu"))
}

func TestClassify_VaccinationWhoScope(t *testing.T) {
	state := "check_user_or_other_person_vaccination"
	assert.Equal(t, domain.EventMyself, classify.Classify("para mim", state))
	assert.Equal(t, domain.EventMyself, classify.Classify("1", state))
	assert.Equal(t, domain.EventOtherPerson, classify.Classify("outra pessoa", state))
	assert.Equal(t, domain.EventOtherPerson, classify.Classify("2", state))
}
