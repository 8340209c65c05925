package machine_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petsaude/iasys/internal/machine"
	"github.com/petsaude/iasys/pkg/domain"
)

func TestTask_ValidateBirthDate(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	task := def.Tasks["validate_birth_date"]
	require.NotNil(t, task)

	out, err := task(context.Background(), "01/01/1990")
	require.NoError(t, err)
	assert.Equal(t, "01/01/1990", out)

	_, err = task(context.Background(), "31/02/1990")
	assert.Error(t, err)

	// The frozen clock is 15/06/2025; today is not in the past.
	_, err = task(context.Background(), "15/06/2025")
	assert.Error(t, err)
}

func TestTask_ValidateCPF(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	task := def.Tasks["validate_cpf"]
	require.NotNil(t, task)

	out, err := task(context.Background(), "529.982.247-25")
	require.NoError(t, err)
	assert.Equal(t, "529.982.247-25", out)

	_, err = task(context.Background(), "123")
	assert.Error(t, err)
}

func TestTask_SymptomSeverity(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{
		"```json\n{\"nextState\": \"health_issue_mild_symptoms\"}\n```",
	}}
	def := buildGraph(t, completer)
	task := def.Tasks["symptom_severity"]

	out, err := task(context.Background(), "dor de garganta leve")
	require.NoError(t, err)
	assert.Equal(t, string(machine.StateHealthIssueMild), out)
}

func TestTask_SymptomSeverity_RejectsUnknownRoute(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{`{"nextState": "outro_estado"}`}}
	def := buildGraph(t, completer)
	task := def.Tasks["symptom_severity"]

	_, err := task(context.Background(), "dor")
	assert.Error(t, err)
}

func TestTask_SymptomSeverity_EmptyInput(t *testing.T) {
	def := buildGraph(t, &scriptedCompleter{})
	task := def.Tasks["symptom_severity"]

	_, err := task(context.Background(), "   ")
	assert.Error(t, err)
}

func TestTask_SymptomSeverity_PropagatesCompleterError(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("api indisponível")}
	def := buildGraph(t, completer)
	task := def.Tasks["symptom_severity"]

	_, err := task(context.Background(), "febre")
	assert.Error(t, err)
}

func TestTask_AppointmentDate(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{`{"date": "20/06/2025"}`}}
	def := buildGraph(t, completer)
	task := def.Tasks["appointment_date"]

	out, err := task(context.Background(), "pode ser sexta que vem")
	require.NoError(t, err)

	var options []domain.AppointmentOption
	require.NoError(t, json.Unmarshal([]byte(out), &options))
	require.Len(t, options, 3)
	assert.Equal(t, "20/06/2025", options[0].Date)
	assert.Equal(t, "08:00", options[0].Time)
	assert.Equal(t, "20/06/2025", options[1].Date)
	// The third slot falls on the following day.
	assert.Equal(t, "21/06/2025", options[2].Date)
	assert.Equal(t, "14:00", options[2].Time)
}

func TestTask_AppointmentDate_BadModelDate(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{`{"date": "sexta-feira"}`}}
	def := buildGraph(t, completer)
	task := def.Tasks["appointment_date"]

	_, err := task(context.Background(), "sexta")
	assert.Error(t, err)
}

func TestTask_VaccinationCategory(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{`{"category": " Idoso "}`}}
	def := buildGraph(t, completer)
	task := def.Tasks["vaccination_category"]

	out, err := task(context.Background(), "minha avó de 70 anos")
	require.NoError(t, err)
	assert.Equal(t, "idoso", out)
}

func TestTask_VaccinationCategory_UnknownCategory(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{`{"category": "marciano"}`}}
	def := buildGraph(t, completer)
	task := def.Tasks["vaccination_category"]

	_, err := task(context.Background(), "um marciano")
	assert.Error(t, err)
}

func TestTask_HygieneGuidance(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{
		`Claro! {"message": "Lave as mãos com água e sabão por 20 segundos."}`,
	}}
	def := buildGraph(t, completer)
	task := def.Tasks["hygiene_guidance"]

	out, err := task(context.Background(), "como lavar as mãos?")
	require.NoError(t, err)
	assert.Equal(t, "Lave as mãos com água e sabão por 20 segundos.", out)
}

func TestTask_UrgencyTriage(t *testing.T) {
	completer := &scriptedCompleter{outputs: []string{
		`{"severity": "ALTA"}`,
		`{"severity": "moderada"}`,
		`{"severity": "baixíssima"}`,
	}}
	def := buildGraph(t, completer)
	task := def.Tasks["urgency_triage"]

	out, err := task(context.Background(), "desmaiou e não responde")
	require.NoError(t, err)
	assert.Equal(t, "alta", out)

	out, err = task(context.Background(), "torceu o pé")
	require.NoError(t, err)
	assert.Equal(t, "moderada", out)

	_, err = task(context.Background(), "unha encravada")
	assert.Error(t, err)
}
