package machine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/petsaude/iasys/internal/validate"
	"github.com/petsaude/iasys/pkg/domain"
)

// Invoked task names. The interpreter resolves them through Definition.Tasks.
const (
	taskValidateBirthDate   = "validate_birth_date"
	taskValidateCPF         = "validate_cpf"
	taskSymptomSeverity     = "symptom_severity"
	taskAppointmentDate     = "appointment_date"
	taskVaccinationCategory = "vaccination_category"
	taskHygieneGuidance     = "hygiene_guidance"
	taskUrgencyTriage       = "urgency_triage"
)

// Severity levels returned by the symptom classifier. The values double as
// routing keys for the post-analysis redirect.
const (
	routeMildSymptoms   = "health_issue_mild_symptoms"
	routeSevereSymptoms = "health_issue_severe_symptoms"
)

// Urgency levels returned by the triage task.
const (
	urgencyHigh     = "alta"
	urgencyModerate = "moderada"
)

// buildTasks wires the task implementations over the injected collaborators.
func buildTasks(deps Deps) map[string]TaskFunc {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return map[string]TaskFunc{
		taskValidateBirthDate: func(_ context.Context, input string) (string, error) {
			if err := validate.PastDate(input, now()); err != nil {
				return "", err
			}
			return strings.TrimSpace(input), nil
		},

		taskValidateCPF: func(_ context.Context, input string) (string, error) {
			if err := validate.CPF(input); err != nil {
				return "", err
			}
			return strings.TrimSpace(input), nil
		},

		taskSymptomSeverity: func(ctx context.Context, input string) (string, error) {
			if strings.TrimSpace(input) == "" {
				return "", fmt.Errorf("symptom description is empty")
			}
			out, err := deps.Completer.Complete(ctx, []domain.ChatMessage{
				{Role: domain.RoleSystem, Content: "Analise os sintomas e classifique como leves ou graves. " +
					`Retorne apenas JSON: {"nextState": "health_issue_mild_symptoms"} ou {"nextState": "health_issue_severe_symptoms"}`},
				{Role: domain.RoleUser, Content: input},
			})
			if err != nil {
				return "", err
			}
			var parsed struct {
				NextState string `json:"nextState"`
			}
			if err := decodeTaskJSON(out, &parsed); err != nil {
				return "", err
			}
			if parsed.NextState != routeMildSymptoms && parsed.NextState != routeSevereSymptoms {
				return "", fmt.Errorf("unexpected severity %q", parsed.NextState)
			}
			return parsed.NextState, nil
		},

		taskAppointmentDate: func(ctx context.Context, input string) (string, error) {
			today := now().Format("02/01/2006")
			out, err := deps.Completer.Complete(ctx, []domain.ChatMessage{
				{Role: domain.RoleSystem, Content: "Hoje é " + today + ". Extraia do texto do usuário a data desejada para o agendamento. " +
					`Retorne apenas JSON no formato {"date": "DD/MM/YYYY"}. Se o usuário não citar uma data, escolha o próximo dia útil.`},
				{Role: domain.RoleUser, Content: input},
			})
			if err != nil {
				return "", err
			}
			var parsed struct {
				Date string `json:"date"`
			}
			if err := decodeTaskJSON(out, &parsed); err != nil {
				return "", err
			}
			day, err := time.Parse("02/01/2006", parsed.Date)
			if err != nil {
				return "", fmt.Errorf("model returned unparseable date %q: %w", parsed.Date, err)
			}

			options := []domain.AppointmentOption{
				{Date: day.Format("02/01/2006"), Time: "08:00"},
				{Date: day.Format("02/01/2006"), Time: "10:30"},
				{Date: day.AddDate(0, 0, 1).Format("02/01/2006"), Time: "14:00"},
			}
			encoded, err := json.Marshal(options)
			if err != nil {
				return "", fmt.Errorf("encode options: %w", err)
			}
			return string(encoded), nil
		},

		taskVaccinationCategory: func(ctx context.Context, input string) (string, error) {
			categories := strings.Join(deps.Catalog.Categories(), ", ")
			out, err := deps.Completer.Complete(ctx, []domain.ChatMessage{
				{Role: domain.RoleSystem, Content: "Classifique a pessoa descrita em uma das categorias do calendário de vacinação: " +
					categories + `. Retorne apenas JSON: {"category": "<categoria>"}`},
				{Role: domain.RoleUser, Content: input},
			})
			if err != nil {
				return "", err
			}
			var parsed struct {
				Category string `json:"category"`
			}
			if err := decodeTaskJSON(out, &parsed); err != nil {
				return "", err
			}
			category := strings.ToLower(strings.TrimSpace(parsed.Category))
			if _, ok := deps.Catalog.Lookup(category); !ok {
				return "", fmt.Errorf("unknown vaccination category %q", parsed.Category)
			}
			return category, nil
		},

		taskHygieneGuidance: func(ctx context.Context, input string) (string, error) {
			out, err := deps.Completer.Complete(ctx, []domain.ChatMessage{
				{Role: domain.RoleSystem, Content: "Você é um assistente de saúde pública. Responda à dúvida de higiene e prevenção " +
					`de forma curta e prática, em português. Retorne apenas JSON: {"message": "<orientação>"}`},
				{Role: domain.RoleUser, Content: input},
			})
			if err != nil {
				return "", err
			}
			var parsed struct {
				Message string `json:"message"`
			}
			if err := decodeTaskJSON(out, &parsed); err != nil {
				return "", err
			}
			if strings.TrimSpace(parsed.Message) == "" {
				return "", fmt.Errorf("guidance message is empty")
			}
			return parsed.Message, nil
		},

		taskUrgencyTriage: func(ctx context.Context, input string) (string, error) {
			out, err := deps.Completer.Complete(ctx, []domain.ChatMessage{
				{Role: domain.RoleSystem, Content: "Avalie a gravidade da situação de urgência descrita. " +
					`Retorne apenas JSON: {"severity": "alta"} ou {"severity": "moderada"}`},
				{Role: domain.RoleUser, Content: input},
			})
			if err != nil {
				return "", err
			}
			var parsed struct {
				Severity string `json:"severity"`
			}
			if err := decodeTaskJSON(out, &parsed); err != nil {
				return "", err
			}
			severity := strings.ToLower(strings.TrimSpace(parsed.Severity))
			if severity != urgencyHigh && severity != urgencyModerate {
				return "", fmt.Errorf("unexpected severity %q", parsed.Severity)
			}
			return severity, nil
		},
	}
}

// decodeTaskJSON parses a model answer that is expected to be a single JSON
// object. Models occasionally wrap the object in code fences or prose, so the
// outermost braces delimit what gets decoded. A missing object or undecodable
// content fails the task.
func decodeTaskJSON(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return fmt.Errorf("completion output is not JSON: %q", truncate(raw, 120))
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("decode completion output: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
