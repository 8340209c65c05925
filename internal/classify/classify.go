// Package classify maps raw user text plus the current state name to a
// canonical event. Rules are scoped by state and evaluated in declaration
// order; globals apply only when no state-scoped rule matched.
package classify

import (
	"strings"

	"github.com/petsaude/iasys/pkg/domain"
)

// rule matches either the exact normalized token or any of the substrings.
type rule struct {
	state    string // empty = global
	exact    []string
	contains []string
	event    domain.EventType
}

// The table order is a contract: "sim"/"não" are reserved words, so globals
// are checked only after the state-scoped rules for the current state.
var scoped = []rule{
	{state: "menu", exact: []string{"1"}, contains: []string{"problema", "saúde"}, event: domain.EventHealthIssueInform},
	{state: "menu", exact: []string{"2"}, contains: []string{"agendar", "consulta"}, event: domain.EventScheduleAppointment},
	{state: "menu", exact: []string{"3"}, contains: []string{"orientações", "rápidas"}, event: domain.EventQuickGuidance},

	{state: "schedule_appointment_flow", exact: []string{"1"}, contains: []string{"agendar"}, event: domain.EventSchedule},
	{state: "schedule_appointment_flow", exact: []string{"2"}, contains: []string{"verificar"}, event: domain.EventVerify},

	{state: "quick_guidance_flow", exact: []string{"1"}, contains: []string{"vacinação"}, event: domain.EventVaccinationFlow},
	{state: "quick_guidance_flow", exact: []string{"2"}, contains: []string{"medidas", "higiene"}, event: domain.EventHygieneMeasures},
	{state: "quick_guidance_flow", exact: []string{"3"}, contains: []string{"urgência", "urgencia"}, event: domain.EventUrgencySituation},

	{state: "check_user_or_other_person_vaccination", exact: []string{"2"}, contains: []string{"pessoa", "outra"}, event: domain.EventOtherPerson},
	{state: "check_user_or_other_person_vaccination", exact: []string{"1"}, contains: []string{"mim", "eu"}, event: domain.EventMyself},
}

var global = []rule{
	{exact: []string{"sim", "s"}, event: domain.EventYes},
	{exact: []string{"não", "n"}, event: domain.EventNo},
	{exact: []string{"ajuda"}, event: domain.EventStillNeedHelp},
}

// Classify resolves the canonical event for raw text in the given state.
// Matching is case-insensitive and ignores surrounding whitespace. Anything
// unmatched falls through to USER_INPUT with the raw text as payload.
func Classify(raw, currentState string) domain.EventType {
	token := strings.ToLower(strings.TrimSpace(raw))

	for _, r := range scoped {
		if r.state == currentState && r.match(token) {
			return r.event
		}
	}
	for _, r := range global {
		if r.match(token) {
			return r.event
		}
	}
	return domain.EventUserInput
}

func (r rule) match(token string) bool {
	for _, e := range r.exact {
		if token == e {
			return true
		}
	}
	for _, c := range r.contains {
		if strings.Contains(token, c) {
			return true
		}
	}
	return false
}
