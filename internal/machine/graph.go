package machine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/petsaude/iasys/pkg/domain"
	"github.com/petsaude/iasys/pkg/ports"
)

// State identifiers. The classifier scopes its rules by these names, so they
// are part of the engine's public contract.
const (
	StateStart StateID = "start"

	StateCollectName        StateID = "collect_name"
	StateValidateName       StateID = "validate_name"
	StateAskSocialName      StateID = "ask_social_name"
	StateCollectSocialName  StateID = "collect_social_name"
	StateValidateSocialName StateID = "validate_social_name"
	StateCollectBirthDate   StateID = "collect_birth_date"
	StateBirthDateAnalysis  StateID = "birth_date_analysis"
	StateValidateBirthDate  StateID = "validate_birth_date"
	StateCollectCPF         StateID = "collect_cpf"
	StateCPFAnalysis        StateID = "cpf_analysis"
	StateValidateCPF        StateID = "validate_cpf"
	StateCollectSex         StateID = "collect_sex"

	StateMenu StateID = "menu"

	StateHealthIssueInform   StateID = "health_issue_inform"
	StateHealthIssueAnalysis StateID = "health_issue_analysis"
	StateHealthIssueResponse StateID = "health_issue_response"
	StateHealthIssueMild     StateID = "health_issue_mild_symptoms"
	StateHealthIssueSevere   StateID = "health_issue_severe_symptoms"

	StateScheduleFlow            StateID = "schedule_appointment_flow"
	StateCollectAppointmentType  StateID = "collect_appointment_type"
	StateCollectAppointmentDate  StateID = "collect_appointment_date"
	StateAppointmentDateAnalysis StateID = "appointment_date_analysis"
	StatePresentDateOptions      StateID = "present_date_options"
	StateValidateAppointment     StateID = "validate_appointment"
	StateAppointmentScheduled    StateID = "appointment_scheduled"
	StateVerifyAppointment       StateID = "verify_appointment"
	StateAppointmentFound        StateID = "appointment_found"
	StateAppointmentNotFound     StateID = "appointment_not_found"

	StateQuickGuidanceFlow    StateID = "quick_guidance_flow"
	StateCheckVaccinationWho  StateID = "check_user_or_other_person_vaccination"
	StateVaccinationPerson    StateID = "vaccination_person_info"
	StateVaccinationAnalysis  StateID = "vaccination_category_analysis"
	StateVaccinationGuidance  StateID = "vaccination_guidance"
	StateHygieneMeasures      StateID = "hygiene_measures"
	StateHygieneAnalysis      StateID = "hygiene_analysis"
	StateHygieneGuidance      StateID = "hygiene_guidance"
	StateUrgencySituation     StateID = "urgency_situation"
	StateUrgencyAnalysis      StateID = "urgency_analysis"
	StateUrgencyCritical      StateID = "urgency_critical"
	StateUrgencyModerateState StateID = "urgency_moderate"

	StateStillNeedHelp StateID = "still_need_help"
	StateError         StateID = "error"
	StateEndSession    StateID = "end_session"
)

// DefaultAdvanceDelay paces automatic advances (greeting to onboarding,
// advice to follow-up, error recovery to menu). It must stay comfortably
// below the collector's quiescence window.
const DefaultAdvanceDelay = 600 * time.Millisecond

// Deps are the collaborators the graph needs: the completion capability for
// LLM tasks and the vaccination reference catalog.
type Deps struct {
	Completer ports.Completer
	Catalog   ports.VaccinationCatalog

	// Now injects the clock used by date validation and extraction.
	// Defaults to time.Now.
	Now func() time.Time

	// AdvanceDelay overrides DefaultAdvanceDelay (tests shrink it).
	AdvanceDelay time.Duration
}

// Build assembles the full conversation graph.
func Build(deps Deps) (*Definition, error) {
	if deps.Completer == nil {
		return nil, errors.New("machine: completer is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("machine: vaccination catalog is required")
	}
	delay := deps.AdvanceDelay
	if delay <= 0 {
		delay = DefaultAdvanceDelay
	}

	def := &Definition{
		Initial: StateStart,
		States:  make(map[StateID]*State),
		Tasks:   buildTasks(deps),
	}

	add := func(s *State) {
		def.States[s.ID] = s
	}

	// ---- Onboarding -----------------------------------------------------

	add(&State{
		ID:    StateStart,
		Entry: say(msgGreeting),
		After: &Delayed{Delay: delay, Target: StateCollectName},
	})

	add(&State{
		ID:    StateCollectName,
		Entry: say(msgAskName),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				// Blank input re-enters the state so the entry prompt is
				// the single reprompt the user sees.
				{Guard: inputBlank, Target: StateCollectName},
				{Target: StateValidateName, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateValidateName,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			return c.Say(fmt.Sprintf(msgConfirmNameFmt, c.UserInput))
		},
		Transitions: map[domain.EventType][]Transition{
			domain.EventYes: {{Target: StateAskSocialName, Actions: []ActionFunc{assignName}}},
			domain.EventNo:  {{Target: StateCollectName}},
		},
	})

	add(&State{
		ID:    StateAskSocialName,
		Entry: say(msgAskHasSocialName),
		Transitions: map[domain.EventType][]Transition{
			domain.EventYes: {{Target: StateCollectSocialName, Actions: []ActionFunc{setHasSocialName(true)}}},
			domain.EventNo:  {{Target: StateCollectBirthDate, Actions: []ActionFunc{setHasSocialName(false)}}},
		},
	})

	add(&State{
		ID:    StateCollectSocialName,
		Entry: say(msgAskSocialName),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Guard: inputBlank, Target: StateCollectSocialName},
				{Target: StateValidateSocialName, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateValidateSocialName,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			return c.Say(fmt.Sprintf(msgConfirmSocialFmt, c.UserInput))
		},
		Transitions: map[domain.EventType][]Transition{
			domain.EventYes: {{Target: StateCollectBirthDate, Actions: []ActionFunc{assignSocialName}}},
			domain.EventNo:  {{Target: StateCollectSocialName}},
		},
	})

	add(&State{
		ID:    StateCollectBirthDate,
		Entry: say(msgAskBirthDate),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Target: StateBirthDateAnalysis, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateBirthDateAnalysis,
		Invoke: &Task{
			Name:  taskValidateBirthDate,
			Input: func(c domain.Context) string { return c.UserInput },
			OnDone: []Transition{
				// The task output is the normalized date; keep it as the
				// pending value so confirmation shows what was accepted.
				{Target: StateValidateBirthDate, Actions: []ActionFunc{captureInput}},
			},
			OnError: []Transition{
				{Target: StateCollectBirthDate, Actions: []ActionFunc{say(msgInvalidBirthDate)}},
			},
		},
	})

	add(&State{
		ID: StateValidateBirthDate,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			return c.Say(fmt.Sprintf(msgConfirmBirthDateFmt, c.UserInput))
		},
		Transitions: map[domain.EventType][]Transition{
			domain.EventYes: {{Target: StateCollectCPF, Actions: []ActionFunc{assignBirthDate}}},
			domain.EventNo:  {{Target: StateCollectBirthDate}},
		},
	})

	add(&State{
		ID:    StateCollectCPF,
		Entry: say(msgAskCPF),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Target: StateCPFAnalysis, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateCPFAnalysis,
		Invoke: &Task{
			Name:  taskValidateCPF,
			Input: func(c domain.Context) string { return c.UserInput },
			OnDone: []Transition{
				{Target: StateValidateCPF, Actions: []ActionFunc{captureInput}},
			},
			OnError: []Transition{
				{Target: StateCollectCPF, Actions: []ActionFunc{say(msgInvalidCPF)}},
			},
		},
	})

	add(&State{
		ID: StateValidateCPF,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			return c.Say(fmt.Sprintf(msgConfirmCPFFmt, c.UserInput))
		},
		Transitions: map[domain.EventType][]Transition{
			domain.EventYes: {{Target: StateCollectSex, Actions: []ActionFunc{assignCPF}}},
			domain.EventNo:  {{Target: StateCollectCPF}},
		},
	})

	add(&State{
		ID:    StateCollectSex,
		Entry: say(msgAskSex),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Guard: isSexChoice, Target: StateMenu, Actions: []ActionFunc{assignSex}},
				{Target: StateCollectSex, Actions: []ActionFunc{say(msgSexInvalid)}},
			},
		},
	})

	// ---- Main menu and health issue flow --------------------------------

	add(&State{
		ID:    StateMenu,
		Entry: say(msgMenu),
		Transitions: map[domain.EventType][]Transition{
			domain.EventHealthIssueInform:   {{Target: StateHealthIssueInform}},
			domain.EventScheduleAppointment: {{Target: StateScheduleFlow}},
			domain.EventQuickGuidance:       {{Target: StateQuickGuidanceFlow}},
			domain.EventStillNeedHelp:       {{Target: StateStillNeedHelp}},
		},
	})

	add(&State{
		ID:    StateHealthIssueInform,
		Entry: say(msgAskSymptom),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Target: StateHealthIssueAnalysis, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateHealthIssueAnalysis,
		Invoke: &Task{
			Name:  taskSymptomSeverity,
			Input: func(c domain.Context) string { return c.UserInput },
			OnDone: []Transition{
				{Target: StateHealthIssueResponse, Actions: []ActionFunc{setNextState}},
			},
			OnError: []Transition{{Target: StateError}},
		},
	})

	add(&State{
		ID: StateHealthIssueResponse,
		Always: []Transition{
			{Guard: nextStateIs(routeMildSymptoms), Target: StateHealthIssueMild},
			{Guard: nextStateIs(routeSevereSymptoms), Target: StateHealthIssueSevere},
			{Target: StateError},
		},
	})

	add(&State{
		ID:    StateHealthIssueMild,
		Entry: say(msgMildSymptoms),
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
		Transitions: map[domain.EventType][]Transition{
			domain.EventStillNeedHelp: {{Target: StateStillNeedHelp}},
		},
	})

	add(&State{
		ID:    StateHealthIssueSevere,
		Entry: say(msgSevereSymptoms),
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
		Transitions: map[domain.EventType][]Transition{
			domain.EventStillNeedHelp: {{Target: StateStillNeedHelp}},
		},
	})

	// ---- Scheduling flow ------------------------------------------------

	add(&State{
		ID:    StateScheduleFlow,
		Entry: say(msgScheduleMenu),
		Transitions: map[domain.EventType][]Transition{
			domain.EventSchedule: {{Target: StateCollectAppointmentType}},
			domain.EventVerify:   {{Target: StateVerifyAppointment}},
		},
	})

	add(&State{
		ID:    StateCollectAppointmentType,
		Entry: say(msgAskAppointmentType),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Guard: inputBlank, Target: StateCollectAppointmentType},
				{Target: StateCollectAppointmentDate, Actions: []ActionFunc{assignAppointmentType}},
			},
		},
	})

	add(&State{
		ID:    StateCollectAppointmentDate,
		Entry: say(msgAskAppointmentDate),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Target: StateAppointmentDateAnalysis, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateAppointmentDateAnalysis,
		Invoke: &Task{
			Name:  taskAppointmentDate,
			Input: func(c domain.Context) string { return c.UserInput },
			OnDone: []Transition{
				{Target: StatePresentDateOptions, Actions: []ActionFunc{parseDateOptions}},
			},
			OnError: []Transition{{Target: StateError}},
		},
	})

	add(&State{
		ID: StatePresentDateOptions,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			lines := make([]string, 0, len(c.ScheduledDateOptions)+2)
			lines = append(lines, msgDateOptionsHeader)
			for i, opt := range c.ScheduledDateOptions {
				lines = append(lines, fmt.Sprintf("%d) %s às %s", i+1, opt.Date, opt.Time))
			}
			lines = append(lines, msgDateOptionsFooter)
			return c.Say(strings.Join(lines, "\n"))
		},
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Guard: isDateOptionChoice, Target: StateValidateAppointment, Actions: []ActionFunc{chooseDateOption}},
				{Target: StatePresentDateOptions, Actions: []ActionFunc{say(msgDateOptionInvalid)}},
			},
		},
	})

	add(&State{
		ID: StateValidateAppointment,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			return c.Say(fmt.Sprintf(msgConfirmApptFmt, c.TypeOfAppointment, c.ChosenDate))
		},
		Transitions: map[domain.EventType][]Transition{
			domain.EventYes: {{Target: StateAppointmentScheduled}},
			domain.EventNo:  {{Target: StatePresentDateOptions, Actions: []ActionFunc{clearChosenDate}}},
		},
	})

	add(&State{
		ID:    StateAppointmentScheduled,
		Entry: say(msgApptScheduled),
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
	})

	add(&State{
		ID: StateVerifyAppointment,
		Always: []Transition{
			{Guard: hasChosenDate, Target: StateAppointmentFound},
			{Target: StateAppointmentNotFound},
		},
	})

	add(&State{
		ID: StateAppointmentFound,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			return c.Say(fmt.Sprintf(msgApptFoundFmt, c.ChosenDate))
		},
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
	})

	add(&State{
		ID:    StateAppointmentNotFound,
		Entry: say(msgApptNotFound),
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
	})

	// ---- Quick guidance -------------------------------------------------

	add(&State{
		ID:    StateQuickGuidanceFlow,
		Entry: say(msgQuickGuidanceMenu),
		Transitions: map[domain.EventType][]Transition{
			domain.EventVaccinationFlow:  {{Target: StateCheckVaccinationWho}},
			domain.EventHygieneMeasures:  {{Target: StateHygieneMeasures}},
			domain.EventUrgencySituation: {{Target: StateUrgencySituation}},
		},
	})

	add(&State{
		ID:    StateCheckVaccinationWho,
		Entry: say(msgVaccinationWho),
		Transitions: map[domain.EventType][]Transition{
			domain.EventMyself:      {{Target: StateVaccinationAnalysis, Actions: []ActionFunc{setVaccinationTarget("self")}}},
			domain.EventOtherPerson: {{Target: StateVaccinationPerson, Actions: []ActionFunc{setVaccinationTarget("other")}}},
		},
	})

	add(&State{
		ID:    StateVaccinationPerson,
		Entry: say(msgAskVaccinatedWho),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Guard: inputBlank, Target: StateVaccinationPerson},
				{Target: StateVaccinationAnalysis, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateVaccinationAnalysis,
		Invoke: &Task{
			Name: taskVaccinationCategory,
			Input: func(c domain.Context) string {
				if c.VaccinationTarget == "other" {
					return c.UserInput
				}
				return "data de nascimento: " + c.UserInformation.BirthDate
			},
			OnDone: []Transition{
				{Target: StateVaccinationGuidance, Actions: []ActionFunc{setVaccinationCategory}},
			},
			OnError: []Transition{{Target: StateError}},
		},
	})

	add(&State{
		ID: StateVaccinationGuidance,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			g, ok := deps.Catalog.Lookup(c.VaccinationCategory)
			if !ok {
				return c.Say(msgError)
			}
			lines := []string{g.Message, fmt.Sprintf(msgVaccinesHeaderFmt, g.Category)}
			for _, v := range g.Vaccines {
				lines = append(lines, fmt.Sprintf("- %s: %s (%d dose(s))", v.Name, v.Description, v.Dosage))
			}
			return c.Say(strings.Join(lines, "\n"))
		},
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
	})

	add(&State{
		ID:    StateHygieneMeasures,
		Entry: say(msgAskHygiene),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Guard: inputBlank, Target: StateHygieneMeasures},
				{Target: StateHygieneAnalysis, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateHygieneAnalysis,
		Invoke: &Task{
			Name:  taskHygieneGuidance,
			Input: func(c domain.Context) string { return c.UserInput },
			OnDone: []Transition{
				{Target: StateHygieneGuidance, Actions: []ActionFunc{setGuidanceMessage}},
			},
			OnError: []Transition{{Target: StateError}},
		},
	})

	add(&State{
		ID: StateHygieneGuidance,
		Entry: func(c domain.Context, _ domain.Event) domain.Context {
			return c.Say(c.GuidanceMessage)
		},
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
	})

	add(&State{
		ID:    StateUrgencySituation,
		Entry: say(msgAskUrgency),
		Transitions: map[domain.EventType][]Transition{
			domain.EventUserInput: {
				{Guard: inputBlank, Target: StateUrgencySituation},
				{Target: StateUrgencyAnalysis, Actions: []ActionFunc{captureInput}},
			},
		},
	})

	add(&State{
		ID: StateUrgencyAnalysis,
		Invoke: &Task{
			Name:  taskUrgencyTriage,
			Input: func(c domain.Context) string { return c.UserInput },
			OnDone: []Transition{
				{Guard: payloadIs(urgencyHigh), Target: StateUrgencyCritical},
				{Target: StateUrgencyModerateState},
			},
			OnError: []Transition{{Target: StateError}},
		},
	})

	add(&State{
		ID:    StateUrgencyCritical,
		Entry: say(msgUrgencyCritical),
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
	})

	add(&State{
		ID:    StateUrgencyModerateState,
		Entry: say(msgUrgencyModerate),
		After: &Delayed{Delay: delay, Target: StateStillNeedHelp},
	})

	// ---- Shared terminal and recovery states ----------------------------

	add(&State{
		ID:    StateStillNeedHelp,
		Entry: say(msgStillNeedHelp),
		Transitions: map[domain.EventType][]Transition{
			domain.EventYes: {{Target: StateMenu}},
			domain.EventNo:  {{Target: StateEndSession}},
		},
	})

	add(&State{
		ID:    StateError,
		Entry: say(msgError),
		After: &Delayed{Delay: delay, Target: StateMenu},
	})

	add(&State{
		ID:    StateEndSession,
		Final: true,
		Entry: say(msgGoodbye),
	})

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// ---- Guards -------------------------------------------------------------

func inputBlank(_ domain.Context, ev domain.Event) bool {
	return strings.TrimSpace(ev.Text) == ""
}

func isSexChoice(_ domain.Context, ev domain.Event) bool {
	_, ok := sexOptions[strings.TrimSpace(ev.Text)]
	return ok
}

func isDateOptionChoice(c domain.Context, ev domain.Event) bool {
	n, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	return err == nil && n >= 1 && n <= len(c.ScheduledDateOptions)
}

func hasChosenDate(c domain.Context, _ domain.Event) bool {
	return c.ChosenDate != ""
}

func nextStateIs(want string) GuardFunc {
	return func(c domain.Context, _ domain.Event) bool {
		return c.NextState == want
	}
}

func payloadIs(want string) GuardFunc {
	return func(_ domain.Context, ev domain.Event) bool {
		return ev.Text == want
	}
}

// ---- Actions ------------------------------------------------------------

// say builds an entry/transition action appending fixed messages.
func say(msgs ...string) ActionFunc {
	return func(c domain.Context, _ domain.Event) domain.Context {
		return c.Say(msgs...)
	}
}

// captureInput stores the raw payload as the pending value. The text is kept
// as given; trimming is a display concern.
func captureInput(c domain.Context, ev domain.Event) domain.Context {
	c.UserInput = ev.Text
	return c
}

func assignName(c domain.Context, _ domain.Event) domain.Context {
	c.UserInformation.Name = c.UserInput
	return c
}

func setHasSocialName(has bool) ActionFunc {
	return func(c domain.Context, _ domain.Event) domain.Context {
		c.UserInformation.HasSocialName = has
		return c
	}
}

func assignSocialName(c domain.Context, _ domain.Event) domain.Context {
	c.UserInformation.SocialName = c.UserInput
	return c
}

func assignBirthDate(c domain.Context, _ domain.Event) domain.Context {
	c.UserInformation.BirthDate = c.UserInput
	return c
}

func assignCPF(c domain.Context, _ domain.Event) domain.Context {
	c.UserInformation.CPF = c.UserInput
	return c
}

func assignSex(c domain.Context, ev domain.Event) domain.Context {
	c.UserInformation.Sex = sexOptions[strings.TrimSpace(ev.Text)]
	return c
}

func setNextState(c domain.Context, ev domain.Event) domain.Context {
	c.NextState = ev.Text
	return c
}

func assignAppointmentType(c domain.Context, ev domain.Event) domain.Context {
	c.TypeOfAppointment = strings.TrimSpace(ev.Text)
	return c
}

// parseDateOptions decodes the option list produced by the appointment-date
// task. The task already validated the JSON, so a decode failure here leaves
// the options empty and the presentation state reprompts.
func parseDateOptions(c domain.Context, ev domain.Event) domain.Context {
	var options []domain.AppointmentOption
	if err := json.Unmarshal([]byte(ev.Text), &options); err == nil {
		c.ScheduledDateOptions = options
	}
	return c
}

func chooseDateOption(c domain.Context, ev domain.Event) domain.Context {
	n, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil || n < 1 || n > len(c.ScheduledDateOptions) {
		return c
	}
	opt := c.ScheduledDateOptions[n-1]
	c.ChosenDate = fmt.Sprintf("%s às %s", opt.Date, opt.Time)
	return c
}

func clearChosenDate(c domain.Context, _ domain.Event) domain.Context {
	c.ChosenDate = ""
	return c
}

func setVaccinationTarget(target string) ActionFunc {
	return func(c domain.Context, _ domain.Event) domain.Context {
		c.VaccinationTarget = target
		return c
	}
}

func setVaccinationCategory(c domain.Context, ev domain.Event) domain.Context {
	c.VaccinationCategory = ev.Text
	return c
}

func setGuidanceMessage(c domain.Context, ev domain.Event) domain.Context {
	c.GuidanceMessage = ev.Text
	return c
}

// Validate checks the structural invariants of the graph: every transition
// target exists, `always` lists end with an unguarded fallback, delayed and
// invoked transitions reference valid states and tasks.
func (d *Definition) Validate() error {
	if _, ok := d.States[d.Initial]; !ok {
		return fmt.Errorf("initial state %q not defined", d.Initial)
	}

	checkTarget := func(from StateID, t StateID) error {
		if _, ok := d.States[t]; !ok {
			return fmt.Errorf("state %q references undefined target %q", from, t)
		}
		return nil
	}

	for id, s := range d.States {
		for _, list := range s.Transitions {
			for _, tr := range list {
				if err := checkTarget(id, tr.Target); err != nil {
					return err
				}
			}
		}
		if len(s.Always) > 0 {
			for _, tr := range s.Always {
				if err := checkTarget(id, tr.Target); err != nil {
					return err
				}
			}
			if s.Always[len(s.Always)-1].Guard != nil {
				return fmt.Errorf("state %q: always transitions must end with an unguarded fallback", id)
			}
		}
		if s.After != nil {
			if err := checkTarget(id, s.After.Target); err != nil {
				return err
			}
			if s.After.Delay <= 0 {
				return fmt.Errorf("state %q: delayed transition needs a positive delay", id)
			}
		}
		if s.Invoke != nil {
			if _, ok := d.Tasks[s.Invoke.Name]; !ok {
				return fmt.Errorf("state %q invokes undefined task %q", id, s.Invoke.Name)
			}
			for _, tr := range append(append([]Transition{}, s.Invoke.OnDone...), s.Invoke.OnError...) {
				if err := checkTarget(id, tr.Target); err != nil {
					return err
				}
			}
			if len(s.Invoke.OnError) == 0 {
				return fmt.Errorf("state %q: invoked task %q needs an onError route", id, s.Invoke.Name)
			}
		}
	}
	return nil
}
