package domain

// EventType is the canonical classification of an inbound stimulus.
type EventType string

// User-facing events produced by the classifier.
const (
	EventUserInput           EventType = "USER_INPUT"
	EventYes                 EventType = "YES"
	EventNo                  EventType = "NO"
	EventStillNeedHelp       EventType = "STILL_NEED_HELP"
	EventHealthIssueInform   EventType = "HEALTH_ISSUE_INFORM"
	EventScheduleAppointment EventType = "SCHEDULE_APPOINTMENT"
	EventQuickGuidance       EventType = "QUICK_GUIDANCE"
	EventSchedule            EventType = "SCHEDULE"
	EventVerify              EventType = "VERIFY"
	EventVaccinationFlow     EventType = "VACCINATION_FLOW"
	EventHygieneMeasures     EventType = "HYGIENE_MEASURES_FLOW"
	EventUrgencySituation    EventType = "URGENCY_SITUATION_FLOW"
	EventMyself              EventType = "MYSELF"
	EventOtherPerson         EventType = "OTHER_PERSON"
)

// Internal events synthesized by the interpreter. The classifier never
// produces them and states never declare handlers for them; the interpreter
// routes them through the active state's invoke/after metadata.
const (
	EventTaskDone  EventType = "task.done"
	EventTaskError EventType = "task.error"
	EventTimer     EventType = "timer.fired"
)

// Event is one stimulus delivered to an actor: a canonical type tag plus the
// raw user text (or task output) as payload.
type Event struct {
	Type EventType

	// Text is the raw payload: user text for external events, task output
	// for task.done, the task error message for task.error.
	Text string

	// History is an optional side channel carrying the conversation
	// transcript. Available to classifier rules and task prompts; the
	// machine logic itself never depends on it.
	History []ChatMessage
}
