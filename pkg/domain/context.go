package domain

// Address holds the user's address. Collection of these fields is not part of
// the onboarding flow yet; they exist so scheduling can be extended to pick
// the nearest health unit.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	ZIP    string `json:"zip,omitempty"`
}

// UserInformation is the confirmed personal data collected during onboarding.
// Fields are only written after the user confirms them; unconfirmed values
// live in Context.UserInput.
type UserInformation struct {
	Name          string  `json:"name,omitempty"`
	HasSocialName bool    `json:"has_social_name,omitempty"`
	SocialName    string  `json:"social_name,omitempty"`
	BirthDate     string  `json:"birth_date,omitempty"`
	CPF           string  `json:"cpf,omitempty"`
	Sex           string  `json:"sex,omitempty"`
	Address       Address `json:"address,omitempty"`
}

// AppointmentOption is one scheduling candidate offered to the user.
type AppointmentOption struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Context is the mutable record threaded through the state machine. It is
// only ever modified by actions declared on transitions; the interpreter
// passes it by value so actions stay pure (context in, context out).
type Context struct {
	// UserInput is a scratch field holding the last raw value awaiting
	// confirmation. Overwritten on each collection step, never accumulated.
	UserInput string

	UserInformation UserInformation

	TypeOfAppointment    string
	ScheduledDateOptions []AppointmentOption
	ChosenDate           string

	// VaccinationTarget records whether guidance is for the user ("self")
	// or someone else ("other"); VaccinationCategory is the classified age
	// group used for the catalog lookup.
	VaccinationTarget   string
	VaccinationCategory string

	// GuidanceMessage holds the text produced by a triage task so the
	// follow-up state's entry action can surface it.
	GuidanceMessage string

	// NextState carries a task-selected route consumed by `always`
	// transitions (post-analysis redirects).
	NextState string

	// Responses accumulates assistant messages since the last flush.
	// Entry actions append, never remove; only the collector's flush
	// signal clears it.
	Responses []string
}

// Say returns a copy of the context with msgs appended to the response buffer.
func (c Context) Say(msgs ...string) Context {
	// Re-slice so snapshots taken earlier never share spare capacity.
	buf := make([]string, len(c.Responses), len(c.Responses)+len(msgs))
	copy(buf, c.Responses)
	c.Responses = append(buf, msgs...)
	return c
}
