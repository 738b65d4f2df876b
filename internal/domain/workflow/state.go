package workflow

// State represents a payroll run state in the approval lifecycle
type State string

const (
	StateDraft       State = "DRAFT"
	StateSubmitted   State = "SUBMITTED"
	StateUnderReview State = "UNDER_REVIEW"
	StateApproved    State = "APPROVED"
	StateRejected    State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:       true,
	StateSubmitted:   true,
	StateUnderReview: true,
	StateApproved:    true,
	StateRejected:    true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state accepts no further transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid payroll run state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
