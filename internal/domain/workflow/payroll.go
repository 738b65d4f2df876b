package workflow

// NewPayrollMachine builds the payroll run transition table:
//
//	DRAFT --SUBMIT--> SUBMITTED --BEGIN_REVIEW--> UNDER_REVIEW
//	{SUBMITTED, UNDER_REVIEW} --APPROVE--> APPROVED
//	{SUBMITTED, UNDER_REVIEW} --REJECT--> REJECTED
//
// APPROVED and REJECTED are terminal. Reviewers may act directly from
// SUBMITTED; UNDER_REVIEW is an optional intermediate step.
func NewPayrollMachine() *Machine {
	return NewBuilder().
		Permit(StateDraft, TriggerSubmit, StateSubmitted).
		Permit(StateSubmitted, TriggerBeginReview, StateUnderReview).
		Permit(StateSubmitted, TriggerApprove, StateApproved).
		Permit(StateSubmitted, TriggerReject, StateRejected).
		Permit(StateUnderReview, TriggerApprove, StateApproved).
		Permit(StateUnderReview, TriggerReject, StateRejected).
		Build()
}
