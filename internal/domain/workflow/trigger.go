package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerSubmit      Trigger = "SUBMIT"
	TriggerBeginReview Trigger = "BEGIN_REVIEW"
	TriggerApprove     Trigger = "APPROVE"
	TriggerReject      Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
