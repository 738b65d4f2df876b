package entity

// Status constants for PayrollRun
const (
	StatusDraft       = "DRAFT"
	StatusSubmitted   = "SUBMITTED"
	StatusUnderReview = "UNDER_REVIEW"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"
)

// Pay period type constants for PayrollConfig
const (
	PayPeriodWeekly   = "WEEKLY"
	PayPeriodBiWeekly = "BI_WEEKLY"
	PayPeriodMonthly  = "MONTHLY"
)

// Pay type constants for staff members
const (
	PayTypeHourly  = "HOURLY"
	PayTypeMonthly = "MONTHLY"
)

// Action type constants for run events
const (
	ActionTypeGenerate    = "GENERATE"
	ActionTypeSubmit      = "SUBMIT"
	ActionTypeBeginReview = "BEGIN_REVIEW"
	ActionTypeApprove     = "APPROVE"
	ActionTypeReject      = "REJECT"
)

var validPayPeriodTypes = map[string]bool{
	PayPeriodWeekly:   true,
	PayPeriodBiWeekly: true,
	PayPeriodMonthly:  true,
}

var validPayTypes = map[string]bool{
	PayTypeHourly:  true,
	PayTypeMonthly: true,
}

// IsValidPayPeriodType reports whether s is a known pay period type.
func IsValidPayPeriodType(s string) bool {
	return validPayPeriodTypes[s]
}

// IsValidPayType reports whether s is a known staff pay type.
func IsValidPayType(s string) bool {
	return validPayTypes[s]
}

// IsTerminalStatus reports whether a run in this status accepts no further
// transitions. Terminal runs are immutable audit records.
func IsTerminalStatus(status string) bool {
	return status == StatusApproved || status == StatusRejected
}
