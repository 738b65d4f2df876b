package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateSubmitted, false},
		{StateUnderReview, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"rejected", StateRejected, true},
		{"unknown", State("PAID"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_PermitPanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid state")
		}
	}()
	NewBuilder().Permit(State("BOGUS"), TriggerSubmit, StateSubmitted)
}

func TestPayrollMachine_Next(t *testing.T) {
	m := NewPayrollMachine()

	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{"submit from draft", StateDraft, TriggerSubmit, StateSubmitted, false},
		{"begin review from submitted", StateSubmitted, TriggerBeginReview, StateUnderReview, false},
		{"approve from submitted", StateSubmitted, TriggerApprove, StateApproved, false},
		{"approve from under review", StateUnderReview, TriggerApprove, StateApproved, false},
		{"reject from submitted", StateSubmitted, TriggerReject, StateRejected, false},
		{"reject from under review", StateUnderReview, TriggerReject, StateRejected, false},
		{"approve from draft", StateDraft, TriggerApprove, "", true},
		{"reject from draft", StateDraft, TriggerReject, "", true},
		{"approve from approved", StateApproved, TriggerApprove, "", true},
		{"reject from rejected", StateRejected, TriggerReject, "", true},
		{"submit from submitted", StateSubmitted, TriggerSubmit, "", true},
		{"submit from approved", StateApproved, TriggerSubmit, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Next(tt.from, tt.trigger)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Next() error = %v, want ErrInvalidTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Next() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPayrollMachine_NextRejectsUnknownState(t *testing.T) {
	m := NewPayrollMachine()
	if _, err := m.Next(State("BOGUS"), TriggerSubmit); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Next() error = %v, want ErrInvalidState", err)
	}
}

func TestPayrollMachine_PermittedTriggers(t *testing.T) {
	m := NewPayrollMachine()

	tests := []struct {
		from State
		want []Trigger
	}{
		{StateDraft, []Trigger{TriggerSubmit}},
		{StateSubmitted, []Trigger{TriggerApprove, TriggerBeginReview, TriggerReject}},
		{StateUnderReview, []Trigger{TriggerApprove, TriggerReject}},
		{StateApproved, []Trigger{}},
		{StateRejected, []Trigger{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got := m.PermittedTriggers(tt.from)
			if len(got) != len(tt.want) {
				t.Fatalf("PermittedTriggers() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPayrollMachine_CanFire(t *testing.T) {
	m := NewPayrollMachine()

	if !m.CanFire(StateDraft, TriggerSubmit) {
		t.Error("CanFire(DRAFT, SUBMIT) = false, want true")
	}
	if m.CanFire(StateApproved, TriggerReject) {
		t.Error("CanFire(APPROVED, REJECT) = true, want false")
	}
}
