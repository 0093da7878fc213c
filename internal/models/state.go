// Package models defines conversation state enums for the PAU engine.
package models

// State is the top-level conversational mode of a profile.
type State string

const (
	// StateHomeboarding is the structured onboarding dialogue.
	StateHomeboarding State = "homeboarding"
	// StateAgent is the open-ended chat mode granted after confirmation.
	StateAgent State = "agent"
)

// Step is the sub-step within homeboarding. It is meaningful only while
// State is StateHomeboarding and is reset to StepNone on the switch to agent.
type Step string

const (
	// StepNone means required fields are still being collected.
	StepNone Step = "none"
	// StepOptionalRequested means the one-time optional-channels request was sent.
	StepOptionalRequested Step = "optional_requested"
	// StepAwaitingConfirmation means the recap was sent and a yes/no is expected.
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// IsValidState checks if the given state is supported.
func IsValidState(s State) bool {
	switch s {
	case StateHomeboarding, StateAgent:
		return true
	default:
		return false
	}
}

// IsValidStep checks if the given onboarding step is supported.
func IsValidStep(s Step) bool {
	switch s {
	case StepNone, StepOptionalRequested, StepAwaitingConfirmation:
		return true
	default:
		return false
	}
}
