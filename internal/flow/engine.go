package flow

import (
	"context"
	"log/slog"

	"github.com/pauhq/pau/internal/models"
)

// Decision is the outcome of one conversation turn: the reply to deliver and
// the state the profile moves to.
type Decision struct {
	Reply            string
	State            models.State
	Step             models.Step
	IntroductionDone bool
}

// ConversationEngine is the deterministic state machine deciding the next
// conversational action for every inbound message.
type ConversationEngine struct {
	prompts    *PromptBuilder
	responder  *ResponseGenerator
	classifier IntentClassifier
}

// NewConversationEngine creates the engine from its collaborators.
func NewConversationEngine(prompts *PromptBuilder, responder *ResponseGenerator, classifier IntentClassifier) *ConversationEngine {
	return &ConversationEngine{prompts: prompts, responder: responder, classifier: classifier}
}

// Decide evaluates the turn against the merged profile. Exactly one branch
// fires, in fixed priority order: agent chat, missing required fields, a
// pending confirmation, the one-time optional-channels offer, then the recap.
func (e *ConversationEngine) Decide(ctx context.Context, p *models.Profile, text string) (Decision, error) {
	lang := p.Language()
	d := Decision{State: p.State, Step: p.Step, IntroductionDone: p.IntroductionDone}

	switch {
	case p.State == models.StateAgent:
		reply, err := e.responder.Respond(ctx, e.prompts.Agent(p), text, lang)
		if err != nil {
			return Decision{}, err
		}
		d.Reply = reply

	case len(p.MissingRequired()) > 0:
		reply, err := e.responder.Respond(ctx, e.prompts.Homeboarding(p), text, lang)
		if err != nil {
			return Decision{}, err
		}
		d.Reply = reply

	case p.Step == models.StepAwaitingConfirmation:
		switch e.classifier.Classify(text, lang) {
		case IntentPositive:
			d.State = models.StateAgent
			d.Step = models.StepNone
			d.Reply = AgentSwitchTemplate(lang)
		case IntentNegative:
			d.Reply = CorrectionRequestTemplate(lang)
		default:
			d.Reply = RecapTemplate(p, lang)
		}

	case p.Step != models.StepOptionalRequested && len(p.MissingOptionalChannels()) > 0:
		d.Step = models.StepOptionalRequested
		d.Reply = OptionalRequestTemplate(p.MissingOptionalChannels(), lang)

	default:
		d.Step = models.StepAwaitingConfirmation
		d.Reply = RecapTemplate(p, lang)
	}

	// The first-contact introduction is embedded in the homeboarding prompt
	// and must be shown at most once.
	if !p.IntroductionDone && d.State != models.StateAgent {
		d.IntroductionDone = true
	}

	slog.Debug("ConversationEngine.Decide: turn decided",
		"profileID", p.ID, "fromState", p.State, "fromStep", p.Step,
		"toState", d.State, "toStep", d.Step)
	return d, nil
}
