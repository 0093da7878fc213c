package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/pauhq/pau/internal/models"
)

func newTestEngine(model *mockModel) *ConversationEngine {
	return NewConversationEngine(NewPromptBuilder(), NewResponseGenerator(model), NewKeywordClassifier())
}

func agentProfile() *models.Profile {
	return &models.Profile{
		ID:               "p1",
		FirstName:        "Jean",
		LastName:         "Dupont",
		Email:            "jean@x.com",
		LanguageCode:     "fr",
		State:            models.StateAgent,
		Step:             models.StepNone,
		IntroductionDone: true,
		ChannelIdentities: map[models.ChannelKind]string{
			models.ChannelWhatsApp: "33612345678",
		},
	}
}

func TestDecideAgentStateAlwaysChats(t *testing.T) {
	model := &mockModel{reply: "Voici ma réponse."}
	engine := newTestEngine(model)
	p := agentProfile()

	// Even a confirmation-looking message takes the agent path.
	for _, text := range []string{"oui", "non", "quelle est ma stratégie ?"} {
		d, err := engine.Decide(context.Background(), p, text)
		if err != nil {
			t.Fatalf("Decide(%q) failed: %v", text, err)
		}
		if d.State != models.StateAgent || d.Step != models.StepNone {
			t.Errorf("Decide(%q) changed state to %s/%s", text, d.State, d.Step)
		}
		if d.Reply != "Voici ma réponse." {
			t.Errorf("Decide(%q) did not take the chat path: %q", text, d.Reply)
		}
	}
}

func TestDecideMissingRequiredAsksViaModel(t *testing.T) {
	model := &mockModel{reply: "Bonjour ! Quel est ton prénom ?"}
	engine := newTestEngine(model)
	p := &models.Profile{
		ID:    "p1",
		State: models.StateHomeboarding,
		Step:  models.StepNone,
	}

	d, err := engine.Decide(context.Background(), p, "Bonjour")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.State != models.StateHomeboarding || d.Step != models.StepNone {
		t.Errorf("unexpected transition: %s/%s", d.State, d.Step)
	}
	if d.Reply != "Bonjour ! Quel est ton prénom ?" {
		t.Errorf("expected model reply, got %q", d.Reply)
	}
	if !d.IntroductionDone {
		t.Error("expected introduction marked done after first homeboarding turn")
	}
}

func TestDecideOptionalRequestedOnce(t *testing.T) {
	model := &mockModel{}
	engine := newTestEngine(model)
	p := agentProfile()
	p.State = models.StateHomeboarding

	d, err := engine.Decide(context.Background(), p, "jean@x.com")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Step != models.StepOptionalRequested {
		t.Fatalf("expected optional_requested, got %s", d.Step)
	}
	if !strings.Contains(d.Reply, "Instagram") || !strings.Contains(d.Reply, "TikTok") {
		t.Errorf("optional request does not list missing channels: %q", d.Reply)
	}

	// Second turn with optionals still missing falls through to the recap.
	p.Step = d.Step
	d2, err := engine.Decide(context.Background(), p, "pas pour l'instant")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d2.Step != models.StepAwaitingConfirmation {
		t.Errorf("expected awaiting_confirmation, got %s", d2.Step)
	}
	if d2.Reply == d.Reply {
		t.Error("optional request was re-emitted")
	}
	if !strings.Contains(d2.Reply, "Jean") || !strings.Contains(d2.Reply, "non renseigné") {
		t.Errorf("recap does not list fields: %q", d2.Reply)
	}
}

func TestDecideConfirmationPositive(t *testing.T) {
	engine := newTestEngine(&mockModel{})
	p := agentProfile()
	p.State = models.StateHomeboarding
	p.Step = models.StepAwaitingConfirmation

	d, err := engine.Decide(context.Background(), p, "oui")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.State != models.StateAgent || d.Step != models.StepNone {
		t.Errorf("expected agent/none, got %s/%s", d.State, d.Step)
	}
	if !strings.Contains(d.Reply, "mode agent") {
		t.Errorf("expected agent switch reply, got %q", d.Reply)
	}
}

func TestDecideConfirmationNegative(t *testing.T) {
	engine := newTestEngine(&mockModel{})
	p := agentProfile()
	p.State = models.StateHomeboarding
	p.Step = models.StepAwaitingConfirmation

	d, err := engine.Decide(context.Background(), p, "non")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.State != models.StateHomeboarding || d.Step != models.StepAwaitingConfirmation {
		t.Errorf("negative answer changed state: %s/%s", d.State, d.Step)
	}
	if d.Reply != CorrectionRequestTemplate("fr") {
		t.Errorf("expected correction request, got %q", d.Reply)
	}
}

func TestDecideConfirmationUnclearReasks(t *testing.T) {
	engine := newTestEngine(&mockModel{})
	p := agentProfile()
	p.State = models.StateHomeboarding
	p.Step = models.StepAwaitingConfirmation

	d, err := engine.Decide(context.Background(), p, "peut-être")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.State != models.StateHomeboarding || d.Step != models.StepAwaitingConfirmation {
		t.Errorf("unclear answer changed state: %s/%s", d.State, d.Step)
	}
	if d.Reply != RecapTemplate(p, "fr") {
		t.Errorf("expected the recap re-emitted, got %q", d.Reply)
	}
}

func TestDecideRecapWhenEverythingKnown(t *testing.T) {
	engine := newTestEngine(&mockModel{})
	p := agentProfile()
	p.State = models.StateHomeboarding
	p.ChannelIdentities[models.ChannelInstagram] = "@jean"
	p.ChannelIdentities[models.ChannelFacebook] = "jean.dupont"
	p.ChannelIdentities[models.ChannelTikTok] = "@jean_tt"

	d, err := engine.Decide(context.Background(), p, "voilà")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Step != models.StepAwaitingConfirmation {
		t.Errorf("expected awaiting_confirmation, got %s", d.Step)
	}
	if !strings.Contains(d.Reply, "@jean_tt") {
		t.Errorf("recap missing optional handle: %q", d.Reply)
	}
}

func TestDecideIntroductionShownAtMostOnce(t *testing.T) {
	model := &mockModel{reply: "Bonjour !"}
	engine := newTestEngine(model)
	p := &models.Profile{ID: "p1", State: models.StateHomeboarding, Step: models.StepNone}

	d, err := engine.Decide(context.Background(), p, "Bonjour")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if !d.IntroductionDone {
		t.Fatal("expected introduction marked done")
	}

	p.IntroductionDone = d.IntroductionDone
	d2, err := engine.Decide(context.Background(), p, "Jean")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if !d2.IntroductionDone {
		t.Error("introduction flag must stay set")
	}
}
